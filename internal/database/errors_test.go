package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestSQLStateHelpers(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		unique        bool
		serialization bool
		constraint    string
	}{
		{
			name:       "pq unique violation",
			err:        &pq.Error{Code: "23505", Constraint: "seat_claims_flight_id_seat_number_key"},
			unique:     true,
			constraint: "seat_claims_flight_id_seat_number_key",
		},
		{
			name:       "pgx unique violation wrapped",
			err:        fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "bookings_booking_code_key"}),
			unique:     true,
			constraint: "bookings_booking_code_key",
		},
		{
			name:          "pq serialization failure",
			err:           &pq.Error{Code: "40001"},
			serialization: true,
		},
		{
			name:          "pgx deadlock",
			err:           &pgconn.PgError{Code: "40P01"},
			serialization: true,
		},
		{
			name: "foreign key violation",
			err:  &pq.Error{Code: "23503", Constraint: "seat_claims_flight_id_fkey"},
			// constraint is still reported
			constraint: "seat_claims_flight_id_fkey",
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueViolation(tt.err))
			assert.Equal(t, tt.serialization, IsSerializationFailure(tt.err))
			assert.Equal(t, tt.constraint, ConstraintName(tt.err))
		})
	}
}
