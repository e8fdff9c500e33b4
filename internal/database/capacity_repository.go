package database

import (
	"context"
	"fmt"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CapacityRepository counts seats for a flight and stores its fully_booked flag
type CapacityRepository struct{}

// NewCapacityRepository creates a new CapacityRepository
func NewCapacityRepository() *CapacityRepository {
	return &CapacityRepository{}
}

// CountTotalSeats counts the seat map rows of the aircraft flying the flight
func (r *CapacityRepository) CountTotalSeats(ctx context.Context, q sqlx.QueryerContext, flightID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM aircraft_seats s
		JOIN flights f ON f.aircraft_id = s.aircraft_id
		WHERE f.id = $1`

	var total int
	if err := sqlx.GetContext(ctx, q, &total, query, flightID); err != nil {
		return 0, fmt.Errorf("failed to count seats: %w", err)
	}
	return total, nil
}

// CountBookedSeats counts departure and return line items on the flight
func (r *CapacityRepository) CountBookedSeats(ctx context.Context, q sqlx.QueryerContext, flightID uuid.UUID) (int, error) {
	var booked int
	err := sqlx.GetContext(ctx, q, &booked,
		`SELECT COUNT(*) FROM booked_flights WHERE flight_id = $1`, flightID)
	if err != nil {
		return 0, fmt.Errorf("failed to count booked seats: %w", err)
	}
	return booked, nil
}

// SetFullyBooked stores the flag
func (r *CapacityRepository) SetFullyBooked(ctx context.Context, q sqlx.ExecerContext, flightID uuid.UUID, fullyBooked bool) error {
	res, err := q.ExecContext(ctx,
		`UPDATE flights SET fully_booked = $2 WHERE id = $1`, flightID, fullyBooked)
	if err != nil {
		return fmt.Errorf("failed to update fully_booked: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NewNotFoundError(fmt.Sprintf("flight %s not found", flightID))
	}
	return nil
}
