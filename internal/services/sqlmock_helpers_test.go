package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/azvaska/flight-gorilla-sub000/internal/config"
	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/azvaska/flight-gorilla-sub000/pkg/events"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		TTL:           15 * time.Minute,
		GrayPeriod:    2 * time.Minute,
		SweepSchedule: "0 * * * * *",
	}
}

// sessionStart is t0 of every lease test
var sessionStart = time.Date(2030, time.June, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var (
	sessionColumns = []string{"id", "user_id", "start_time", "end_time"}
	claimColumns   = []string{"id", "session_id", "flight_id", "seat_number", "class_type"}
	flightColumns  = []string{
		"id", "route_id", "aircraft_id", "departure_time", "arrival_time",
		"price_economy", "price_business", "price_first", "price_insurance", "fully_booked",
	}
	bookingColumns      = []string{"id", "user_id", "booking_code", "has_insurance", "payment_confirmed", "created_at"}
	bookedFlightColumns = []string{"id", "booking_id", "flight_id", "seat_number", "class_type", "price", "direction", "position"}
)

func expectSession(mock sqlmock.Sqlmock, sessionID, userID uuid.UUID, claims ...models.SeatClaim) {
	mock.ExpectQuery(`FROM seat_sessions WHERE id`).
		WithArgs(sessionID).
		WillReturnRows(sqlmock.NewRows(sessionColumns).
			AddRow(sessionID.String(), userID.String(), sessionStart, sessionStart.Add(15*time.Minute)))

	rows := sqlmock.NewRows(claimColumns)
	for _, c := range claims {
		rows.AddRow(c.ID.String(), sessionID.String(), c.FlightID.String(), c.SeatNumber, string(c.ClassType))
	}
	mock.ExpectQuery(`FROM seat_claims WHERE session_id`).
		WithArgs(sessionID).
		WillReturnRows(rows)
}

func flightRow(rows *sqlmock.Rows, id uuid.UUID, economy, business, insurance float64) *sqlmock.Rows {
	return rows.AddRow(
		id.String(), uuid.New().String(), uuid.New().String(),
		sessionStart.Add(48*time.Hour), sessionStart.Add(50*time.Hour),
		economy, business, economy*4, insurance, false,
	)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
