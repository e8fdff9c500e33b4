package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BookingRepository handles booking database operations. Write methods
// take the caller's transaction so the coordinator can compose them into a
// single serializable unit.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ============================================================================
// WRITES
// ============================================================================

// CodeExists reports whether a booking already uses the code
func (r *BookingRepository) CodeExists(ctx context.Context, q sqlx.QueryerContext, code string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE booking_code = $1)`, code)
	if err != nil {
		return false, fmt.Errorf("failed to check booking code: %w", err)
	}
	return exists, nil
}

// Create inserts the booking row
func (r *BookingRepository) Create(ctx context.Context, q sqlx.ExecerContext, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, booking_code, has_insurance, payment_confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := q.ExecContext(ctx, query,
		booking.ID, booking.UserID, booking.BookingCode,
		booking.HasInsurance, booking.PaymentConfirmed, booking.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return models.NewConflictError("booking code already in use", err)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// AddFlight inserts a departure or return line item. A seat committed to
// another booking violates booked_flights(flight_id, seat_number).
func (r *BookingRepository) AddFlight(ctx context.Context, q sqlx.ExecerContext, bf *models.BookedFlight) error {
	query := `
		INSERT INTO booked_flights (id, booking_id, flight_id, seat_number, class_type, price, direction, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := q.ExecContext(ctx, query,
		bf.ID, bf.BookingID, bf.FlightID, bf.SeatNumber, bf.ClassType, bf.Price, bf.Direction, bf.Position)
	if err != nil {
		if IsUniqueViolation(err) {
			return models.NewConflictError(
				fmt.Sprintf("seat %s is already booked on flight %s", bf.SeatNumber, bf.FlightID), err)
		}
		return fmt.Errorf("failed to add booked flight: %w", err)
	}
	return nil
}

// AddExtra inserts an extra line item
func (r *BookingRepository) AddExtra(ctx context.Context, q sqlx.ExecerContext, be *models.BookedExtra) error {
	query := `
		INSERT INTO booked_extras (id, booking_id, flight_extra_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := q.ExecContext(ctx, query, be.ID, be.BookingID, be.FlightExtraID, be.Quantity, be.Price)
	if err != nil {
		return fmt.Errorf("failed to add booked extra: %w", err)
	}
	return nil
}

// Delete removes a booking with its line items
func (r *BookingRepository) Delete(ctx context.Context, q sqlx.ExecerContext, bookingID uuid.UUID) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM booked_extras WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("failed to delete booked extras: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM booked_flights WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("failed to delete booked flights: %w", err)
	}
	res, err := q.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NewNotFoundError("booking not found")
	}
	return nil
}

// ============================================================================
// READS
// ============================================================================

// GetByID returns a booking, or nil when it does not exist
func (r *BookingRepository) GetByID(ctx context.Context, q sqlx.QueryerContext, bookingID uuid.UUID) (*models.Booking, error) {
	query := `
		SELECT id, user_id, booking_code, has_insurance, payment_confirmed, created_at
		FROM bookings
		WHERE id = $1`

	var booking models.Booking
	err := sqlx.GetContext(ctx, q, &booking, query, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// ListByUser returns a user's bookings, newest first
func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	query := `
		SELECT id, user_id, booking_code, has_insurance, payment_confirmed, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	bookings := []models.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// ListFlights returns the line items of a booking in booking order
func (r *BookingRepository) ListFlights(ctx context.Context, q sqlx.QueryerContext, bookingID uuid.UUID) ([]models.BookedFlight, error) {
	query := `
		SELECT id, booking_id, flight_id, seat_number, class_type, price, direction, position
		FROM booked_flights
		WHERE booking_id = $1
		ORDER BY direction, position`

	flights := []models.BookedFlight{}
	if err := sqlx.SelectContext(ctx, q, &flights, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list booked flights: %w", err)
	}
	return flights, nil
}

// ListExtras returns the extras of a booking
func (r *BookingRepository) ListExtras(ctx context.Context, q sqlx.QueryerContext, bookingID uuid.UUID) ([]models.BookedExtra, error) {
	query := `
		SELECT be.id, be.booking_id, be.flight_extra_id, fe.flight_id, fe.name, be.quantity, be.price
		FROM booked_extras be
		JOIN flight_extras fe ON fe.id = be.flight_extra_id
		WHERE be.booking_id = $1
		ORDER BY fe.name`

	extras := []models.BookedExtra{}
	if err := sqlx.SelectContext(ctx, q, &extras, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list booked extras: %w", err)
	}
	return extras, nil
}

// BookedFlightIDsByUser returns every flight the user holds a booking on
func (r *BookingRepository) BookedFlightIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT bf.flight_id
		FROM booked_flights bf
		JOIN bookings b ON b.id = bf.booking_id
		WHERE b.user_id = $1`

	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list booked flights for user: %w", err)
	}
	return ids, nil
}
