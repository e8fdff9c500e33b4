package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SeatSessionRepository persists seat sessions and their claims.
//
// Seat exclusivity across sessions is enforced by the unique index on
// seat_claims(flight_id, seat_number); a losing insert surfaces as a
// conflict instead of being pre-checked.
type SeatSessionRepository struct {
	db *sqlx.DB
}

// NewSeatSessionRepository creates a new seat session repository
func NewSeatSessionRepository(db *sqlx.DB) *SeatSessionRepository {
	return &SeatSessionRepository{db: db}
}

// GetLatestByUser returns the most recent session of a user with its claims,
// or nil when the user has none
func (r *SeatSessionRepository) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*models.SeatSession, error) {
	query := `
		SELECT id, user_id, start_time, end_time
		FROM seat_sessions
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT 1`

	var session models.SeatSession
	err := r.db.GetContext(ctx, &session, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get seat session: %w", err)
	}

	session.Claims, err = r.listClaims(ctx, r.db, session.ID)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByID returns a session with its claims, or nil when it does not exist
func (r *SeatSessionRepository) GetByID(ctx context.Context, q sqlx.QueryerContext, sessionID uuid.UUID) (*models.SeatSession, error) {
	query := `
		SELECT id, user_id, start_time, end_time
		FROM seat_sessions
		WHERE id = $1`

	var session models.SeatSession
	err := sqlx.GetContext(ctx, q, &session, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get seat session: %w", err)
	}

	session.Claims, err = r.listClaims(ctx, q, session.ID)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SeatSessionRepository) listClaims(ctx context.Context, q sqlx.QueryerContext, sessionID uuid.UUID) ([]models.SeatClaim, error) {
	query := `
		SELECT id, session_id, flight_id, seat_number, class_type
		FROM seat_claims
		WHERE session_id = $1
		ORDER BY seat_number`

	claims := []models.SeatClaim{}
	if err := sqlx.SelectContext(ctx, q, &claims, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list seat claims: %w", err)
	}
	return claims, nil
}

// Replace deletes every session of the user and inserts the new one
func (r *SeatSessionRepository) Replace(ctx context.Context, tx *sqlx.Tx, session *models.SeatSession) error {
	if _, err := r.deleteByUser(ctx, tx, session.UserID); err != nil {
		return err
	}

	query := `
		INSERT INTO seat_sessions (id, user_id, start_time, end_time)
		VALUES ($1, $2, $3, $4)`

	_, err := tx.ExecContext(ctx, query, session.ID, session.UserID, session.StartTime, session.EndTime)
	if err != nil {
		if IsUniqueViolation(err) {
			return models.NewConflictError("another seat session is being created for this user", err)
		}
		return fmt.Errorf("failed to create seat session: %w", err)
	}
	return nil
}

func (r *SeatSessionRepository) deleteByUser(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (int64, error) {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM seat_claims
		WHERE session_id IN (SELECT id FROM seat_sessions WHERE user_id = $1)`, userID); err != nil {
		return 0, fmt.Errorf("failed to delete previous seat claims: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM seat_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete previous seat sessions: %w", err)
	}
	return res.RowsAffected()
}

// AddClaim stores a claim. Claims of sessions that ended by staleBefore
// are purged first so they never block the seat, and a previous claim of
// the same session on the same flight is replaced.
func (r *SeatSessionRepository) AddClaim(ctx context.Context, tx *sqlx.Tx, claim *models.SeatClaim, staleBefore time.Time) error {
	purge := `
		DELETE FROM seat_claims sc
		USING seat_sessions ss
		WHERE sc.session_id = ss.id
		  AND sc.flight_id = $1
		  AND sc.seat_number = $2
		  AND ss.end_time <= $3`
	if _, err := tx.ExecContext(ctx, purge, claim.FlightID, claim.SeatNumber, staleBefore); err != nil {
		return fmt.Errorf("failed to purge stale seat claims: %w", err)
	}

	move := `DELETE FROM seat_claims WHERE session_id = $1 AND flight_id = $2`
	if _, err := tx.ExecContext(ctx, move, claim.SessionID, claim.FlightID); err != nil {
		return fmt.Errorf("failed to release previous seat claim: %w", err)
	}

	insert := `
		INSERT INTO seat_claims (id, session_id, flight_id, seat_number, class_type)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.ExecContext(ctx, insert,
		claim.ID, claim.SessionID, claim.FlightID, claim.SeatNumber, claim.ClassType)
	if err != nil {
		if IsUniqueViolation(err) {
			return models.NewConflictError(
				fmt.Sprintf("seat %s is already held on this flight", claim.SeatNumber), err)
		}
		return fmt.Errorf("failed to add seat claim: %w", err)
	}
	return nil
}

// IsSeatBooked reports whether a seat is committed to a booking
func (r *SeatSessionRepository) IsSeatBooked(ctx context.Context, q sqlx.QueryerContext, flightID uuid.UUID, seatNumber string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM booked_flights
			WHERE flight_id = $1 AND seat_number = $2
		)`

	var booked bool
	if err := sqlx.GetContext(ctx, q, &booked, query, flightID, seatNumber); err != nil {
		return false, fmt.Errorf("failed to check booked seat: %w", err)
	}
	return booked, nil
}

// Delete removes a session and all of its claims. Deleting a missing
// session is not an error.
func (r *SeatSessionRepository) Delete(ctx context.Context, q sqlx.ExecerContext, sessionID uuid.UUID) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM seat_claims WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete seat claims: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM seat_sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete seat session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that ended by the cutoff and returns
// how many were removed
func (r *SeatSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	err := runTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM seat_claims
			WHERE session_id IN (SELECT id FROM seat_sessions WHERE end_time <= $1)`, before); err != nil {
			return fmt.Errorf("failed to delete expired seat claims: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM seat_sessions WHERE end_time <= $1`, before)
		if err != nil {
			return fmt.Errorf("failed to delete expired seat sessions: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}
