package models

import (
	"time"

	"github.com/google/uuid"
)

// SeatSession is a per-user lease over seat claims, persisted so that any
// service instance can serve the next request of the same checkout.
type SeatSession struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	UserID    uuid.UUID   `json:"user_id" db:"user_id"`
	StartTime time.Time   `json:"start_time" db:"start_time"`
	EndTime   time.Time   `json:"end_time" db:"end_time"`
	Claims    []SeatClaim `json:"seats" db:"-"`
}

// ReadableAt reports whether the session can still be retrieved at now.
// Reads tolerate a grace window past the nominal end.
func (s *SeatSession) ReadableAt(now time.Time, gray time.Duration) bool {
	return now.Before(s.EndTime.Add(gray))
}

// WritableAt reports whether claims can still be added at now
func (s *SeatSession) WritableAt(now time.Time) bool {
	return now.Before(s.EndTime)
}

// ClaimsForFlight returns the claims the session holds on a flight
func (s *SeatSession) ClaimsForFlight(flightID uuid.UUID) []SeatClaim {
	var claims []SeatClaim
	for _, c := range s.Claims {
		if c.FlightID == flightID {
			claims = append(claims, c)
		}
	}
	return claims
}

// SeatClaim is a (flight, seat) hold owned by a session
type SeatClaim struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SessionID  uuid.UUID `json:"session_id" db:"session_id"`
	FlightID   uuid.UUID `json:"flight_id" db:"flight_id"`
	SeatNumber string    `json:"seat_number" db:"seat_number"`
	ClassType  ClassType `json:"class_type" db:"class_type"`
}

// AddSeatRequest is the body of POST /seat-sessions/:id/seats
type AddSeatRequest struct {
	FlightID   uuid.UUID `json:"flight_id" binding:"required"`
	SeatNumber string    `json:"seat_number" binding:"required,max=8,seat_number"`
}
