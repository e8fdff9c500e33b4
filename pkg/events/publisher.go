package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published by the booking core
const (
	TypeBookingCreated     = "booking.created"
	TypeBookingDeleted     = "booking.deleted"
	TypeSeatSessionCreated = "seat_session.created"
	TypeSeatSessionDeleted = "seat_session.deleted"
)

// Event is the envelope written to the broker as JSON
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// NewEvent creates an event stamped with a fresh id and the current time
func NewEvent(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers events to a broker. key groups events that must stay
// ordered (for example all events of one user).
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }

// BookingPayload describes a created or deleted booking
type BookingPayload struct {
	BookingID   uuid.UUID   `json:"booking_id"`
	BookingCode string      `json:"booking_code,omitempty"`
	UserID      uuid.UUID   `json:"user_id"`
	FlightIDs   []uuid.UUID `json:"flight_ids"`
}

// SeatSessionPayload describes a created or deleted seat session
type SeatSessionPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	EndTime   time.Time `json:"end_time,omitempty"`
}
