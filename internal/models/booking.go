package models

import (
	"time"

	"github.com/google/uuid"
)

// FlightDirection tells whether a booked flight belongs to the outbound or return leg
type FlightDirection string

const (
	DirectionDeparture FlightDirection = "departure"
	DirectionReturn    FlightDirection = "return"
)

// Booking is a durable, priced reservation
type Booking struct {
	ID               uuid.UUID `json:"id" db:"id"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	BookingCode      string    `json:"booking_code" db:"booking_code"`
	HasInsurance     bool      `json:"has_insurance" db:"has_insurance"`
	PaymentConfirmed bool      `json:"payment_confirmed" db:"payment_confirmed"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// BookedFlight is a seat on one flight committed to a booking
type BookedFlight struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	BookingID  uuid.UUID       `json:"booking_id" db:"booking_id"`
	FlightID   uuid.UUID       `json:"flight_id" db:"flight_id"`
	SeatNumber string          `json:"seat_number" db:"seat_number"`
	ClassType  ClassType       `json:"class_type" db:"class_type"`
	Price      float64         `json:"price" db:"price"`
	Direction  FlightDirection `json:"direction" db:"direction"`
	Position   int             `json:"position" db:"position"`
}

// BookedExtra is a quantity of a flight extra committed to a booking
type BookedExtra struct {
	ID            uuid.UUID `json:"id" db:"id"`
	BookingID     uuid.UUID `json:"booking_id" db:"booking_id"`
	FlightExtraID uuid.UUID `json:"extra_id" db:"flight_extra_id"`
	FlightID      uuid.UUID `json:"flight_id" db:"flight_id"`
	Name          string    `json:"name" db:"name"`
	Quantity      int       `json:"quantity" db:"quantity"`
	Price         float64   `json:"price" db:"price"`
}

// BookingDetail is a booking with its line items and computed totals
type BookingDetail struct {
	Booking
	DepartureFlights []BookedFlight `json:"departure_flights"`
	ReturnFlights    []BookedFlight `json:"return_flights"`
	Extras           []BookedExtra  `json:"extras"`
	InsurancePrice   float64        `json:"insurance_price"`
	TotalPrice       float64        `json:"total_price"`
}

// ExtraSelection is one (extra, quantity) pick in a booking request
type ExtraSelection struct {
	ExtraID  uuid.UUID `json:"extra_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// CreateBookingRequest is the body of POST /bookings
type CreateBookingRequest struct {
	SessionID          uuid.UUID        `json:"session_id" binding:"required"`
	DepartureFlightIDs []uuid.UUID      `json:"departure_flights" binding:"required,min=1,dive,required"`
	ReturnFlightIDs    []uuid.UUID      `json:"return_flights" binding:"omitempty,dive,required"`
	Extras             []ExtraSelection `json:"extras" binding:"omitempty,dive"`
	HasInsurance       bool             `json:"has_insurance"`
}

// CreateBookingResponse is returned after a booking commits
type CreateBookingResponse struct {
	BookingID   uuid.UUID `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
}
