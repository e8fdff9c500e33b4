package models

import (
	"time"

	"github.com/google/uuid"
)

// ClassType is the cabin tier governing price and seat-map membership
type ClassType string

const (
	ClassEconomy  ClassType = "economy"
	ClassBusiness ClassType = "business"
	ClassFirst    ClassType = "first"
)

// Valid reports whether c is a known class
func (c ClassType) Valid() bool {
	switch c {
	case ClassEconomy, ClassBusiness, ClassFirst:
		return true
	}
	return false
}

// Airport is read-only catalog data
type Airport struct {
	ID        uuid.UUID `json:"id" db:"id"`
	IATACode  string    `json:"iata_code" db:"iata_code"`
	Name      string    `json:"name" db:"name"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	CityID    uuid.UUID `json:"city_id" db:"city_id"`
}

// Flight is a scheduled instance of a route flown by one aircraft tail
type Flight struct {
	ID             uuid.UUID `json:"id" db:"id"`
	RouteID        uuid.UUID `json:"route_id" db:"route_id"`
	AircraftID     uuid.UUID `json:"aircraft_id" db:"aircraft_id"`
	DepartureTime  time.Time `json:"departure_time" db:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time" db:"arrival_time"`
	PriceEconomy   float64   `json:"price_economy" db:"price_economy"`
	PriceBusiness  float64   `json:"price_business" db:"price_business"`
	PriceFirst     float64   `json:"price_first" db:"price_first"`
	PriceInsurance float64   `json:"price_insurance" db:"price_insurance"`
	FullyBooked    bool      `json:"fully_booked" db:"fully_booked"`
}

// PriceFor returns the flight's price for a class
func (f *Flight) PriceFor(class ClassType) (float64, bool) {
	switch class {
	case ClassEconomy:
		return f.PriceEconomy, true
	case ClassBusiness:
		return f.PriceBusiness, true
	case ClassFirst:
		return f.PriceFirst, true
	}
	return 0, false
}

// FlightSegment is a flight joined with its route, airports and airline,
// the unit the itinerary search works with.
type FlightSegment struct {
	FlightID             uuid.UUID `json:"flight_id" db:"flight_id"`
	FlightNumber         string    `json:"flight_number" db:"flight_number"`
	AirlineID            uuid.UUID `json:"airline_id" db:"airline_id"`
	AirlineName          string    `json:"airline_name" db:"airline_name"`
	DepartureAirportID   uuid.UUID `json:"departure_airport_id" db:"departure_airport_id"`
	DepartureAirportCode string    `json:"departure_airport_code" db:"departure_airport_code"`
	ArrivalAirportID     uuid.UUID `json:"arrival_airport_id" db:"arrival_airport_id"`
	ArrivalAirportCode   string    `json:"arrival_airport_code" db:"arrival_airport_code"`
	DepartureTime        time.Time `json:"departure_time" db:"departure_time"`
	ArrivalTime          time.Time `json:"arrival_time" db:"arrival_time"`
	PriceEconomy         float64   `json:"price_economy" db:"price_economy"`
	PriceBusiness        float64   `json:"price_business" db:"price_business"`
	PriceFirst           float64   `json:"price_first" db:"price_first"`
}

// DepartureFilter is applied by the catalog when listing departures
type DepartureFilter struct {
	AirlineID       *uuid.UUID
	MaxEconomyPrice *float64
}

// FlightExtra is a purchasable add-on offered on one flight
type FlightExtra struct {
	ID          uuid.UUID `json:"id" db:"id"`
	FlightID    uuid.UUID `json:"flight_id" db:"flight_id"`
	Name        string    `json:"name" db:"name"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	MaxQuantity int       `json:"max_quantity" db:"max_quantity"`
}

// SeatMapEntry is one seat of an aircraft tail
type SeatMapEntry struct {
	SeatNumber string    `json:"seat_number" db:"seat_number"`
	ClassType  ClassType `json:"class_type" db:"class_type"`
}

// SeatAvailability is a seat map entry annotated with its current state
type SeatAvailability struct {
	SeatNumber string    `json:"seat_number" db:"seat_number"`
	ClassType  ClassType `json:"class_type" db:"class_type"`
	Booked     bool      `json:"booked" db:"booked"`
	Held       bool      `json:"held" db:"held"`
}

// FlightSeatMap is the response of the flight seats endpoint
type FlightSeatMap struct {
	FlightID    uuid.UUID          `json:"flight_id"`
	FullyBooked bool               `json:"fully_booked"`
	Seats       []SeatAvailability `json:"seats"`
}
