package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// FlightRepository reads the flight catalog: airports, flights, seat maps
// and extras. The catalog is never written here except for the
// fully_booked flag, which belongs to CapacityRepository.
type FlightRepository struct {
	db *sqlx.DB
}

// NewFlightRepository creates a new flight repository
func NewFlightRepository(db *sqlx.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

const segmentColumns = `
	f.id AS flight_id,
	r.flight_number,
	r.airline_id,
	al.name AS airline_name,
	r.departure_airport_id,
	da.iata_code AS departure_airport_code,
	r.arrival_airport_id,
	aa.iata_code AS arrival_airport_code,
	f.departure_time,
	f.arrival_time,
	f.price_economy,
	f.price_business,
	f.price_first`

const segmentJoins = `
	FROM flights f
	JOIN routes r ON r.id = f.route_id
	JOIN airlines al ON al.id = r.airline_id
	JOIN airports da ON da.id = r.departure_airport_id
	JOIN airports aa ON aa.id = r.arrival_airport_id`

// ResolveAirports returns the airports named by an airport id or a city id
func (r *FlightRepository) ResolveAirports(ctx context.Context, loc models.LocationRef) ([]models.Airport, error) {
	var where string
	switch loc.Type {
	case models.LocationAirport:
		where = "id = $1"
	case models.LocationCity:
		where = "city_id = $1"
	default:
		return nil, models.NewValidationError("type", fmt.Sprintf("unknown location type %q", loc.Type))
	}

	query := `
		SELECT id, iata_code, name, latitude, longitude, city_id
		FROM airports
		WHERE ` + where + `
		ORDER BY iata_code`

	var airports []models.Airport
	if err := r.db.SelectContext(ctx, &airports, query, loc.ID); err != nil {
		return nil, fmt.Errorf("failed to resolve airports: %w", err)
	}
	return airports, nil
}

// FindDepartures lists bookable flights leaving airportID in [from, to),
// earliest first. Airline and economy price filters are applied here.
func (r *FlightRepository) FindDepartures(
	ctx context.Context,
	airportID uuid.UUID,
	from, to time.Time,
	filter models.DepartureFilter,
) ([]models.FlightSegment, error) {
	query := `
		SELECT` + segmentColumns + segmentJoins + `
		WHERE r.departure_airport_id = $1
		  AND f.departure_time >= $2
		  AND f.departure_time < $3
		  AND f.fully_booked = false
		  AND ($4::uuid IS NULL OR r.airline_id = $4::uuid)
		  AND ($5::numeric IS NULL OR f.price_economy <= $5::numeric)
		ORDER BY f.departure_time, f.id`

	var segments []models.FlightSegment
	err := r.db.SelectContext(ctx, &segments, query,
		airportID, from, to, filter.AirlineID, filter.MaxEconomyPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to find departures: %w", err)
	}
	return segments, nil
}

// GetFlight loads one flight. A missing flight is a not-found error.
func (r *FlightRepository) GetFlight(ctx context.Context, q sqlx.QueryerContext, flightID uuid.UUID) (*models.Flight, error) {
	query := `
		SELECT id, route_id, aircraft_id, departure_time, arrival_time,
		       price_economy, price_business, price_first, price_insurance, fully_booked
		FROM flights
		WHERE id = $1`

	var flight models.Flight
	err := sqlx.GetContext(ctx, q, &flight, query, flightID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError(fmt.Sprintf("flight %s not found", flightID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}
	return &flight, nil
}

// GetFlightsByIDs loads several flights keyed by id; unknown ids are absent
func (r *FlightRepository) GetFlightsByIDs(ctx context.Context, q sqlx.QueryerContext, ids []uuid.UUID) (map[uuid.UUID]*models.Flight, error) {
	result := make(map[uuid.UUID]*models.Flight, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, route_id, aircraft_id, departure_time, arrival_time,
		       price_economy, price_business, price_first, price_insurance, fully_booked
		FROM flights
		WHERE id = ANY($1::uuid[])`

	var flights []models.Flight
	if err := sqlx.SelectContext(ctx, q, &flights, query, models.UUIDArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to get flights: %w", err)
	}
	for i := range flights {
		result[flights[i].ID] = &flights[i]
	}
	return result, nil
}

// GetSeatClass returns the class of seatNumber in the seat map of the
// aircraft flying flightID. found is false when the seat does not exist.
func (r *FlightRepository) GetSeatClass(ctx context.Context, q sqlx.QueryerContext, flightID uuid.UUID, seatNumber string) (class models.ClassType, found bool, err error) {
	query := `
		SELECT s.class_type
		FROM aircraft_seats s
		JOIN flights f ON f.aircraft_id = s.aircraft_id
		WHERE f.id = $1 AND s.seat_number = $2`

	err = sqlx.GetContext(ctx, q, &class, query, flightID, strings.ToUpper(strings.TrimSpace(seatNumber)))
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get seat class: %w", err)
	}
	return class, true, nil
}

// GetExtrasByIDs loads flight extras keyed by id; unknown ids are absent
func (r *FlightRepository) GetExtrasByIDs(ctx context.Context, q sqlx.QueryerContext, ids []uuid.UUID) (map[uuid.UUID]*models.FlightExtra, error) {
	result := make(map[uuid.UUID]*models.FlightExtra, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, flight_id, name, unit_price, max_quantity
		FROM flight_extras
		WHERE id = ANY($1::uuid[])`

	var extras []models.FlightExtra
	if err := sqlx.SelectContext(ctx, q, &extras, query, models.UUIDArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to get extras: %w", err)
	}
	for i := range extras {
		result[extras[i].ID] = &extras[i]
	}
	return result, nil
}

// GetSeatAvailability lists the seat map of a flight, marking seats that are
// booked or held by a session still readable at heldAfter.
func (r *FlightRepository) GetSeatAvailability(ctx context.Context, flightID uuid.UUID, heldAfter time.Time) ([]models.SeatAvailability, error) {
	query := `
		SELECT
			s.seat_number,
			s.class_type,
			EXISTS (
				SELECT 1 FROM booked_flights bf
				WHERE bf.flight_id = f.id AND bf.seat_number = s.seat_number
			) AS booked,
			EXISTS (
				SELECT 1 FROM seat_claims sc
				JOIN seat_sessions ss ON ss.id = sc.session_id
				WHERE sc.flight_id = f.id AND sc.seat_number = s.seat_number
				  AND ss.end_time > $2
			) AS held
		FROM flights f
		JOIN aircraft_seats s ON s.aircraft_id = f.aircraft_id
		WHERE f.id = $1
		ORDER BY s.seat_number`

	var seats []models.SeatAvailability
	if err := r.db.SelectContext(ctx, &seats, query, flightID, heldAfter); err != nil {
		return nil, fmt.Errorf("failed to get seat availability: %w", err)
	}
	return seats, nil
}
