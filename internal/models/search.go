package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocationType tells whether a search endpoint id names an airport or a city
type LocationType string

const (
	LocationAirport LocationType = "airport"
	LocationCity    LocationType = "city"
)

// Sort keys accepted by the itinerary search
const (
	SortByPrice    = "price"
	SortByDuration = "duration"
	SortByStops    = "stops"
)

// LocationRef identifies the set of airports on one side of a search
type LocationRef struct {
	ID   uuid.UUID
	Type LocationType
}

// LocationParams are the query parameters shared by both search endpoints
type LocationParams struct {
	DepartureID   string `form:"departure_id" binding:"required"`
	DepartureType string `form:"departure_type" binding:"required,location_type"`
	ArrivalID     string `form:"arrival_id" binding:"required"`
	ArrivalType   string `form:"arrival_type" binding:"required,location_type"`
}

// FilterParams are the optional query filters shared by both search endpoints
type FilterParams struct {
	MaxTransfers     *int     `form:"max_transfers" binding:"omitempty,min=0"`
	AirlineID        string   `form:"airline_id"`
	PriceMax         *float64 `form:"price_max" binding:"omitempty,gt=0"`
	DepartureTimeMin string   `form:"departure_time_min" binding:"omitempty,clock_hhmm"`
	DepartureTimeMax string   `form:"departure_time_max" binding:"omitempty,clock_hhmm"`
}

// ItinerarySearchRequest is the query of GET /search/itineraries
type ItinerarySearchRequest struct {
	LocationParams
	FilterParams
	Date   string `form:"date" binding:"required,datetime=2006-01-02"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=price duration stops"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

// FlexibleSearchRequest is the query of GET /search/flexible
type FlexibleSearchRequest struct {
	LocationParams
	FilterParams
	Month string `form:"month" binding:"required,datetime=2006-01"`
}

// TimeWindow bounds a time of day, in minutes after midnight, inclusive
type TimeWindow struct {
	FromMinute int
	ToMinute   int
}

// Contains reports whether t's UTC time of day lies in the window
func (w TimeWindow) Contains(t time.Time) bool {
	u := t.UTC()
	m := u.Hour()*60 + u.Minute()
	return m >= w.FromMinute && m <= w.ToMinute
}

// JourneyFilters narrows the generated journeys
type JourneyFilters struct {
	AirlineID        *uuid.UUID
	MaxEconomyPrice  *float64
	DepartureWindow  *TimeWindow
	ExcludeFlightIDs map[uuid.UUID]struct{}
}

// DepartureFilter returns the part of the filters the catalog applies at query time
func (f JourneyFilters) DepartureFilter() DepartureFilter {
	return DepartureFilter{AirlineID: f.AirlineID, MaxEconomyPrice: f.MaxEconomyPrice}
}

// SortOptions orders journeys
type SortOptions struct {
	By   string
	Desc bool
}

// SearchQuery is a validated itinerary search
type SearchQuery struct {
	Origin       LocationRef
	Destination  LocationRef
	Day          time.Time
	MaxTransfers int
	Filters      JourneyFilters
	Sort         SortOptions
	Page         int
	PageSize     int
}

// FlexibleQuery is a validated flexible-date search
type FlexibleQuery struct {
	Origin       LocationRef
	Destination  LocationRef
	Month        time.Time // first day of the month
	MaxTransfers int
	Filters      JourneyFilters
}

// Layover is the wait between two consecutive segments
type Layover struct {
	AirportID       uuid.UUID `json:"airport_id"`
	AirportCode     string    `json:"airport_code"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Journey is an origin-to-destination itinerary. It is derived per request
// and never persisted.
type Journey struct {
	Segments        []FlightSegment `json:"segments"`
	Layovers        []Layover       `json:"layovers"`
	Stops           int             `json:"stops"`
	IsDirect        bool            `json:"is_direct"`
	DepartureTime   time.Time       `json:"departure_time"`
	ArrivalTime     time.Time       `json:"arrival_time"`
	DurationMinutes int             `json:"duration_minutes"`
	PriceEconomy    float64         `json:"price_economy"`
	PriceBusiness   float64         `json:"price_business"`
	PriceFirst      float64         `json:"price_first"`
}

// FlightIDs returns the ordered flight ids of the journey
func (j *Journey) FlightIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(j.Segments))
	for i, s := range j.Segments {
		ids[i] = s.FlightID
	}
	return ids
}

// ItinerarySearchResponse is returned by the itinerary search
type ItinerarySearchResponse struct {
	Journeys     []Journey `json:"journeys"`
	TotalResults int       `json:"total_results"`
	TotalPages   int       `json:"total_pages"`
	Page         int       `json:"page"`
	PageSize     int       `json:"page_size"`
	SearchTimeMs int64     `json:"search_time_ms"`
	CacheHit     bool      `json:"cache_hit"`
}

// FlexibleSearchResponse holds the lowest economy price per day of a month,
// nil where no journey exists or the day is already past.
type FlexibleSearchResponse struct {
	Month  string     `json:"month"`
	Prices []*float64 `json:"prices"`
}

// ParseClock parses "HH:MM" into minutes after midnight
func ParseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// ToLocations validates the location params
func (p *LocationParams) ToLocations() (LocationRef, LocationRef, error) {
	depID, err := uuid.Parse(p.DepartureID)
	if err != nil {
		return LocationRef{}, LocationRef{}, NewValidationError("departure_id", "departure_id must be a valid UUID")
	}
	arrID, err := uuid.Parse(p.ArrivalID)
	if err != nil {
		return LocationRef{}, LocationRef{}, NewValidationError("arrival_id", "arrival_id must be a valid UUID")
	}

	origin := LocationRef{ID: depID, Type: LocationType(p.DepartureType)}
	dest := LocationRef{ID: arrID, Type: LocationType(p.ArrivalType)}
	if origin == dest {
		return LocationRef{}, LocationRef{}, NewValidationError("arrival_id", "origin and destination cannot be the same")
	}
	return origin, dest, nil
}

// ToFilters validates the filter params; maxTransfers falls back to defaultTransfers
func (p *FilterParams) ToFilters(defaultTransfers, transferLimit int) (JourneyFilters, int, error) {
	var filters JourneyFilters

	maxTransfers := defaultTransfers
	if p.MaxTransfers != nil {
		maxTransfers = *p.MaxTransfers
	}
	if maxTransfers < 0 || maxTransfers > transferLimit {
		return filters, 0, NewValidationError("max_transfers", "max_transfers is out of range")
	}

	if p.AirlineID != "" {
		id, err := uuid.Parse(p.AirlineID)
		if err != nil {
			return filters, 0, NewValidationError("airline_id", "airline_id must be a valid UUID")
		}
		filters.AirlineID = &id
	}

	filters.MaxEconomyPrice = p.PriceMax

	if p.DepartureTimeMin != "" || p.DepartureTimeMax != "" {
		window := TimeWindow{FromMinute: 0, ToMinute: 24*60 - 1}
		if p.DepartureTimeMin != "" {
			m, ok := ParseClock(p.DepartureTimeMin)
			if !ok {
				return filters, 0, NewValidationError("departure_time_min", "departure_time_min must be HH:MM")
			}
			window.FromMinute = m
		}
		if p.DepartureTimeMax != "" {
			m, ok := ParseClock(p.DepartureTimeMax)
			if !ok {
				return filters, 0, NewValidationError("departure_time_max", "departure_time_max must be HH:MM")
			}
			window.ToMinute = m
		}
		if window.FromMinute > window.ToMinute {
			return filters, 0, NewValidationError("departure_time_min", "departure_time_min must not be after departure_time_max")
		}
		filters.DepartureWindow = &window
	}

	return filters, maxTransfers, nil
}
