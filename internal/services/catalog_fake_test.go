package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	lhr = models.Airport{ID: uuid.MustParse("00000000-0000-0000-0000-00000000a001"), IATACode: "LHR"}
	lgw = models.Airport{ID: uuid.MustParse("00000000-0000-0000-0000-00000000a002"), IATACode: "LGW"}
	cdg = models.Airport{ID: uuid.MustParse("00000000-0000-0000-0000-00000000a003"), IATACode: "CDG"}
	fra = models.Airport{ID: uuid.MustParse("00000000-0000-0000-0000-00000000a004"), IATACode: "FRA"}

	londonCity = uuid.MustParse("00000000-0000-0000-0000-0000000c0001")

	airlineA = uuid.MustParse("00000000-0000-0000-0000-0000000b0001")
	airlineB = uuid.MustParse("00000000-0000-0000-0000-0000000b0002")

	// testDay is a Tuesday
	testDay = time.Date(2030, time.June, 4, 0, 0, 0, 0, time.UTC)
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

func segment(number string, from, to models.Airport, dep, arr time.Time, economy float64, airline uuid.UUID) models.FlightSegment {
	return models.FlightSegment{
		FlightID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte(number+dep.String())),
		FlightNumber:         number,
		AirlineID:            airline,
		DepartureAirportID:   from.ID,
		DepartureAirportCode: from.IATACode,
		ArrivalAirportID:     to.ID,
		ArrivalAirportCode:   to.IATACode,
		DepartureTime:        dep,
		ArrivalTime:          arr,
		PriceEconomy:         economy,
		PriceBusiness:        economy * 3,
		PriceFirst:           economy * 6,
	}
}

// fakeCatalog serves departures from an in-memory list the way the SQL
// catalog does: [from, to) window, airline and price filters, earliest first
type fakeCatalog struct {
	mu       sync.Mutex
	flights  []models.FlightSegment
	airports map[models.LocationRef][]models.Airport
	calls    int
	err      error
}

func newFakeCatalog(flights ...models.FlightSegment) *fakeCatalog {
	c := &fakeCatalog{
		flights:  flights,
		airports: map[models.LocationRef][]models.Airport{},
	}
	for _, a := range []models.Airport{lhr, lgw, cdg, fra} {
		c.airports[models.LocationRef{ID: a.ID, Type: models.LocationAirport}] = []models.Airport{a}
	}
	c.airports[models.LocationRef{ID: londonCity, Type: models.LocationCity}] = []models.Airport{lgw, lhr}
	return c
}

func (c *fakeCatalog) FindDepartures(_ context.Context, airportID uuid.UUID, from, to time.Time, filter models.DepartureFilter) ([]models.FlightSegment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}

	var out []models.FlightSegment
	for _, f := range c.flights {
		if f.DepartureAirportID != airportID || f.DepartureTime.Before(from) || !f.DepartureTime.Before(to) {
			continue
		}
		if filter.AirlineID != nil && f.AirlineID != *filter.AirlineID {
			continue
		}
		if filter.MaxEconomyPrice != nil && f.PriceEconomy > *filter.MaxEconomyPrice {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, nil
}

func (c *fakeCatalog) ResolveAirports(_ context.Context, loc models.LocationRef) ([]models.Airport, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.airports[loc], nil
}

type fakeBookedFlights struct {
	ids []uuid.UUID
	err error
}

func (f fakeBookedFlights) BookedFlightIDsByUser(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return f.ids, f.err
}

// memoryCache is a map-backed cache.Cache
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	m.sets++
	return nil
}

func (m *memoryCache) Ping(context.Context) error { return nil }

func (m *memoryCache) Close() error { return nil }

var errCatalogDown = errors.New("catalog unavailable")
