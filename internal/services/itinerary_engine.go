package services

import (
	"context"
	"strings"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DepartureFinder lists bookable departures from an airport in [from, to)
type DepartureFinder interface {
	FindDepartures(ctx context.Context, airportID uuid.UUID, from, to time.Time, filter models.DepartureFilter) ([]models.FlightSegment, error)
}

// ItineraryEngine expands a time-expanded flight graph round by round.
// Round k extends every path of k segments by one flight, so a journey with
// k transfers is found in round k.
type ItineraryEngine struct {
	finder        DepartureFinder
	minConnection time.Duration
	concurrency   int
}

// NewItineraryEngine creates a new engine
func NewItineraryEngine(finder DepartureFinder, minConnection time.Duration, concurrency int) *ItineraryEngine {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ItineraryEngine{
		finder:        finder,
		minConnection: minConnection,
		concurrency:   concurrency,
	}
}

type frontierState struct {
	airportID uuid.UUID
	earliest  time.Time
	path      []models.FlightSegment
}

// usableFrom is the earliest departure a state may take
func (s frontierState) usableFrom(minConnection time.Duration) time.Time {
	if len(s.path) == 0 {
		return s.earliest
	}
	return s.earliest.Add(minConnection)
}

type departureQuery struct {
	airportID uuid.UUID
	from      time.Time
}

// Search returns every distinct flight sequence from an origin to a
// destination departing within day's calendar day, with at most
// maxTransfers transfers. Paths are returned in discovery order.
func (e *ItineraryEngine) Search(
	ctx context.Context,
	origins, destinations []uuid.UUID,
	day time.Time,
	maxTransfers int,
	filter models.DepartureFilter,
) ([][]models.FlightSegment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	isDestination := make(map[uuid.UUID]struct{}, len(destinations))
	for _, id := range destinations {
		isDestination[id] = struct{}{}
	}

	frontier := make([]frontierState, 0, len(origins))
	for _, id := range origins {
		frontier = append(frontier, frontierState{airportID: id, earliest: dayStart})
	}

	seen := make(map[string]struct{})
	journeys := [][]models.FlightSegment{}

	for round := 0; round <= maxTransfers && len(frontier) > 0; round++ {
		departures, err := e.expand(ctx, frontier, dayEnd, filter)
		if err != nil {
			return nil, err
		}

		var next []frontierState
		for i, state := range frontier {
			for _, flight := range departures[i] {
				path := make([]models.FlightSegment, len(state.path), len(state.path)+1)
				copy(path, state.path)
				path = append(path, flight)

				if _, ok := isDestination[flight.ArrivalAirportID]; ok && len(path) == round+1 {
					key := pathKey(path)
					if _, dup := seen[key]; !dup {
						seen[key] = struct{}{}
						journeys = append(journeys, path)
					}
				}

				if round < maxTransfers {
					next = append(next, frontierState{
						airportID: flight.ArrivalAirportID,
						earliest:  flight.ArrivalTime,
						path:      path,
					})
				}
			}
		}
		frontier = next
	}

	return journeys, nil
}

// expand queries departures for every frontier state. States sharing an
// airport and earliest time share one query; queries run concurrently up
// to the engine's limit. The result is indexed like frontier.
func (e *ItineraryEngine) expand(
	ctx context.Context,
	frontier []frontierState,
	dayEnd time.Time,
	filter models.DepartureFilter,
) ([][]models.FlightSegment, error) {
	queryIndex := make(map[departureQuery]int)
	var queries []departureQuery
	stateQuery := make([]int, len(frontier))

	for i, state := range frontier {
		q := departureQuery{airportID: state.airportID, from: state.usableFrom(e.minConnection)}
		if !q.from.Before(dayEnd) {
			stateQuery[i] = -1
			continue
		}
		idx, ok := queryIndex[q]
		if !ok {
			idx = len(queries)
			queryIndex[q] = idx
			queries = append(queries, q)
		}
		stateQuery[i] = idx
	}

	results := make([][]models.FlightSegment, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			segments, err := e.finder.FindDepartures(gctx, q.airportID, q.from, dayEnd, filter)
			if err != nil {
				return err
			}
			results[i] = segments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	departures := make([][]models.FlightSegment, len(frontier))
	for i, idx := range stateQuery {
		if idx >= 0 {
			departures[i] = results[idx]
		}
	}
	return departures, nil
}

func pathKey(path []models.FlightSegment) string {
	ids := make([]string, len(path))
	for i, s := range path {
		ids[i] = s.FlightID.String()
	}
	return strings.Join(ids, ">")
}
