package services

import (
	"context"
	"testing"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minConnection = 120 * time.Minute

// londonParisFlights: two direct LHR-CDG flights, one valid FRA connection
// and one connection that misses the minimum transfer time
func londonParisFlights() (direct1, direct2, toFRA, fraOK, fraTight models.FlightSegment) {
	direct1 = segment("AF1001", lhr, cdg, at(testDay, 8, 0), at(testDay, 9, 15), 120, airlineA)
	direct2 = segment("AF1002", lhr, cdg, at(testDay, 17, 0), at(testDay, 18, 15), 150, airlineA)
	toFRA = segment("LH2001", lhr, fra, at(testDay, 7, 0), at(testDay, 9, 0), 80, airlineB)
	fraOK = segment("LH2002", fra, cdg, at(testDay, 11, 30), at(testDay, 12, 45), 60, airlineB)
	fraTight = segment("LH2003", fra, cdg, at(testDay, 10, 30), at(testDay, 11, 45), 40, airlineB)
	return
}

func TestItineraryEngine_Search(t *testing.T) {
	direct1, direct2, toFRA, fraOK, fraTight := londonParisFlights()
	catalog := newFakeCatalog(direct1, direct2, toFRA, fraOK, fraTight)
	engine := NewItineraryEngine(catalog, minConnection, 4)
	ctx := context.Background()

	t.Run("Directs And One Stop", func(t *testing.T) {
		paths, err := engine.Search(ctx, []uuid.UUID{lhr.ID}, []uuid.UUID{cdg.ID}, testDay, 1, models.DepartureFilter{})
		require.NoError(t, err)
		require.Len(t, paths, 3)

		var direct, oneStop int
		for _, p := range paths {
			j := BuildJourney(p)
			switch j.Stops {
			case 0:
				direct++
			case 1:
				oneStop++
				require.Len(t, j.Layovers, 1)
				assert.Equal(t, fra.ID, j.Layovers[0].AirportID)
				assert.Equal(t, 150, j.Layovers[0].DurationMinutes)
				assert.Equal(t, toFRA.FlightID, p[0].FlightID)
				assert.Equal(t, fraOK.FlightID, p[1].FlightID)
			}
		}
		assert.Equal(t, 2, direct)
		assert.Equal(t, 1, oneStop)
	})

	t.Run("Zero Transfers Only Returns Single Segments", func(t *testing.T) {
		paths, err := engine.Search(ctx, []uuid.UUID{lhr.ID}, []uuid.UUID{cdg.ID}, testDay, 0, models.DepartureFilter{})
		require.NoError(t, err)
		require.Len(t, paths, 2)
		for _, p := range paths {
			assert.Len(t, p, 1)
		}
	})

	t.Run("Connections Respect Minimum Transfer Time", func(t *testing.T) {
		paths, err := engine.Search(ctx, []uuid.UUID{lhr.ID}, []uuid.UUID{cdg.ID}, testDay, 2, models.DepartureFilter{})
		require.NoError(t, err)
		for _, p := range paths {
			for i := 1; i < len(p); i++ {
				assert.True(t, p[i].DepartureTime.After(p[i-1].DepartureTime))
				assert.GreaterOrEqual(t, p[i].DepartureTime.Sub(p[i-1].ArrivalTime), minConnection)
			}
			for _, s := range p {
				assert.NotEqual(t, fraTight.FlightID, s.FlightID)
			}
		}
	})

	t.Run("Repeated Search Is Identical", func(t *testing.T) {
		first, err := engine.Search(ctx, []uuid.UUID{lhr.ID}, []uuid.UUID{cdg.ID}, testDay, 1, models.DepartureFilter{})
		require.NoError(t, err)
		second, err := engine.Search(ctx, []uuid.UUID{lhr.ID}, []uuid.UUID{cdg.ID}, testDay, 1, models.DepartureFilter{})
		require.NoError(t, err)

		keys := func(paths [][]models.FlightSegment) map[string]bool {
			out := map[string]bool{}
			for _, p := range paths {
				out[pathKey(p)] = true
			}
			return out
		}
		assert.Equal(t, keys(first), keys(second))
	})

	t.Run("Duplicate Origins Do Not Duplicate Journeys", func(t *testing.T) {
		paths, err := engine.Search(ctx, []uuid.UUID{lhr.ID, lhr.ID}, []uuid.UUID{cdg.ID}, testDay, 1, models.DepartureFilter{})
		require.NoError(t, err)
		assert.Len(t, paths, 3)
	})

	t.Run("Airline Filter Applies At Query Time", func(t *testing.T) {
		paths, err := engine.Search(ctx, []uuid.UUID{lhr.ID}, []uuid.UUID{cdg.ID}, testDay, 1,
			models.DepartureFilter{AirlineID: &airlineB})
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.Len(t, paths[0], 2)
	})

	t.Run("Other Day Has No Journeys", func(t *testing.T) {
		paths, err := engine.Search(ctx, []uuid.UUID{lhr.ID}, []uuid.UUID{cdg.ID}, testDay.AddDate(0, 0, 1), 1, models.DepartureFilter{})
		require.NoError(t, err)
		assert.Empty(t, paths)
	})
}

func TestItineraryEngine_SameDayOnly(t *testing.T) {
	// The connection leaves FRA after midnight, so it is not part of the day
	late := segment("LH3001", lhr, fra, at(testDay, 21, 0), at(testDay, 23, 0), 90, airlineB)
	nextDay := testDay.AddDate(0, 0, 1)
	overnight := segment("LH3002", fra, cdg, at(nextDay, 6, 0), at(nextDay, 7, 15), 70, airlineB)
	// Departs before midnight and arrives after it: still same-day
	redEye := segment("AF3003", lhr, cdg, at(testDay, 23, 30), at(nextDay, 0, 45), 60, airlineA)

	engine := NewItineraryEngine(newFakeCatalog(late, overnight, redEye), minConnection, 2)
	paths, err := engine.Search(context.Background(), []uuid.UUID{lhr.ID}, []uuid.UUID{cdg.ID}, testDay, 2, models.DepartureFilter{})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, redEye.FlightID, paths[0][0].FlightID)
}

func TestItineraryEngine_SharesQueries(t *testing.T) {
	direct1, direct2, toFRA, fraOK, _ := londonParisFlights()
	catalog := newFakeCatalog(direct1, direct2, toFRA, fraOK)
	engine := NewItineraryEngine(catalog, minConnection, 4)

	_, err := engine.Search(context.Background(), []uuid.UUID{lhr.ID, lhr.ID}, []uuid.UUID{cdg.ID}, testDay, 0, models.DepartureFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.calls)
}

func TestItineraryEngine_CatalogError(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.err = errCatalogDown
	engine := NewItineraryEngine(catalog, minConnection, 2)

	paths, err := engine.Search(context.Background(), []uuid.UUID{lhr.ID}, []uuid.UUID{cdg.ID}, testDay, 1, models.DepartureFilter{})
	assert.ErrorIs(t, err, errCatalogDown)
	assert.Nil(t, paths)
}
