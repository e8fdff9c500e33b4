package services

import (
	"sort"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/google/uuid"
)

// BuildJourney turns a flight path into a priced Journey
func BuildJourney(path []models.FlightSegment) models.Journey {
	journey := models.Journey{
		Segments: path,
		Layovers: []models.Layover{},
		Stops:    len(path) - 1,
		IsDirect: len(path) == 1,
	}
	if len(path) == 0 {
		return journey
	}

	for i, s := range path {
		journey.PriceEconomy += s.PriceEconomy
		journey.PriceBusiness += s.PriceBusiness
		journey.PriceFirst += s.PriceFirst

		if i > 0 {
			prev := path[i-1]
			journey.Layovers = append(journey.Layovers, models.Layover{
				AirportID:       prev.ArrivalAirportID,
				AirportCode:     prev.ArrivalAirportCode,
				DurationMinutes: int(s.DepartureTime.Sub(prev.ArrivalTime).Minutes()),
			})
		}
	}

	journey.DepartureTime = path[0].DepartureTime
	journey.ArrivalTime = path[len(path)-1].ArrivalTime
	journey.DurationMinutes = int(journey.ArrivalTime.Sub(journey.DepartureTime).Minutes())
	return journey
}

// filterJourneys keeps the journeys that pass every filter
func filterJourneys(journeys []models.Journey, filters models.JourneyFilters) []models.Journey {
	filtered := make([]models.Journey, 0, len(journeys))

	for _, j := range journeys {
		if filters.DepartureWindow != nil && !filters.DepartureWindow.Contains(j.DepartureTime) {
			continue
		}

		if filters.MaxEconomyPrice != nil && j.PriceEconomy > *filters.MaxEconomyPrice {
			continue
		}

		if len(filters.ExcludeFlightIDs) > 0 && reusesFlight(j, filters.ExcludeFlightIDs) {
			continue
		}

		filtered = append(filtered, j)
	}

	return filtered
}

func reusesFlight(j models.Journey, excluded map[uuid.UUID]struct{}) bool {
	for _, s := range j.Segments {
		if _, ok := excluded[s.FlightID]; ok {
			return true
		}
	}
	return false
}

// sortJourneys orders journeys in place. Ties keep the earliest departure
// first so repeated searches page identically.
func sortJourneys(journeys []models.Journey, opts models.SortOptions) {
	var key func(j *models.Journey) float64
	switch opts.By {
	case models.SortByDuration:
		key = func(j *models.Journey) float64 { return float64(j.DurationMinutes) }
	case models.SortByStops:
		key = func(j *models.Journey) float64 { return float64(j.Stops) }
	default:
		key = func(j *models.Journey) float64 { return j.PriceEconomy }
	}

	sort.SliceStable(journeys, func(a, b int) bool {
		ka, kb := key(&journeys[a]), key(&journeys[b])
		if ka != kb {
			if opts.Desc {
				return ka > kb
			}
			return ka < kb
		}
		if !journeys[a].DepartureTime.Equal(journeys[b].DepartureTime) {
			return journeys[a].DepartureTime.Before(journeys[b].DepartureTime)
		}
		return pathKey(journeys[a].Segments) < pathKey(journeys[b].Segments)
	})
}

// paginate returns page (1-based) of the journeys and the number of pages
func paginate(journeys []models.Journey, page, pageSize int) ([]models.Journey, int) {
	if pageSize <= 0 {
		pageSize = len(journeys)
	}
	if pageSize == 0 {
		return []models.Journey{}, 0
	}

	totalPages := (len(journeys) + pageSize - 1) / pageSize
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	if start >= len(journeys) {
		return []models.Journey{}, totalPages
	}
	end := start + pageSize
	if end > len(journeys) {
		end = len(journeys)
	}
	return journeys[start:end], totalPages
}

// lowestEconomyPrice returns the cheapest economy price, nil when empty
func lowestEconomyPrice(journeys []models.Journey) *float64 {
	var lowest *float64
	for i := range journeys {
		p := journeys[i].PriceEconomy
		if lowest == nil || p < *lowest {
			lowest = &p
		}
	}
	return lowest
}
