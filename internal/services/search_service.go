package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/config"
	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/azvaska/flight-gorilla-sub000/pkg/cache"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FlightCatalog is the read side of the flight catalog used by the search
type FlightCatalog interface {
	DepartureFinder
	ResolveAirports(ctx context.Context, loc models.LocationRef) ([]models.Airport, error)
}

// BookedFlightLister lists the flights a user already holds a booking on
type BookedFlightLister interface {
	BookedFlightIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// SearchService handles business logic for itinerary search
type SearchService struct {
	catalog  FlightCatalog
	bookings BookedFlightLister
	cache    cache.Cache
	engine   *ItineraryEngine
	cfg      config.SearchConfig
	now      func() time.Time
	logger   *logrus.Logger
}

// SearchOption customises a SearchService
type SearchOption func(*SearchService)

// WithSearchClock replaces the clock used to decide which days are past
func WithSearchClock(now func() time.Time) SearchOption {
	return func(s *SearchService) { s.now = now }
}

// NewSearchService creates a new search service
func NewSearchService(
	catalog FlightCatalog,
	bookings BookedFlightLister,
	c cache.Cache,
	cfg config.SearchConfig,
	logger *logrus.Logger,
	opts ...SearchOption,
) *SearchService {
	if c == nil {
		c = cache.NoopCache{}
	}
	s := &SearchService{
		catalog:  catalog,
		bookings: bookings,
		cache:    c,
		engine:   NewItineraryEngine(catalog, cfg.MinConnection, cfg.Concurrency),
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SearchService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildQuery validates an itinerary search request
func (s *SearchService) BuildQuery(req *models.ItinerarySearchRequest) (*models.SearchQuery, error) {
	origin, destination, err := req.ToLocations()
	if err != nil {
		return nil, err
	}

	filters, maxTransfers, err := req.ToFilters(s.cfg.DefaultMaxTransfers, s.cfg.MaxTransfersLimit)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return nil, models.NewValidationError("date", "date must be YYYY-MM-DD")
	}
	if day.Before(s.today()) {
		return nil, models.NewValidationError("date", "date cannot be in the past")
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = models.SortByPrice
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.Limit
	if pageSize < 1 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	return &models.SearchQuery{
		Origin:       origin,
		Destination:  destination,
		Day:          day,
		MaxTransfers: maxTransfers,
		Filters:      filters,
		Sort:         models.SortOptions{By: sortBy, Desc: req.Order == "desc"},
		Page:         page,
		PageSize:     pageSize,
	}, nil
}

// BuildFlexibleQuery validates a flexible-date search request
func (s *SearchService) BuildFlexibleQuery(req *models.FlexibleSearchRequest) (*models.FlexibleQuery, error) {
	origin, destination, err := req.ToLocations()
	if err != nil {
		return nil, err
	}

	filters, maxTransfers, err := req.ToFilters(s.cfg.DefaultMaxTransfers, s.cfg.MaxTransfersLimit)
	if err != nil {
		return nil, err
	}

	month, err := time.ParseInLocation("2006-01", req.Month, time.UTC)
	if err != nil {
		return nil, models.NewValidationError("month", "month must be YYYY-MM")
	}

	return &models.FlexibleQuery{
		Origin:       origin,
		Destination:  destination,
		Month:        month,
		MaxTransfers: maxTransfers,
		Filters:      filters,
	}, nil
}

// SearchItineraries finds, filters, sorts and paginates journeys for one day
func (s *SearchService) SearchItineraries(
	ctx context.Context,
	q *models.SearchQuery,
	userID *uuid.UUID,
) (*models.ItinerarySearchResponse, error) {
	startTime := time.Now()

	s.logger.WithFields(logrus.Fields{
		"origin":        q.Origin.ID,
		"destination":   q.Destination.ID,
		"day":           q.Day.Format("2006-01-02"),
		"max_transfers": q.MaxTransfers,
		"user_id":       userID,
	}).Info("Processing itinerary search")

	// Step 1: Resolve both ends to airports
	origins, destinations, err := s.resolveEnds(ctx, q.Origin, q.Destination)
	if err != nil {
		return nil, err
	}

	// Step 2: Generate journeys, from cache when possible
	journeys, cacheHit, err := s.journeysForDay(ctx, origins, destinations, q.Day, q.MaxTransfers, q.Filters)
	if err != nil {
		return nil, err
	}

	// Step 3: Filter, excluding flights the caller already booked
	filters := q.Filters
	if err := s.excludeBookedFlights(ctx, userID, &filters); err != nil {
		return nil, err
	}
	journeys = filterJourneys(journeys, filters)

	// Step 4: Sort and paginate
	sortJourneys(journeys, q.Sort)
	total := len(journeys)
	page, totalPages := paginate(journeys, q.Page, q.PageSize)

	elapsed := time.Since(startTime)
	s.logger.WithFields(logrus.Fields{
		"results":   total,
		"cache_hit": cacheHit,
		"duration":  elapsed.Milliseconds(),
	}).Info("Itinerary search completed")

	return &models.ItinerarySearchResponse{
		Journeys:     page,
		TotalResults: total,
		TotalPages:   totalPages,
		Page:         q.Page,
		PageSize:     q.PageSize,
		SearchTimeMs: elapsed.Milliseconds(),
		CacheHit:     cacheHit,
	}, nil
}

// SearchFlexibleDates returns the lowest economy price for every day of a
// month. Days before today, and days without any journey, are nil.
func (s *SearchService) SearchFlexibleDates(
	ctx context.Context,
	q *models.FlexibleQuery,
	userID *uuid.UUID,
) (*models.FlexibleSearchResponse, error) {
	origins, destinations, err := s.resolveEnds(ctx, q.Origin, q.Destination)
	if err != nil {
		return nil, err
	}

	filters := q.Filters
	if err := s.excludeBookedFlights(ctx, userID, &filters); err != nil {
		return nil, err
	}

	first := time.Date(q.Month.Year(), q.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	prices := make([]*float64, days)
	today := s.today()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i)
		if day.Before(today) {
			continue
		}
		i := i
		g.Go(func() error {
			journeys, _, err := s.journeysForDay(gctx, origins, destinations, day, q.MaxTransfers, filters)
			if err != nil {
				return err
			}
			prices[i] = lowestEconomyPrice(filterJourneys(journeys, filters))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"origin":      q.Origin.ID,
		"destination": q.Destination.ID,
		"month":       first.Format("2006-01"),
	}).Info("Flexible date search completed")

	return &models.FlexibleSearchResponse{
		Month:  first.Format("2006-01"),
		Prices: prices,
	}, nil
}

func (s *SearchService) resolveEnds(ctx context.Context, origin, destination models.LocationRef) ([]uuid.UUID, []uuid.UUID, error) {
	origins, err := s.resolve(ctx, origin, "departure_id")
	if err != nil {
		return nil, nil, err
	}
	destinations, err := s.resolve(ctx, destination, "arrival_id")
	if err != nil {
		return nil, nil, err
	}
	return origins, destinations, nil
}

func (s *SearchService) resolve(ctx context.Context, loc models.LocationRef, field string) ([]uuid.UUID, error) {
	airports, err := s.catalog.ResolveAirports(ctx, loc)
	if err != nil {
		s.logger.WithError(err).Error("Error resolving airports")
		return nil, fmt.Errorf("error resolving airports: %w", err)
	}
	if len(airports) == 0 {
		return nil, models.NewValidationError(field, fmt.Sprintf("no airport matches %s %s", loc.Type, loc.ID))
	}

	ids := make([]uuid.UUID, len(airports))
	for i, a := range airports {
		ids[i] = a.ID
	}
	return ids, nil
}

func (s *SearchService) excludeBookedFlights(ctx context.Context, userID *uuid.UUID, filters *models.JourneyFilters) error {
	if userID == nil {
		return nil
	}
	booked, err := s.bookings.BookedFlightIDsByUser(ctx, *userID)
	if err != nil {
		s.logger.WithError(err).Error("Error listing booked flights")
		return fmt.Errorf("error listing booked flights: %w", err)
	}
	if len(booked) == 0 {
		return nil
	}
	filters.ExcludeFlightIDs = make(map[uuid.UUID]struct{}, len(booked))
	for _, id := range booked {
		filters.ExcludeFlightIDs[id] = struct{}{}
	}
	return nil
}

// journeysForDay returns every journey of the day before post-filtering.
// Results are cached per query-time filter; a cache failure only costs a
// fresh search.
func (s *SearchService) journeysForDay(
	ctx context.Context,
	origins, destinations []uuid.UUID,
	day time.Time,
	maxTransfers int,
	filters models.JourneyFilters,
) ([]models.Journey, bool, error) {
	key := journeyCacheKey(origins, destinations, day, maxTransfers, filters.DepartureFilter())

	var cached []models.Journey
	found, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).Warn("Search cache read failed")
	}
	if found {
		return cached, true, nil
	}

	paths, err := s.engine.Search(ctx, origins, destinations, day, maxTransfers, filters.DepartureFilter())
	if err != nil {
		s.logger.WithError(err).Error("Error expanding flight graph")
		return nil, false, fmt.Errorf("error searching flights: %w", err)
	}

	journeys := make([]models.Journey, len(paths))
	for i, path := range paths {
		journeys[i] = BuildJourney(path)
	}

	if s.cfg.CacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, key, journeys, s.cfg.CacheTTL); err != nil {
			s.logger.WithError(err).Warn("Search cache write failed")
		}
	}
	return journeys, false, nil
}

func journeyCacheKey(origins, destinations []uuid.UUID, day time.Time, maxTransfers int, filter models.DepartureFilter) string {
	var b strings.Builder
	b.WriteString("journeys:")
	b.WriteString(day.Format("2006-01-02"))
	fmt.Fprintf(&b, ":%d:", maxTransfers)
	for _, id := range origins {
		b.WriteString(id.String())
		b.WriteByte(',')
	}
	b.WriteByte('>')
	for _, id := range destinations {
		b.WriteString(id.String())
		b.WriteByte(',')
	}
	if filter.AirlineID != nil {
		b.WriteString(":airline=" + filter.AirlineID.String())
	}
	if filter.MaxEconomyPrice != nil {
		fmt.Fprintf(&b, ":price<=%.2f", *filter.MaxEconomyPrice)
	}
	return b.String()
}
