package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/config"
	"github.com/azvaska/flight-gorilla-sub000/internal/database"
	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/azvaska/flight-gorilla-sub000/pkg/events"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const bookingCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// BookingService turns a seat session into a booking. Every write of one
// booking happens in a single serializable transaction; on any failure the
// session is left untouched so the caller can retry.
type BookingService struct {
	db        *sqlx.DB
	tx        *database.TxRunner
	bookings  *database.BookingRepository
	sessions  *database.SeatSessionRepository
	flights   *database.FlightRepository
	capacity  *CapacityService
	publisher events.Publisher
	cfg       config.BookingConfig
	newCode   func(length int) (string, error)
	now       func() time.Time
	logger    *logrus.Logger
}

// BookingOption customises a BookingService
type BookingOption func(*BookingService)

// WithBookingClock replaces the clock used for the session lease check
func WithBookingClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

// WithCodeGenerator replaces the random booking code source
func WithCodeGenerator(gen func(length int) (string, error)) BookingOption {
	return func(s *BookingService) { s.newCode = gen }
}

// NewBookingService creates a new booking service
func NewBookingService(
	db *sqlx.DB,
	bookings *database.BookingRepository,
	sessions *database.SeatSessionRepository,
	flights *database.FlightRepository,
	capacity *CapacityService,
	publisher events.Publisher,
	cfg config.BookingConfig,
	logger *logrus.Logger,
	opts ...BookingOption,
) *BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	s := &BookingService{
		db:        db,
		tx:        database.NewTxRunner(db),
		bookings:  bookings,
		sessions:  sessions,
		flights:   flights,
		capacity:  capacity,
		publisher: publisher,
		cfg:       cfg,
		newCode:   randomBookingCode,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking books the seats held by a session on the requested flights
func (s *BookingService) CreateBooking(
	ctx context.Context,
	userID uuid.UUID,
	req *models.CreateBookingRequest,
) (*models.CreateBookingResponse, error) {
	if err := validateBookingRequest(req); err != nil {
		return nil, err
	}

	var booking models.Booking
	var flightIDs []uuid.UUID

	err := s.tx.Serializable(ctx, func(tx *sqlx.Tx) error {
		now := s.now()

		// Step 1: Session must exist, belong to the caller and still be writable
		session, err := s.sessions.GetByID(ctx, tx, req.SessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return models.NewNotFoundError("seat session not found")
		}
		if session.UserID != userID {
			return models.NewForbiddenError("seat session belongs to another user")
		}
		if !session.WritableAt(now) {
			return models.NewExpiredError("seat session has expired")
		}

		// Step 2: Every flight must exist and have a seat in the session
		flightIDs = append(append([]uuid.UUID{}, req.DepartureFlightIDs...), req.ReturnFlightIDs...)
		flights, err := s.flights.GetFlightsByIDs(ctx, tx, flightIDs)
		if err != nil {
			return err
		}
		for _, id := range flightIDs {
			if _, ok := flights[id]; !ok {
				return models.NewValidationError("departure_flights", fmt.Sprintf("flight %s not found", id))
			}
			if len(session.ClaimsForFlight(id)) == 0 {
				return models.NewValidationError("departure_flights", fmt.Sprintf("no seat selected for flight %s", id))
			}
		}

		// Step 3: Extras must exist and belong to a booked flight
		extras, err := s.validateExtras(ctx, tx, req.Extras, flights)
		if err != nil {
			return err
		}

		// Step 4: Pick an unused booking code
		code, err := s.generateCode(ctx, tx)
		if err != nil {
			return err
		}

		// Step 5: Booking row
		booking = models.Booking{
			ID:               uuid.New(),
			UserID:           userID,
			BookingCode:      code,
			HasInsurance:     req.HasInsurance,
			PaymentConfirmed: true,
			CreatedAt:        now,
		}
		if err := s.bookings.Create(ctx, tx, &booking); err != nil {
			return err
		}

		// Step 6: Flight line items, then capacity of each flight
		legs := []struct {
			direction models.FlightDirection
			ids       []uuid.UUID
		}{
			{models.DirectionDeparture, req.DepartureFlightIDs},
			{models.DirectionReturn, req.ReturnFlightIDs},
		}
		for _, leg := range legs {
			for position, flightID := range leg.ids {
				if err := s.bookFlight(ctx, tx, booking.ID, session, flights[flightID], leg.direction, position); err != nil {
					return err
				}
				if _, err := s.capacity.Recompute(ctx, tx, flightID); err != nil {
					return err
				}
			}
		}

		// Step 7: Extras
		for _, sel := range req.Extras {
			extra := extras[sel.ExtraID]
			if err := s.bookings.AddExtra(ctx, tx, &models.BookedExtra{
				ID:            uuid.New(),
				BookingID:     booking.ID,
				FlightExtraID: extra.ID,
				FlightID:      extra.FlightID,
				Name:          extra.Name,
				Quantity:      sel.Quantity,
				Price:         extra.UnitPrice * float64(sel.Quantity),
			}); err != nil {
				return err
			}
		}

		// Step 8: The session is consumed
		return s.sessions.Delete(ctx, tx, session.ID)
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"session_id": req.SessionID,
			"constraint": database.ConstraintName(err),
		}).Warn("Booking failed")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"booking_code": booking.BookingCode,
		"user_id":      userID,
		"flights":      len(flightIDs),
	}).Info("Booking created")

	s.publish(ctx, events.TypeBookingCreated, events.BookingPayload{
		BookingID:   booking.ID,
		BookingCode: booking.BookingCode,
		UserID:      userID,
		FlightIDs:   flightIDs,
	})

	return &models.CreateBookingResponse{
		BookingID:   booking.ID,
		BookingCode: booking.BookingCode,
	}, nil
}

func (s *BookingService) bookFlight(
	ctx context.Context,
	tx *sqlx.Tx,
	bookingID uuid.UUID,
	session *models.SeatSession,
	flight *models.Flight,
	direction models.FlightDirection,
	position int,
) error {
	for _, claim := range session.ClaimsForFlight(flight.ID) {
		price, ok := flight.PriceFor(claim.ClassType)
		if !ok {
			return models.NewValidationError("seat_number",
				fmt.Sprintf("seat %s has unknown class %q", claim.SeatNumber, claim.ClassType))
		}
		if err := s.bookings.AddFlight(ctx, tx, &models.BookedFlight{
			ID:         uuid.New(),
			BookingID:  bookingID,
			FlightID:   flight.ID,
			SeatNumber: claim.SeatNumber,
			ClassType:  claim.ClassType,
			Price:      price,
			Direction:  direction,
			Position:   position,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *BookingService) validateExtras(
	ctx context.Context,
	tx *sqlx.Tx,
	selections []models.ExtraSelection,
	flights map[uuid.UUID]*models.Flight,
) (map[uuid.UUID]*models.FlightExtra, error) {
	if len(selections) == 0 {
		return map[uuid.UUID]*models.FlightExtra{}, nil
	}

	ids := make([]uuid.UUID, len(selections))
	for i, sel := range selections {
		ids[i] = sel.ExtraID
	}
	extras, err := s.flights.GetExtrasByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	for _, sel := range selections {
		extra, ok := extras[sel.ExtraID]
		if !ok {
			return nil, models.NewValidationError("extras", fmt.Sprintf("extra %s not found", sel.ExtraID))
		}
		if _, ok := flights[extra.FlightID]; !ok {
			return nil, models.NewValidationError("extras",
				fmt.Sprintf("extra %s does not belong to a booked flight", sel.ExtraID))
		}
		if extra.MaxQuantity > 0 && sel.Quantity > extra.MaxQuantity {
			return nil, models.NewValidationError("extras",
				fmt.Sprintf("at most %d of extra %s can be booked", extra.MaxQuantity, extra.Name))
		}
	}
	return extras, nil
}

// generateCode draws codes until one is unused, up to the configured
// number of attempts
func (s *BookingService) generateCode(ctx context.Context, q sqlx.QueryerContext) (string, error) {
	for attempt := 0; attempt < s.cfg.CodeAttempts; attempt++ {
		code, err := s.newCode(s.cfg.CodeLength)
		if err != nil {
			return "", models.NewInternalError("failed to generate booking code", err)
		}

		exists, err := s.bookings.CodeExists(ctx, q, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", models.NewInternalError(
		fmt.Sprintf("failed to generate unique booking code after %d attempts", s.cfg.CodeAttempts), nil)
}

func randomBookingCode(length int) (string, error) {
	code := make([]byte, length)
	alphabet := big.NewInt(int64(len(bookingCodeLetters)))
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", err
		}
		code[i] = bookingCodeLetters[n.Int64()]
	}
	return string(code), nil
}

func validateBookingRequest(req *models.CreateBookingRequest) error {
	if len(req.DepartureFlightIDs) == 0 {
		return models.NewValidationError("departure_flights", "at least one departure flight is required")
	}

	seen := make(map[uuid.UUID]struct{})
	for _, id := range append(append([]uuid.UUID{}, req.DepartureFlightIDs...), req.ReturnFlightIDs...) {
		if _, dup := seen[id]; dup {
			return models.NewValidationError("departure_flights", fmt.Sprintf("flight %s is listed twice", id))
		}
		seen[id] = struct{}{}
	}

	extras := make(map[uuid.UUID]struct{})
	for _, sel := range req.Extras {
		if sel.Quantity < 1 {
			return models.NewValidationError("extras", "quantity must be at least 1")
		}
		if _, dup := extras[sel.ExtraID]; dup {
			return models.NewValidationError("extras", fmt.Sprintf("extra %s is listed twice", sel.ExtraID))
		}
		extras[sel.ExtraID] = struct{}{}
	}
	return nil
}

// DeleteBooking cancels a booking owned by the caller and frees its seats
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID, userID uuid.UUID) error {
	var flightIDs []uuid.UUID

	err := s.tx.Serializable(ctx, func(tx *sqlx.Tx) error {
		booking, err := s.bookings.GetByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return models.NewNotFoundError("booking not found")
		}
		if booking.UserID != userID {
			return models.NewForbiddenError("booking belongs to another user")
		}

		lines, err := s.bookings.ListFlights(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		if err := s.bookings.Delete(ctx, tx, bookingID); err != nil {
			return err
		}

		seen := make(map[uuid.UUID]struct{}, len(lines))
		for _, line := range lines {
			if _, ok := seen[line.FlightID]; ok {
				continue
			}
			seen[line.FlightID] = struct{}{}
			flightIDs = append(flightIDs, line.FlightID)
			if _, err := s.capacity.Recompute(ctx, tx, line.FlightID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).Warn("Booking deletion failed")
		return err
	}

	s.logger.WithField("booking_id", bookingID).Info("Booking deleted")
	s.publish(ctx, events.TypeBookingDeleted, events.BookingPayload{
		BookingID: bookingID,
		UserID:    userID,
		FlightIDs: flightIDs,
	})
	return nil
}

// GetBooking returns a booking of the caller with its line items
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*models.BookingDetail, error) {
	booking, err := s.bookings.GetByID(ctx, s.db, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking not found")
	}
	if booking.UserID != userID {
		return nil, models.NewForbiddenError("booking belongs to another user")
	}
	return s.detail(ctx, booking)
}

// ListBookings returns every booking of the caller, newest first
func (s *BookingService) ListBookings(ctx context.Context, userID uuid.UUID) ([]models.BookingDetail, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to list bookings")
		return nil, err
	}

	details := make([]models.BookingDetail, 0, len(bookings))
	for i := range bookings {
		d, err := s.detail(ctx, &bookings[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

func (s *BookingService) detail(ctx context.Context, booking *models.Booking) (*models.BookingDetail, error) {
	lines, err := s.bookings.ListFlights(ctx, s.db, booking.ID)
	if err != nil {
		return nil, err
	}
	extras, err := s.bookings.ListExtras(ctx, s.db, booking.ID)
	if err != nil {
		return nil, err
	}

	d := &models.BookingDetail{
		Booking:          *booking,
		DepartureFlights: []models.BookedFlight{},
		ReturnFlights:    []models.BookedFlight{},
		Extras:           extras,
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.Direction == models.DirectionReturn {
			d.ReturnFlights = append(d.ReturnFlights, line)
		} else {
			d.DepartureFlights = append(d.DepartureFlights, line)
		}
		d.TotalPrice += line.Price
		ids = append(ids, line.FlightID)
	}
	for _, e := range extras {
		d.TotalPrice += e.Price
	}

	if booking.HasInsurance && len(ids) > 0 {
		flights, err := s.flights.GetFlightsByIDs(ctx, s.db, ids)
		if err != nil {
			return nil, err
		}
		for _, f := range flights {
			d.InsurancePrice += f.PriceInsurance
		}
		d.TotalPrice += d.InsurancePrice
	}
	return d, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, payload events.BookingPayload) {
	if err := s.publisher.Publish(ctx, payload.UserID.String(), events.NewEvent(eventType, payload)); err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("Failed to publish event")
	}
}
