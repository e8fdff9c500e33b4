package services

import (
	"context"
	"fmt"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/config"
	"github.com/azvaska/flight-gorilla-sub000/internal/database"
	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/azvaska/flight-gorilla-sub000/pkg/events"
	"github.com/azvaska/flight-gorilla-sub000/pkg/validator"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// SeatSessionService manages the per-user seat holds taken before checkout.
//
// A session is readable until end + gray period but accepts new claims only
// until end. Exclusivity of a (flight, seat) pair across sessions is left to
// the unique index on seat_claims.
type SeatSessionService struct {
	db        *sqlx.DB
	tx        *database.TxRunner
	sessions  *database.SeatSessionRepository
	flights   *database.FlightRepository
	publisher events.Publisher
	ttl       time.Duration
	gray      time.Duration
	now       func() time.Time
	logger    *logrus.Logger
}

// SeatSessionOption customises a SeatSessionService
type SeatSessionOption func(*SeatSessionService)

// WithSessionClock replaces the clock used for lease checks
func WithSessionClock(now func() time.Time) SeatSessionOption {
	return func(s *SeatSessionService) { s.now = now }
}

// NewSeatSessionService creates a new seat session service
func NewSeatSessionService(
	db *sqlx.DB,
	sessions *database.SeatSessionRepository,
	flights *database.FlightRepository,
	publisher events.Publisher,
	cfg config.SessionConfig,
	logger *logrus.Logger,
	opts ...SeatSessionOption,
) *SeatSessionService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	s := &SeatSessionService{
		db:        db,
		tx:        database.NewTxRunner(db),
		sessions:  sessions,
		flights:   flights,
		publisher: publisher,
		ttl:       cfg.TTL,
		gray:      cfg.GrayPeriod,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetActive returns the caller's session while it is still readable
func (s *SeatSessionService) GetActive(ctx context.Context, userID uuid.UUID) (*models.SeatSession, error) {
	session, err := s.sessions.GetLatestByUser(ctx, userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load seat session")
		return nil, err
	}
	if session == nil || !session.ReadableAt(s.now(), s.gray) {
		return nil, models.NewNotFoundError("no active seat session")
	}
	return session, nil
}

// Create starts a new session for the caller, replacing any previous one
func (s *SeatSessionService) Create(ctx context.Context, userID uuid.UUID) (*models.SeatSession, error) {
	now := s.now()
	session := &models.SeatSession{
		ID:        uuid.New(),
		UserID:    userID,
		StartTime: now,
		EndTime:   now.Add(s.ttl),
		Claims:    []models.SeatClaim{},
	}

	err := s.tx.ReadCommitted(ctx, func(tx *sqlx.Tx) error {
		return s.sessions.Replace(ctx, tx, session)
	})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to create seat session")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"user_id":    userID,
		"end_time":   session.EndTime,
	}).Info("Seat session created")

	s.publish(ctx, events.TypeSeatSessionCreated, session)
	return session, nil
}

// AddSeat claims a seat on a flight for the session. A session holds at
// most one seat per flight, so a second claim on the same flight moves it.
func (s *SeatSessionService) AddSeat(
	ctx context.Context,
	sessionID, userID uuid.UUID,
	req *models.AddSeatRequest,
) (*models.SeatSession, error) {
	seatNumber := validator.NormalizeSeatNumber(req.SeatNumber)
	if !validator.IsSeatNumber(seatNumber) {
		return nil, models.NewValidationError("seat_number", "seat_number must look like 12A")
	}

	err := s.tx.Serializable(ctx, func(tx *sqlx.Tx) error {
		now := s.now()

		// Step 1: Ownership and lease
		session, err := s.sessions.GetByID(ctx, tx, sessionID)
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

		// Step 2: Flight and seat must exist
		if _, err := s.flights.GetFlight(ctx, tx, req.FlightID); err != nil {
			return err
		}
		class, found, err := s.flights.GetSeatClass(ctx, tx, req.FlightID, seatNumber)
		if err != nil {
			return err
		}
		if !found {
			return models.NewValidationError("seat_number",
				fmt.Sprintf("seat %s does not exist on this flight", seatNumber))
		}

		// Step 3: Seat must not be sold
		booked, err := s.sessions.IsSeatBooked(ctx, tx, req.FlightID, seatNumber)
		if err != nil {
			return err
		}
		if booked {
			return models.NewConflictError(fmt.Sprintf("seat %s is already booked", seatNumber), nil)
		}

		// Step 4: Insert; a concurrent holder trips the unique index
		return s.sessions.AddClaim(ctx, tx, &models.SeatClaim{
			ID:         uuid.New(),
			SessionID:  sessionID,
			FlightID:   req.FlightID,
			SeatNumber: seatNumber,
			ClassType:  class,
		}, now.Add(-s.gray))
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"session_id":  sessionID,
			"flight_id":   req.FlightID,
			"seat_number": seatNumber,
			"constraint":  database.ConstraintName(err),
		}).Warn("Seat claim rejected")
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, models.NewNotFoundError("seat session not found")
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"flight_id":   req.FlightID,
		"seat_number": seatNumber,
	}).Info("Seat claimed")

	return session, nil
}

// Delete cancels a session owned by the caller and releases its seats
func (s *SeatSessionService) Delete(ctx context.Context, sessionID, userID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, s.db, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return models.NewNotFoundError("seat session not found")
	}
	if session.UserID != userID {
		return models.NewForbiddenError("seat session belongs to another user")
	}

	if err := s.sessions.Delete(ctx, s.db, sessionID); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to delete seat session")
		return err
	}

	s.logger.WithField("session_id", sessionID).Info("Seat session cancelled")
	s.publish(ctx, events.TypeSeatSessionDeleted, session)
	return nil
}

// SeatMap lists the seats of a flight with their booked and held state
func (s *SeatSessionService) SeatMap(ctx context.Context, flightID uuid.UUID) (*models.FlightSeatMap, error) {
	flight, err := s.flights.GetFlight(ctx, s.db, flightID)
	if err != nil {
		return nil, err
	}

	seats, err := s.flights.GetSeatAvailability(ctx, flightID, s.now().Add(-s.gray))
	if err != nil {
		s.logger.WithError(err).WithField("flight_id", flightID).Error("Failed to load seat map")
		return nil, err
	}
	if seats == nil {
		seats = []models.SeatAvailability{}
	}

	return &models.FlightSeatMap{
		FlightID:    flightID,
		FullyBooked: flight.FullyBooked,
		Seats:       seats,
	}, nil
}

// PurgeExpired removes sessions no longer readable. Expiry is enforced on
// every read and write, so this only reclaims storage.
func (s *SeatSessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now().Add(-s.gray))
}

func (s *SeatSessionService) publish(ctx context.Context, eventType string, session *models.SeatSession) {
	event := events.NewEvent(eventType, events.SeatSessionPayload{
		SessionID: session.ID,
		UserID:    session.UserID,
		EndTime:   session.EndTime,
	})
	if err := s.publisher.Publish(ctx, session.UserID.String(), event); err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("Failed to publish event")
	}
}
