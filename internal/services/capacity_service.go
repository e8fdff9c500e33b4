package services

import (
	"context"

	"github.com/azvaska/flight-gorilla-sub000/internal/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// CapacityService keeps the fully_booked flag of flights in step with their bookings
type CapacityService struct {
	repo   *database.CapacityRepository
	logger *logrus.Logger
}

// NewCapacityService creates a new capacity service
func NewCapacityService(repo *database.CapacityRepository, logger *logrus.Logger) *CapacityService {
	return &CapacityService{repo: repo, logger: logger}
}

// Recompute stores fully_booked = booked seats >= seat map size for the
// flight and returns the new flag. It runs on q so it joins the caller's
// transaction.
func (s *CapacityService) Recompute(ctx context.Context, q sqlx.ExtContext, flightID uuid.UUID) (bool, error) {
	total, err := s.repo.CountTotalSeats(ctx, q, flightID)
	if err != nil {
		return false, err
	}

	booked, err := s.repo.CountBookedSeats(ctx, q, flightID)
	if err != nil {
		return false, err
	}

	fullyBooked := booked >= total
	if err := s.repo.SetFullyBooked(ctx, q, flightID, fullyBooked); err != nil {
		return false, err
	}

	s.logger.WithFields(logrus.Fields{
		"flight_id":    flightID,
		"total_seats":  total,
		"booked_seats": booked,
		"fully_booked": fullyBooked,
	}).Debug("Recomputed flight capacity")

	return fullyBooked, nil
}
