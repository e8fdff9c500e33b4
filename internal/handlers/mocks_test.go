package handlers

import (
	"context"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) BuildQuery(req *models.ItinerarySearchRequest) (*models.SearchQuery, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchQuery), args.Error(1)
}

func (m *mockSearcher) BuildFlexibleQuery(req *models.FlexibleSearchRequest) (*models.FlexibleQuery, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlexibleQuery), args.Error(1)
}

func (m *mockSearcher) SearchItineraries(ctx context.Context, q *models.SearchQuery, userID *uuid.UUID) (*models.ItinerarySearchResponse, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ItinerarySearchResponse), args.Error(1)
}

func (m *mockSearcher) SearchFlexibleDates(ctx context.Context, q *models.FlexibleQuery, userID *uuid.UUID) (*models.FlexibleSearchResponse, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlexibleSearchResponse), args.Error(1)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) GetActive(ctx context.Context, userID uuid.UUID) (*models.SeatSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeatSession), args.Error(1)
}

func (m *mockSessions) Create(ctx context.Context, userID uuid.UUID) (*models.SeatSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeatSession), args.Error(1)
}

func (m *mockSessions) AddSeat(ctx context.Context, sessionID, userID uuid.UUID, req *models.AddSeatRequest) (*models.SeatSession, error) {
	args := m.Called(ctx, sessionID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeatSession), args.Error(1)
}

func (m *mockSessions) Delete(ctx context.Context, sessionID, userID uuid.UUID) error {
	return m.Called(ctx, sessionID, userID).Error(0)
}

func (m *mockSessions) SeatMap(ctx context.Context, flightID uuid.UUID) (*models.FlightSeatMap, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlightSeatMap), args.Error(1)
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) CreateBooking(ctx context.Context, userID uuid.UUID, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreateBookingResponse), args.Error(1)
}

func (m *mockBookings) DeleteBooking(ctx context.Context, bookingID, userID uuid.UUID) error {
	return m.Called(ctx, bookingID, userID).Error(0)
}

func (m *mockBookings) GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*models.BookingDetail, error) {
	args := m.Called(ctx, bookingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingDetail), args.Error(1)
}

func (m *mockBookings) ListBookings(ctx context.Context, userID uuid.UUID) ([]models.BookingDetail, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookingDetail), args.Error(1)
}

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) RunSweepNow(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type staticJobs map[string]interface{}

func (j staticJobs) GetJobStatus() map[string]interface{} { return j }
