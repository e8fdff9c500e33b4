package handlers

import (
	"context"
	"net/http"

	"github.com/azvaska/flight-gorilla-sub000/internal/middleware"
	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingManager is the booking service as seen by the HTTP layer
type BookingManager interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error)
	DeleteBooking(ctx context.Context, bookingID, userID uuid.UUID) error
	GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*models.BookingDetail, error)
	ListBookings(ctx context.Context, userID uuid.UUID) ([]models.BookingDetail, error)
}

// BookingHandler handles HTTP requests for flight bookings
type BookingHandler struct {
	service BookingManager
	logger  *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingManager, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		logger:  logger,
	}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	user := middleware.MustGetUserContext(c)

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).WithField("user_id", user.UserID).Debug("Invalid booking request")
		respondError(c, h.logger, bindingError(err))
		return
	}

	response, err := h.service.CreateBooking(c.Request.Context(), user.UserID, &req)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    user.UserID,
			"session_id": req.SessionID,
			"kind":       models.KindOf(err),
		}).Warn("Booking was not created")
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	user := middleware.MustGetUserContext(c)

	bookings, err := h.service.ListBookings(c.Request.Context(), user.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if bookings == nil {
		bookings = []models.BookingDetail{}
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	user := middleware.MustGetUserContext(c)

	bookingID, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	detail, err := h.service.GetBooking(c.Request.Context(), bookingID, user.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// DeleteBooking handles DELETE /api/v1/bookings/:id
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	user := middleware.MustGetUserContext(c)

	bookingID, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID, user.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Booking deleted",
	})
}
