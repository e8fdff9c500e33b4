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

// SeatSessionManager is the seat session service as seen by the HTTP layer
type SeatSessionManager interface {
	GetActive(ctx context.Context, userID uuid.UUID) (*models.SeatSession, error)
	Create(ctx context.Context, userID uuid.UUID) (*models.SeatSession, error)
	AddSeat(ctx context.Context, sessionID, userID uuid.UUID, req *models.AddSeatRequest) (*models.SeatSession, error)
	Delete(ctx context.Context, sessionID, userID uuid.UUID) error
	SeatMap(ctx context.Context, flightID uuid.UUID) (*models.FlightSeatMap, error)
}

// SeatSessionHandler handles the checkout seat holds of the caller.
// Every route requires AuthMiddleware.
type SeatSessionHandler struct {
	service SeatSessionManager
	logger  *logrus.Logger
}

// NewSeatSessionHandler creates a new seat session handler
func NewSeatSessionHandler(service SeatSessionManager, logger *logrus.Logger) *SeatSessionHandler {
	return &SeatSessionHandler{
		service: service,
		logger:  logger,
	}
}

// GetActive handles GET /api/v1/seat-sessions/active
func (h *SeatSessionHandler) GetActive(c *gin.Context) {
	user := middleware.MustGetUserContext(c)

	session, err := h.service.GetActive(c.Request.Context(), user.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Create handles POST /api/v1/seat-sessions
func (h *SeatSessionHandler) Create(c *gin.Context) {
	user := middleware.MustGetUserContext(c)

	session, err := h.service.Create(c.Request.Context(), user.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// AddSeat handles POST /api/v1/seat-sessions/:id/seats
func (h *SeatSessionHandler) AddSeat(c *gin.Context) {
	user := middleware.MustGetUserContext(c)

	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req models.AddSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	session, err := h.service.AddSeat(c.Request.Context(), sessionID, user.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"flight_id":   req.FlightID,
		"seat_number": req.SeatNumber,
	}).Info("Seat claimed")

	c.JSON(http.StatusOK, session)
}

// Delete handles DELETE /api/v1/seat-sessions/:id
func (h *SeatSessionHandler) Delete(c *gin.Context) {
	user := middleware.MustGetUserContext(c)

	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), sessionID, user.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Seat session deleted",
	})
}

// SeatMap handles GET /api/v1/flights/:id/seats
func (h *SeatSessionHandler) SeatMap(c *gin.Context) {
	flightID, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	seatMap, err := h.service.SeatMap(c.Request.Context(), flightID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, seatMap)
}
