package handlers

import (
	"context"
	"net/http"

	"github.com/azvaska/flight-gorilla-sub000/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionSweeper runs the expired seat session sweep on demand
type SessionSweeper interface {
	RunSweepNow(ctx context.Context) (int64, error)
}

// AdminHandler serves operator routes. Every route requires the admin role.
type AdminHandler struct {
	sweeper SessionSweeper
	logger  *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(sweeper SessionSweeper, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		sweeper: sweeper,
		logger:  logger,
	}
}

// SweepSeatSessions handles POST /api/v1/admin/seat-sessions/sweep
func (h *AdminHandler) SweepSeatSessions(c *gin.Context) {
	user := middleware.MustGetUserContext(c)

	removed, err := h.sweeper.RunSweepNow(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": user.UserID,
		"removed": removed,
	}).Info("Seat session sweep triggered")

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
