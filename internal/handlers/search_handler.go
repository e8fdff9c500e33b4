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

// ItinerarySearcher is the search service as seen by the HTTP layer
type ItinerarySearcher interface {
	BuildQuery(req *models.ItinerarySearchRequest) (*models.SearchQuery, error)
	BuildFlexibleQuery(req *models.FlexibleSearchRequest) (*models.FlexibleQuery, error)
	SearchItineraries(ctx context.Context, q *models.SearchQuery, userID *uuid.UUID) (*models.ItinerarySearchResponse, error)
	SearchFlexibleDates(ctx context.Context, q *models.FlexibleQuery, userID *uuid.UUID) (*models.FlexibleSearchResponse, error)
}

// SearchHandler handles HTTP requests for itinerary search
type SearchHandler struct {
	service ItinerarySearcher
	logger  *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service ItinerarySearcher, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  logger,
	}
}

// SearchItineraries handles GET /api/v1/search/itineraries
func (h *SearchHandler) SearchItineraries(c *gin.Context) {
	var req models.ItinerarySearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.WithError(err).Debug("Invalid itinerary search request")
		respondError(c, h.logger, bindingError(err))
		return
	}

	query, err := h.service.BuildQuery(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response, err := h.service.SearchItineraries(c.Request.Context(), query, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"departure_id":   req.DepartureID,
		"arrival_id":     req.ArrivalID,
		"date":           req.Date,
		"total_results":  response.TotalResults,
		"search_time_ms": response.SearchTimeMs,
		"cache_hit":      response.CacheHit,
	}).Info("Itinerary search completed")

	c.JSON(http.StatusOK, response)
}

// SearchFlexibleDates handles GET /api/v1/search/flexible
func (h *SearchHandler) SearchFlexibleDates(c *gin.Context) {
	var req models.FlexibleSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	query, err := h.service.BuildFlexibleQuery(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response, err := h.service.SearchFlexibleDates(c.Request.Context(), query, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
