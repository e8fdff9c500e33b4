package handlers

import (
	"github.com/azvaska/flight-gorilla-sub000/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Routes groups the handlers mounted under /api/v1
type Routes struct {
	Search       *SearchHandler
	SeatSessions *SeatSessionHandler
	Bookings     *BookingHandler
	Health       *HealthHandler
	Admin        *AdminHandler
}

// Register mounts every route. requireAuth guards caller-owned resources;
// optionalAuth only identifies the caller when a token is sent.
func (r *Routes) Register(router *gin.Engine, requireAuth, optionalAuth gin.HandlerFunc) {
	if r.Health != nil {
		router.GET("/health", r.Health.Check)
	}

	v1 := router.Group("/api/v1")

	search := v1.Group("/search", optionalAuth)
	{
		search.GET("/itineraries", r.Search.SearchItineraries)
		search.GET("/flexible", r.Search.SearchFlexibleDates)
	}

	v1.GET("/flights/:id/seats", r.SeatSessions.SeatMap)

	sessions := v1.Group("/seat-sessions", requireAuth)
	{
		sessions.GET("/active", r.SeatSessions.GetActive)
		sessions.POST("", r.SeatSessions.Create)
		sessions.POST("/:id/seats", r.SeatSessions.AddSeat)
		sessions.DELETE("/:id", r.SeatSessions.Delete)
	}

	bookings := v1.Group("/bookings", requireAuth)
	{
		bookings.POST("", r.Bookings.CreateBooking)
		bookings.GET("", r.Bookings.ListBookings)
		bookings.GET("/:id", r.Bookings.GetBooking)
		bookings.DELETE("/:id", r.Bookings.DeleteBooking)
	}

	if r.Admin != nil {
		admin := v1.Group("/admin", requireAuth, middleware.RequireRole("admin"))
		admin.POST("/seat-sessions/sweep", r.Admin.SweepSeatSessions)
	}
}
