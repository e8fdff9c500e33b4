package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency whose liveness the health check reports
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// JobStatusReporter describes the background jobs behind the service
type JobStatusReporter interface {
	GetJobStatus() map[string]interface{}
}

// HealthHandler serves GET /health
type HealthHandler struct {
	deps    map[string]Pinger
	jobs    JobStatusReporter
	version string
	timeout time.Duration
}

// NewHealthHandler creates a health handler over named dependencies
func NewHealthHandler(version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps, version: version, timeout: 2 * time.Second}
}

// WithJobs adds the scheduler status to the health payload
func (h *HealthHandler) WithJobs(jobs JobStatusReporter) *HealthHandler {
	h.jobs = jobs
	return h
}

// Check pings every dependency; any failure makes the service unhealthy
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	body := gin.H{
		"status":    "healthy",
		"version":   h.version,
		"timestamp": time.Now().Unix(),
	}
	for _, name := range names {
		if err := h.deps[name].PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body[name] = "unhealthy"
			body[name+"_error"] = err.Error()
			continue
		}
		body[name] = "healthy"
	}
	if h.jobs != nil {
		body["jobs"] = h.jobs.GetJobStatus()
	}

	c.JSON(status, body)
}
