package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency
type HealthCheck struct {
	Name string
	// Required checks turn the service unhealthy when they fail
	Required bool
	Check    func(ctx context.Context) error
}

// Health reports service and dependency status
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for _, hc := range h.health {
		if err := hc.Check(ctx); err != nil {
			checks[hc.Name] = err.Error()
			if hc.Required {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		checks[hc.Name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "unavailable"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": h.now().UTC(),
		"service":   "leadbridge-backend",
		"checks":    checks,
	})
}
