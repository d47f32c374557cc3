package handlers

import (
	"time"

	"github.com/leadbridge/marketplace/backend/internal/cache"
	"github.com/leadbridge/marketplace/backend/internal/metrics"
	"github.com/leadbridge/marketplace/backend/internal/repository"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	leads   repository.LeadRepository
	deduper cache.ViewDeduper
	metrics *metrics.Metrics
	health  []HealthCheck

	now func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(leads repository.LeadRepository, m *metrics.Metrics) *Handlers {
	return &Handlers{
		leads:   leads,
		metrics: m,
		now:     time.Now,
	}
}

// SetViewDeduper enables server-side (lead, session) view deduplication
func (h *Handlers) SetViewDeduper(d cache.ViewDeduper) {
	h.deduper = d
}

// AddHealthCheck registers a dependency probed by /health
func (h *Handlers) AddHealthCheck(check HealthCheck) {
	h.health = append(h.health, check)
}
