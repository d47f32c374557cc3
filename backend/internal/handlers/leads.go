package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leadbridge/marketplace/backend/internal/logger"
	"github.com/leadbridge/marketplace/backend/internal/models"
	"github.com/leadbridge/marketplace/backend/internal/repository"
	"github.com/leadbridge/marketplace/backend/internal/telemetry"
	"github.com/leadbridge/marketplace/backend/internal/util"
	"go.uber.org/zap"
)

// ViewResponse is the body of a view report
type ViewResponse struct {
	LeadID    string `json:"lead_id"`
	Viewed    bool   `json:"viewed"`
	Counted   bool   `json:"counted"`
	ViewCount int64  `json:"view_count"`
}

// LeadListResponse is a page of leads
type LeadListResponse struct {
	Leads      []*models.Lead `json:"leads"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

// leadIDParam returns the :id path parameter. Ids that are not UUIDs can never
// match a lead and are answered with 404.
func leadIDParam(c *gin.Context) (string, bool) {
	leadID := c.Param("id")
	if err := util.ValidateLeadID(leadID); err != nil {
		util.RespondNotFound(c, "lead")
		return "", false
	}
	return leadID, true
}

// ListLeads returns a page of leads
// GET /api/v1/leads?page=1&page_size=20&sort=recent|views
func (h *Handlers) ListLeads(c *gin.Context) {
	page, pageSize := util.ParsePagination(c)

	var byViews bool
	switch c.DefaultQuery("sort", "recent") {
	case "recent":
	case "views":
		byViews = true
	default:
		util.RespondValidationError(c, "sort", "sort must be one of: recent, views")
		return
	}

	leads, total, err := h.leads.ListLeads(c.Request.Context(), pageSize, (page-1)*pageSize, byViews)
	if err != nil {
		util.RespondInternalError(c, "failed to list leads", err)
		return
	}
	if leads == nil {
		leads = []*models.Lead{}
	}

	c.JSON(http.StatusOK, LeadListResponse{
		Leads:      leads,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetLead returns a single lead
// GET /api/v1/leads/:id
func (h *Handlers) GetLead(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	lead, err := h.leads.GetLead(c.Request.Context(), leadID)
	if util.HandleDBError(c, err, "lead") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// GetLeadStats returns the view statistics of a lead
// GET /api/v1/leads/:id/stats
func (h *Handlers) GetLeadStats(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	since := h.now().UTC().Add(-24 * time.Hour)
	stats, err := h.leads.GetViewStats(c.Request.Context(), leadID, since)
	if errors.Is(err, repository.ErrLeadNotFound) {
		util.RespondNotFound(c, "lead")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to fetch lead stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// RecordLeadView counts one view of a lead
// POST /api/v1/leads/:id/view
//
// The body is optional: {"source": "cli"}. The session comes from X-Session-ID.
// With a view deduper configured, repeat views of the same session inside the
// dedupe window are acknowledged with counted=false.
func (h *Handlers) RecordLeadView(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Source string `json:"source"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBadRequest(c, "invalid request body")
			return
		}
	}
	source, err := util.NormalizeSource(req.Source)
	if err != nil {
		util.RespondValidationError(c, "source", err.Error())
		return
	}

	sessionID := c.GetString("session_id")
	ctx, span := telemetry.TraceRecordView(c.Request.Context(), leadID, sessionID)

	if !h.firstView(c, leadID, sessionID) {
		lead, err := h.leads.GetLead(ctx, leadID)
		telemetry.EndRecordView(span, false, err)
		if errors.Is(err, repository.ErrLeadNotFound) {
			util.RespondNotFound(c, "lead")
			return
		}
		if err != nil {
			util.RespondInternalError(c, "failed to fetch lead", err)
			return
		}

		h.metrics.LeadViewsTotal.WithLabelValues("false").Inc()
		c.JSON(http.StatusOK, ViewResponse{LeadID: leadID, Viewed: true, Counted: false, ViewCount: lead.ViewCount})
		return
	}

	start := time.Now()
	count, err := h.leads.RecordView(ctx, &models.LeadView{
		LeadID:    leadID,
		SessionID: sessionID,
		Source:    source,
		ClientIP:  c.ClientIP(),
		Timestamp: h.now().UTC(),
	})
	h.metrics.ViewRecordDuration.Observe(time.Since(start).Seconds())
	telemetry.EndRecordView(span, err == nil, err)

	if err != nil {
		// let the client's retry count
		h.forgetView(c, leadID, sessionID)

		if errors.Is(err, repository.ErrLeadNotFound) {
			util.RespondNotFound(c, "lead")
			return
		}
		util.RespondInternalError(c, "failed to record view", err)
		return
	}

	h.metrics.LeadViewsTotal.WithLabelValues("true").Inc()
	logger.Log.Debug("Lead view counted",
		logger.WithLeadID(leadID),
		logger.WithSessionID(sessionID),
		zap.Int64("view_count", count),
	)

	c.JSON(http.StatusOK, ViewResponse{LeadID: leadID, Viewed: true, Counted: true, ViewCount: count})
}

// firstView consults the deduper. Lookup failures count the view.
func (h *Handlers) firstView(c *gin.Context, leadID, sessionID string) bool {
	if h.deduper == nil || sessionID == "" {
		return true
	}

	first, err := h.deduper.FirstView(c.Request.Context(), leadID, sessionID)
	if err != nil {
		h.metrics.ViewDedupeErrors.Inc()
		logger.Log.Warn("View dedupe lookup failed, counting view",
			logger.WithLeadID(leadID),
			zap.Error(err),
		)
		return true
	}
	return first
}

func (h *Handlers) forgetView(c *gin.Context, leadID, sessionID string) {
	if h.deduper == nil || sessionID == "" {
		return
	}
	if err := h.deduper.Forget(c.Request.Context(), leadID, sessionID); err != nil {
		logger.Log.Warn("Failed to clear view dedupe key",
			logger.WithLeadID(leadID),
			zap.Error(err),
		)
	}
}
