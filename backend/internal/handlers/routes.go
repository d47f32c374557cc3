package handlers

import "github.com/gin-gonic/gin"

// RegisterLeadRoutes mounts the lead endpoints on rg.
// viewMiddleware runs only in front of the view counter (rate limiting).
func (h *Handlers) RegisterLeadRoutes(rg *gin.RouterGroup, viewMiddleware ...gin.HandlerFunc) {
	leads := rg.Group("/leads")
	{
		leads.GET("", h.ListLeads)
		leads.GET("/:id", h.GetLead)
		leads.GET("/:id/stats", h.GetLeadStats)
		leads.POST("/:id/view", append(viewMiddleware, h.RecordLeadView)...)
	}
}
