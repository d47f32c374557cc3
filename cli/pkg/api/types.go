package api

import "time"

// Lead is a marketplace listing as returned by the backend
type Lead struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Intent      string    `json:"intent"` // "buy" or "sell"
	Kind        string    `json:"kind"`   // "product" or "service"
	Category    string    `json:"category,omitempty"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	ViewCount   int64     `json:"view_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LeadListResponse is a page of leads
type LeadListResponse struct {
	Leads      []Lead `json:"leads"`
	TotalCount int64  `json:"total_count"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

// ViewResponse is the result of a view increment
type ViewResponse struct {
	LeadID    string `json:"lead_id"`
	Viewed    bool   `json:"viewed"`
	Counted   bool   `json:"counted"`
	ViewCount int64  `json:"view_count"`
}

// LeadStats are the view statistics of one lead
type LeadStats struct {
	LeadID         string `json:"lead_id"`
	ViewCount      int64  `json:"view_count"`
	UniqueSessions int64  `json:"unique_sessions"`
	ViewsLast24h   int64  `json:"views_last_24h"`
}

// ErrorResponse is the backend error body
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}
