package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadView records one counted view of a lead.
// Each view is a separate row so per-session and time-window stats can be derived.
type LeadView struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	LeadID    string    `gorm:"not null;index:idx_lead_view_lead_time" json:"lead_id"`
	Timestamp time.Time `gorm:"not null;index:idx_lead_view_lead_time" json:"timestamp"`

	SessionID string `gorm:"index" json:"session_id,omitempty"` // X-Session-ID of the client
	Source    string `json:"source,omitempty"`                  // "cli", "web", ...
	ClientIP  string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (LeadView) TableName() string {
	return "lead_views"
}

// BeforeCreate assigns an id and timestamp when missing
func (v *LeadView) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC()
	}
	return nil
}
