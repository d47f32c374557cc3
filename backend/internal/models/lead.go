package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead intents
const (
	IntentBuy  = "buy"
	IntentSell = "sell"
)

// Lead kinds
const (
	KindProduct = "product"
	KindService = "service"
)

// Lead is a buy or sell listing on the marketplace.
// Leads are authored elsewhere; this service only reads them and counts views.
type Lead struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Intent      string `gorm:"not null;index" json:"intent"` // "buy" or "sell"
	Kind        string `gorm:"not null;index" json:"kind"`   // "product" or "service"
	Category    string `gorm:"index" json:"category,omitempty"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`

	// Denormalized total, incremented atomically on every counted view
	ViewCount int64 `gorm:"not null;default:0;index" json:"view_count"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (Lead) TableName() string {
	return "leads"
}

// BeforeCreate assigns an id when the caller did not
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
