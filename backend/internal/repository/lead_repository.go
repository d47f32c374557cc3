package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leadbridge/marketplace/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrLeadNotFound wraps gorm.ErrRecordNotFound so generic DB error handling matches it
	ErrLeadNotFound = fmt.Errorf("lead not found: %w", gorm.ErrRecordNotFound)
	ErrInvalidInput = errors.New("invalid input")
)

// LeadViewStats are the aggregated views of one lead
type LeadViewStats struct {
	LeadID         string `json:"lead_id"`
	ViewCount      int64  `json:"view_count"`
	UniqueSessions int64  `json:"unique_sessions"`
	ViewsLast24h   int64  `json:"views_last_24h"`
}

// LeadRepository handles all database operations for leads and their views
type LeadRepository interface {
	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLead(ctx context.Context, leadID string) (*models.Lead, error)
	ListLeads(ctx context.Context, limit, offset int, byViews bool) ([]*models.Lead, int64, error)

	// RecordView increments the lead's view count and stores the view row in
	// one transaction, returning the new count
	RecordView(ctx context.Context, view *models.LeadView) (int64, error)
	GetViewStats(ctx context.Context, leadID string, since time.Time) (*LeadViewStats, error)
}

type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) CreateLead(ctx context.Context, lead *models.Lead) error {
	if lead == nil || lead.Title == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *leadRepository) GetLead(ctx context.Context, leadID string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).Where("id = ?", leadID).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// ListLeads returns a page of leads, newest first or most viewed first
func (r *leadRepository) ListLeads(ctx context.Context, limit, offset int, byViews bool) ([]*models.Lead, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Lead{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC, id"
	if byViews {
		order = "view_count DESC, created_at DESC, id"
	}

	var leads []*models.Lead
	err := r.db.WithContext(ctx).
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(&leads).Error
	return leads, total, err
}

func (r *leadRepository) RecordView(ctx context.Context, view *models.LeadView) (int64, error) {
	if view == nil || view.LeadID == "" {
		return 0, ErrInvalidInput
	}

	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Lead{}).
			Where("id = ?", view.LeadID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLeadNotFound
		}

		if err := tx.Create(view).Error; err != nil {
			return err
		}

		return tx.Model(&models.Lead{}).
			Where("id = ?", view.LeadID).
			Select("view_count").
			Scan(&count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *leadRepository) GetViewStats(ctx context.Context, leadID string, since time.Time) (*LeadViewStats, error) {
	lead, err := r.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	stats := &LeadViewStats{LeadID: lead.ID, ViewCount: lead.ViewCount}

	err = r.db.WithContext(ctx).Model(&models.LeadView{}).
		Where("lead_id = ? AND session_id <> ''", leadID).
		Distinct("session_id").
		Count(&stats.UniqueSessions).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&models.LeadView{}).
		Where("lead_id = ? AND timestamp >= ?", leadID, since).
		Count(&stats.ViewsLast24h).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
