package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/leadbridge/marketplace/backend/internal/logger"
	"github.com/leadbridge/marketplace/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder fills the database with fake leads and view history
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	rng   *rand.Rand
}

// NewSeeder creates a seeder. A zero seed picks a random one.
func NewSeeder(db *gorm.DB, seed uint64) *Seeder {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Seeder{
		db:    db,
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(int64(seed))),
	}
}

// Options control how much data is generated
type Options struct {
	Leads         int
	MaxViews      int // per lead
	SessionsPool  int // distinct fake sessions views are drawn from
	HistoryWindow time.Duration
}

// DevOptions is a realistic development data set
func DevOptions() Options {
	return Options{Leads: 200, MaxViews: 40, SessionsPool: 150, HistoryWindow: 30 * 24 * time.Hour}
}

// TestOptions is a small data set for integration tests
func TestOptions() Options {
	return Options{Leads: 10, MaxViews: 5, SessionsPool: 5, HistoryWindow: 48 * time.Hour}
}

var categories = []string{
	"Electronics", "Construction", "Catering", "Logistics", "Cleaning",
	"Software", "Textiles", "Agriculture", "Furniture", "Marketing",
}

// Seed creates leads and their view rows. view_count always equals the number of rows.
func (s *Seeder) Seed(opts Options) ([]models.Lead, error) {
	if opts.Leads <= 0 {
		return nil, fmt.Errorf("lead count must be positive")
	}

	sessions := make([]string, opts.SessionsPool)
	for i := range sessions {
		sessions[i] = s.faker.UUID()
	}

	now := time.Now().UTC()
	leads := make([]models.Lead, 0, opts.Leads)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < opts.Leads; i++ {
			lead := s.fakeLead(now.Add(-s.randDuration(opts.HistoryWindow)))
			views := s.fakeViews(lead.CreatedAt, now, opts, sessions)
			lead.ViewCount = int64(len(views))

			if err := tx.Create(&lead).Error; err != nil {
				return fmt.Errorf("failed to create lead: %w", err)
			}
			for j := range views {
				views[j].LeadID = lead.ID
			}
			if len(views) > 0 {
				if err := tx.CreateInBatches(views, 100).Error; err != nil {
					return fmt.Errorf("failed to create views: %w", err)
				}
			}
			leads = append(leads, lead)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Seeded leads", zap.Int("leads", len(leads)))
	return leads, nil
}

func (s *Seeder) fakeLead(createdAt time.Time) models.Lead {
	intent := models.IntentBuy
	if s.faker.Bool() {
		intent = models.IntentSell
	}
	kind := models.KindProduct
	if s.faker.Bool() {
		kind = models.KindService
	}

	var title string
	if kind == models.KindProduct {
		title = fmt.Sprintf("%s %d x %s", verb(intent), s.faker.Number(5, 5000), s.faker.ProductName())
	} else {
		title = fmt.Sprintf("%s %s services", verb(intent), s.faker.JobDescriptor())
	}

	return models.Lead{
		Title:       title,
		Description: s.description(),
		Intent:      intent,
		Kind:        kind,
		Category:    categories[s.rng.Intn(len(categories))],
		Company:     s.faker.Company(),
		Location:    fmt.Sprintf("%s, %s", s.faker.City(), s.faker.Country()),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func (s *Seeder) description() string {
	n := 1 + s.rng.Intn(3)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s.faker.HipsterSentence()
	}
	return strings.Join(parts, " ")
}

func verb(intent string) string {
	if intent == models.IntentSell {
		return "Selling"
	}
	return "Buying"
}

// fakeViews draws a skewed number of views between created and now
func (s *Seeder) fakeViews(created, now time.Time, opts Options, sessions []string) []models.LeadView {
	if opts.MaxViews <= 0 {
		return nil
	}
	// most leads get few views, a handful get many
	n := int(float64(opts.MaxViews) * s.rng.Float64() * s.rng.Float64())

	views := make([]models.LeadView, n)
	for i := range views {
		ts := s.faker.DateRange(created, now).UTC()
		views[i] = models.LeadView{
			Timestamp: ts,
			Source:    []string{"cli", "web", "web", "web"}[s.rng.Intn(4)],
			CreatedAt: ts,
		}
		if len(sessions) > 0 {
			views[i].SessionID = sessions[s.rng.Intn(len(sessions))]
		}
	}
	return views
}

func (s *Seeder) randDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(s.rng.Int63n(int64(max)))
}

// Clean removes all leads and views
func (s *Seeder) Clean() error {
	if err := s.db.Exec("DELETE FROM lead_views").Error; err != nil {
		return fmt.Errorf("failed to clean lead_views: %w", err)
	}
	if err := s.db.Exec("DELETE FROM leads").Error; err != nil {
		return fmt.Errorf("failed to clean leads: %w", err)
	}
	return nil
}
