package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leadbridge/marketplace/backend/internal/metrics"
	"github.com/leadbridge/marketplace/backend/internal/middleware"
	"github.com/leadbridge/marketplace/backend/internal/models"
	"github.com/leadbridge/marketplace/backend/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// memoryDeduper is a ViewDeduper without a window: a pair is seen until forgotten
type memoryDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newMemoryDeduper() *memoryDeduper {
	return &memoryDeduper{seen: make(map[string]bool)}
}

func (d *memoryDeduper) FirstView(ctx context.Context, leadID, sessionID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	key := leadID + ":" + sessionID
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memoryDeduper) Forget(ctx context.Context, leadID, sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, leadID+":"+sessionID)
	return nil
}

// LeadHandlersTestSuite runs the lead endpoints against an in-memory SQLite database
type LeadHandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	repo     repository.LeadRepository
	metrics  *metrics.Metrics
	handlers *Handlers
	router   *gin.Engine
	lead     *models.Lead
}

func (s *LeadHandlersTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(s.T(), err)
	sqlDB, err := db.DB()
	require.NoError(s.T(), err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(s.T(), db.AutoMigrate(&models.Lead{}, &models.LeadView{}))

	s.db = db
	s.repo = repository.NewLeadRepository(db)
	s.metrics = metrics.NewForRegistry(prometheus.NewRegistry())
	s.handlers = NewHandlers(s.repo, s.metrics)

	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.RequestIDMiddleware(), middleware.SessionIDMiddleware())
	s.router.GET("/health", s.handlers.Health)
	s.handlers.RegisterLeadRoutes(s.router.Group("/api/v1"))

	s.lead = &models.Lead{
		Title:  "Wholesale coffee beans",
		Intent: models.IntentSell,
		Kind:   models.KindProduct,
	}
	require.NoError(s.T(), s.repo.CreateLead(context.Background(), s.lead))
}

func (s *LeadHandlersTestSuite) TearDownTest() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *LeadHandlersTestSuite) request(method, path, sessionID string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sessionID != "" {
		req.Header.Set(middleware.SessionIDHeader, sessionID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *LeadHandlersTestSuite) view(leadID, sessionID string) (*httptest.ResponseRecorder, ViewResponse) {
	w := s.request("POST", fmt.Sprintf("/api/v1/leads/%s/view", leadID), sessionID, nil)
	var resp ViewResponse
	if w.Code == http.StatusOK {
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (s *LeadHandlersTestSuite) TestRecordLeadView() {
	w, resp := s.view(s.lead.ID, "sess-1")
	s.Equal(http.StatusOK, w.Code)
	s.True(resp.Viewed)
	s.True(resp.Counted)
	s.Equal(int64(1), resp.ViewCount)
	s.Equal(s.lead.ID, resp.LeadID)

	// without a deduper every report counts
	_, resp = s.view(s.lead.ID, "sess-1")
	s.Equal(int64(2), resp.ViewCount)

	var rows []models.LeadView
	s.Require().NoError(s.db.Find(&rows).Error)
	s.Len(rows, 2)
	s.Equal("sess-1", rows[0].SessionID)

	s.Equal(2.0, testutil.ToFloat64(s.metrics.LeadViewsTotal.WithLabelValues("true")))
}

func (s *LeadHandlersTestSuite) TestRecordLeadViewWithSource() {
	body, _ := json.Marshal(map[string]string{"source": "cli"})
	w := s.request("POST", "/api/v1/leads/"+s.lead.ID+"/view", "", body)
	s.Equal(http.StatusOK, w.Code)

	var row models.LeadView
	s.Require().NoError(s.db.First(&row).Error)
	s.Equal("cli", row.Source)

	w = s.request("POST", "/api/v1/leads/"+s.lead.ID+"/view", "", []byte("{not json"))
	s.Equal(http.StatusBadRequest, w.Code)

	body, _ = json.Marshal(map[string]string{"source": "../../etc"})
	w = s.request("POST", "/api/v1/leads/"+s.lead.ID+"/view", "", body)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Contains(w.Body.String(), "VALIDATION_ERROR")

	var count int64
	s.Require().NoError(s.db.Model(&models.LeadView{}).Count(&count).Error)
	s.Equal(int64(1), count, "rejected views are not stored")
}

func (s *LeadHandlersTestSuite) TestRecordLeadViewUnknownLead() {
	w, _ := s.view("2b1f6f2e-4a9e-4c55-9d0a-3f0f2a0c9d11", "sess-1")
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "NOT_FOUND")

	w, _ = s.view("not-a-uuid", "sess-1")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *LeadHandlersTestSuite) TestRecordLeadViewDedupe() {
	s.handlers.SetViewDeduper(newMemoryDeduper())

	_, first := s.view(s.lead.ID, "sess-1")
	s.True(first.Counted)

	w, repeat := s.view(s.lead.ID, "sess-1")
	s.Equal(http.StatusOK, w.Code)
	s.True(repeat.Viewed)
	s.False(repeat.Counted)
	s.Equal(int64(1), repeat.ViewCount)

	// another session, and an anonymous client, still count
	_, other := s.view(s.lead.ID, "sess-2")
	s.True(other.Counted)
	_, anon := s.view(s.lead.ID, "")
	s.True(anon.Counted)
	s.Equal(int64(3), anon.ViewCount)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.LeadViewsTotal.WithLabelValues("false")))
}

func (s *LeadHandlersTestSuite) TestRecordLeadViewDedupeUnknownLead() {
	s.handlers.SetViewDeduper(newMemoryDeduper())
	missing := "2b1f6f2e-4a9e-4c55-9d0a-3f0f2a0c9d11"

	w, _ := s.view(missing, "sess-1")
	s.Equal(http.StatusNotFound, w.Code)
	w, _ = s.view(missing, "sess-1")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *LeadHandlersTestSuite) TestRecordLeadViewDedupeFailureCounts() {
	d := newMemoryDeduper()
	d.err = errors.New("redis down")
	s.handlers.SetViewDeduper(d)

	_, resp := s.view(s.lead.ID, "sess-1")
	s.True(resp.Counted)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ViewDedupeErrors))
}

func (s *LeadHandlersTestSuite) TestGetLead() {
	w := s.request("GET", "/api/v1/leads/"+s.lead.ID, "", nil)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Lead models.Lead `json:"lead"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("Wholesale coffee beans", resp.Lead.Title)
	s.Equal(models.IntentSell, resp.Lead.Intent)

	w = s.request("GET", "/api/v1/leads/2b1f6f2e-4a9e-4c55-9d0a-3f0f2a0c9d11", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *LeadHandlersTestSuite) TestListLeads() {
	popular := &models.Lead{Title: "Popular", Intent: models.IntentBuy, Kind: models.KindService}
	s.Require().NoError(s.repo.CreateLead(context.Background(), popular))
	s.view(popular.ID, "a")
	s.view(popular.ID, "b")

	w := s.request("GET", "/api/v1/leads?sort=views&page_size=1", "", nil)
	s.Equal(http.StatusOK, w.Code)

	var resp LeadListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(int64(2), resp.TotalCount)
	s.Equal(1, resp.Page)
	s.Equal(1, resp.PageSize)
	s.Require().Len(resp.Leads, 1)
	s.Equal(popular.ID, resp.Leads[0].ID)

	w = s.request("GET", "/api/v1/leads?page=5", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"leads":[],"total_count":2,"page":5,"page_size":20}`, w.Body.String())

	w = s.request("GET", "/api/v1/leads?sort=random", "", nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *LeadHandlersTestSuite) TestGetLeadStats() {
	fixed := time.Now().UTC()
	s.handlers.now = func() time.Time { return fixed }

	s.view(s.lead.ID, "a")
	s.view(s.lead.ID, "a")
	s.view(s.lead.ID, "b")

	w := s.request("GET", "/api/v1/leads/"+s.lead.ID+"/stats", "", nil)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Stats repository.LeadViewStats `json:"stats"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(int64(3), resp.Stats.ViewCount)
	s.Equal(int64(2), resp.Stats.UniqueSessions)
	s.Equal(int64(3), resp.Stats.ViewsLast24h)
}

func (s *LeadHandlersTestSuite) TestHealth() {
	s.handlers.AddHealthCheck(HealthCheck{Name: "database", Required: true, Check: func(context.Context) error { return nil }})
	s.handlers.AddHealthCheck(HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("down") }})

	w := s.request("GET", "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"redis":"down"`)

	s.handlers.AddHealthCheck(HealthCheck{Name: "broken", Required: true, Check: func(context.Context) error { return errors.New("no") }})
	w = s.request("GET", "/health", "", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func TestLeadHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(LeadHandlersTestSuite))
}
