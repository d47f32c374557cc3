package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/leadbridge/marketplace/cli/pkg/client"
	"github.com/leadbridge/marketplace/cli/pkg/viewtrack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client.InitWithBaseURL(srv.URL, 2*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestIncrementLeadView(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/leads/lead-1/view", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(client.SessionHeader))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, ViewSource, body["source"])

		writeJSON(w, http.StatusOK, ViewResponse{LeadID: "lead-1", Viewed: true, Counted: true, ViewCount: 7})
	})

	resp, err := IncrementLeadView(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ViewCount)
	assert.True(t, resp.Counted)
}

func TestIncrementLeadView_NotFound(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Message: "lead not found"})
	})

	_, err := IncrementLeadView(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsServerError(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestParseError_NonJSONBody(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := GetLead("lead-1")
	require.Error(t, err)
	assert.True(t, IsServerError(err))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestGetLeadAndStats(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/leads/lead-1":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"lead": Lead{ID: "lead-1", Title: "Steel pipes", Intent: "sell", Kind: "product", ViewCount: 3},
			})
		case "/api/v1/leads/lead-1/stats":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"stats": LeadStats{LeadID: "lead-1", ViewCount: 3, UniqueSessions: 2, ViewsLast24h: 1},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	lead, err := GetLead("lead-1")
	require.NoError(t, err)
	assert.Equal(t, "Steel pipes", lead.Title)

	stats, err := GetLeadStats("lead-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.UniqueSessions)
}

func TestListLeads_QueryParams(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("page_size"))
		assert.Equal(t, "views", r.URL.Query().Get("sort"))
		writeJSON(w, http.StatusOK, LeadListResponse{
			Leads:      []Lead{{ID: "a"}, {ID: "b"}},
			TotalCount: 12,
			Page:       2,
			PageSize:   5,
		})
	})

	resp, err := ListLeads(2, 5, true)
	require.NoError(t, err)
	assert.Len(t, resp.Leads, 2)
	assert.Equal(t, int64(12), resp.TotalCount)
}

func TestViewReporter_DrivesTracker(t *testing.T) {
	var hits atomic.Int32
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, ViewResponse{LeadID: "lead-1", Viewed: true, Counted: true, ViewCount: 1})
	})

	tr := viewtrack.NewTracker(ViewReporter{})
	for i := 0; i < 5; i++ {
		tr.Track("lead-1", 20*time.Millisecond)
	}
	require.Eventually(t, func() bool { return tr.Viewed("lead-1") }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), hits.Load())
}

func TestViewReporter_ServerErrorLeavesLeadRetryable(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL_ERROR", Message: "boom"})
	})

	tr := viewtrack.NewTracker(ViewReporter{})
	tr.MarkViewed(context.Background(), "lead-1")

	assert.False(t, tr.Viewed("lead-1"))
	assert.Equal(t, int64(1), tr.Stats().Failed)
}
