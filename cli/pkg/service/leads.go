package service

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/leadbridge/marketplace/cli/pkg/api"
	clierrors "github.com/leadbridge/marketplace/cli/pkg/errors"
	"github.com/leadbridge/marketplace/cli/pkg/output"
	"github.com/leadbridge/marketplace/cli/pkg/viewtrack"
)

// LeadService provides lead browsing and view tracking operations
type LeadService struct {
	tracker *viewtrack.Tracker
}

// NewLeadService creates a lead service on the session-wide tracker
func NewLeadService() *LeadService {
	return &LeadService{tracker: ViewTracker()}
}

// NewLeadServiceWithTracker creates a lead service on an explicit tracker
func NewLeadServiceWithTracker(tracker *viewtrack.Tracker) *LeadService {
	return &LeadService{tracker: tracker}
}

// ListLeads prints a page of leads
func (s *LeadService) ListLeads(page, pageSize int, popular bool) error {
	resp, err := api.ListLeads(page, pageSize, popular)
	if err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}

	if len(resp.Leads) == 0 {
		output.PrintInfo("No leads found.")
		return nil
	}

	rows := make([][]string, 0, len(resp.Leads))
	for _, l := range resp.Leads {
		rows = append(rows, []string{l.ID, l.Title, l.Intent, l.Kind, strconv.FormatInt(l.ViewCount, 10)})
	}
	if err := output.PrintTable([]string{"ID", "Title", "Intent", "Kind", "Views"}, rows); err != nil {
		return err
	}

	if output.GetOutputFormat() != output.FormatJSON {
		output.PrintInfo("Page %d (%d of %d leads)", resp.Page, len(resp.Leads), resp.TotalCount)
	}
	return nil
}

// ShowLead opens a lead's detail view: the lead is printed and its view is
// reported right away. A failed report never fails the command.
func (s *LeadService) ShowLead(ctx context.Context, leadID string) error {
	lead, err := api.GetLead(leadID)
	if api.IsNotFound(err) {
		return clierrors.NotFoundError("Lead", leadID)
	}
	if err != nil {
		return fmt.Errorf("failed to get lead: %w", err)
	}

	s.tracker.MarkViewed(ctx, leadID)

	return output.PrintRecord("Lead", map[string]interface{}{
		"ID":          lead.ID,
		"Title":       lead.Title,
		"Intent":      lead.Intent,
		"Kind":        lead.Kind,
		"Category":    lead.Category,
		"Company":     lead.Company,
		"Location":    lead.Location,
		"Views":       lead.ViewCount,
		"Description": lead.Description,
	})
}

// ViewLead reports a single view through the immediate path and prints the outcome
func (s *LeadService) ViewLead(ctx context.Context, leadID string) error {
	s.tracker.MarkViewed(ctx, leadID)

	if s.tracker.Viewed(leadID) {
		output.PrintSuccess("View recorded for lead %s", leadID)
	} else {
		output.PrintWarning("View for lead %s was not recorded (see log)", leadID)
	}
	return nil
}

// LeadStats prints the view statistics of a lead
func (s *LeadService) LeadStats(leadID string) error {
	stats, err := api.GetLeadStats(leadID)
	if api.IsNotFound(err) {
		return clierrors.NotFoundError("Lead", leadID)
	}
	if err != nil {
		return fmt.Errorf("failed to get lead stats: %w", err)
	}

	return output.PrintRecord("Lead stats", map[string]interface{}{
		"Lead ID":         stats.LeadID,
		"Total views":     stats.ViewCount,
		"Unique sessions": stats.UniqueSessions,
		"Views (24h)":     stats.ViewsLast24h,
	})
}

// Watch replays visibility events from r, then waits for outstanding reports
// and prints the tracker summary
func (s *LeadService) Watch(ctx context.Context, r io.Reader, cfg viewtrack.ObserverConfig) error {
	session := NewWatchSession(s.tracker, cfg)
	if err := session.Run(ctx, r); err != nil {
		return fmt.Errorf("failed to read visibility events: %w", err)
	}
	if err := session.Drain(ctx); err != nil {
		return err
	}

	stats := s.tracker.Stats()
	return output.PrintRecord("View tracking", map[string]interface{}{
		"Events":   session.Events(),
		"Reported": stats.Reported,
		"Failed":   stats.Failed,
		"Skipped":  stats.Skipped,
		"Viewed":   stats.Viewed,
	})
}
