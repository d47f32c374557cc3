package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/leadbridge/marketplace/cli/pkg/client"
	"github.com/leadbridge/marketplace/cli/pkg/logger"
)

// ViewSource labels views reported by this client
const ViewSource = "cli"

func leadPath(leadID string, suffix string) string {
	return fmt.Sprintf("/api/v1/leads/%s%s", url.PathEscape(leadID), suffix)
}

// IncrementLeadView asks the backend to count one view of a lead
func IncrementLeadView(ctx context.Context, leadID string) (*ViewResponse, error) {
	logger.Debug("Incrementing lead view", "lead_id", leadID)

	var response ViewResponse
	resp, err := client.GetClient().
		R().
		SetContext(ctx).
		SetBody(map[string]string{"source": ViewSource}).
		SetResult(&response).
		Post(leadPath(leadID, "/view"))

	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}

	return &response, nil
}

// GetLead retrieves a single lead
func GetLead(leadID string) (*Lead, error) {
	logger.Debug("Getting lead", "lead_id", leadID)

	var response struct {
		Lead Lead `json:"lead"`
	}

	resp, err := client.GetClient().
		R().
		SetResult(&response).
		Get(leadPath(leadID, ""))

	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}

	return &response.Lead, nil
}

// GetLeadStats retrieves the view statistics of a lead
func GetLeadStats(leadID string) (*LeadStats, error) {
	logger.Debug("Getting lead stats", "lead_id", leadID)

	var response struct {
		Stats LeadStats `json:"stats"`
	}

	resp, err := client.GetClient().
		R().
		SetResult(&response).
		Get(leadPath(leadID, "/stats"))

	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}

	return &response.Stats, nil
}

// ListLeads retrieves a page of leads, most viewed first when popular is set
func ListLeads(page, pageSize int, popular bool) (*LeadListResponse, error) {
	logger.Debug("Listing leads", "page", page, "page_size", pageSize)

	params := map[string]string{
		"page":      fmt.Sprintf("%d", page),
		"page_size": fmt.Sprintf("%d", pageSize),
	}
	if popular {
		params["sort"] = "views"
	}

	var response LeadListResponse
	resp, err := client.GetClient().
		R().
		SetQueryParams(params).
		SetResult(&response).
		Get("/api/v1/leads")

	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}

	return &response, nil
}

// ViewReporter reports lead views through the backend view counter
type ViewReporter struct{}

// ReportView implements viewtrack.Reporter
func (ViewReporter) ReportView(ctx context.Context, leadID string) error {
	_, err := IncrementLeadView(ctx, leadID)
	return err
}
