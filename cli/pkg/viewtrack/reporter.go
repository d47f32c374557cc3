package viewtrack

import "context"

// Reporter issues the "increment view count for lead X" call.
// Any non-nil error means the report failed; no finer classification is made.
type Reporter interface {
	ReportView(ctx context.Context, leadID string) error
}

// ReporterFunc adapts a plain function to the Reporter interface
type ReporterFunc func(ctx context.Context, leadID string) error

// ReportView calls f(ctx, leadID)
func (f ReporterFunc) ReportView(ctx context.Context, leadID string) error {
	return f(ctx, leadID)
}
