package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TraceRecordView starts a span around counting one lead view
func TraceRecordView(ctx context.Context, leadID, sessionID string) (context.Context, trace.Span) {
	return otel.Tracer("lead-views").Start(ctx, "lead.record_view",
		trace.WithAttributes(
			attribute.String("lead.id", leadID),
			attribute.Bool("session.present", sessionID != ""),
		),
	)
}

// EndRecordView finishes a TraceRecordView span with its outcome
func EndRecordView(span trace.Span, counted bool, err error) {
	defer span.End()

	span.SetAttributes(attribute.Bool("lead.view_counted", counted))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
