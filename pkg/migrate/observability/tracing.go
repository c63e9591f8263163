package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for migration operations.
const TracerName = "fpmigrate"

// Span attribute keys.
const (
	AttrStage      = "stage"
	AttrDryRun     = "dry_run"
	AttrTotal      = "total"
	AttrCreated    = "created"
	AttrExisted    = "already_existed"
	AttrSkipped    = "skipped"
	AttrErrors     = "errors"
	AttrFuzzy      = "fuzzy_matches"
	AttrCollisions = "collisions"
)

// SpanRun is the root span for one migration run.
const SpanRun = "fpmigrate.run"

// Tracer provides tracing for migration runs. It uses the otel API
// only; wiring an exporter is the operator's concern, and without one
// the spans are no-ops.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a migration tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(TracerName),
	}
}

// StartRunSpan starts the root span for a migration run.
func (t *Tracer) StartRunSpan(ctx context.Context, dryRun bool) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanRun,
		trace.WithAttributes(
			attribute.Bool(AttrDryRun, dryRun),
		),
	)
}

// StartStageSpan starts a span for one pipeline stage.
func (t *Tracer) StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("fpmigrate.stage.%s", stage),
		trace.WithAttributes(
			attribute.String(AttrStage, stage),
		),
	)
}

// EndStageSpan records a stage's counts on its span and ends it.
func EndStageSpan(span trace.Span, total, created, existed, skipped, errors int, err error) {
	span.SetAttributes(
		attribute.Int(AttrTotal, total),
		attribute.Int(AttrCreated, created),
		attribute.Int(AttrExisted, existed),
		attribute.Int(AttrSkipped, skipped),
		attribute.Int(AttrErrors, errors),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
