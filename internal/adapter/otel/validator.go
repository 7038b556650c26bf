package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

const tracerName = "github.com/harmonia-labs/lessonbook/internal/adapter/otel"

// TracingValidator wraps a domain.TransitionValidator with OpenTelemetry
// tracing. Each status transition attempt becomes a span, including the
// rejected ones, which makes invalid-transition failures visible in traces
// next to the SQL spans of the surrounding transaction.
type TracingValidator struct {
	next   domain.TransitionValidator
	tracer trace.Tracer
}

// Compile-time check: TracingValidator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*TracingValidator)(nil)

// NewTracingValidator creates a tracing decorator around the given validator.
func NewTracingValidator(next domain.TransitionValidator) *TracingValidator {
	return &TracingValidator{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (v *TracingValidator) Apply(ctx context.Context, kind domain.Kind, current domain.Status, transition domain.Transition) (domain.Status, error) {
	ctx, span := v.tracer.Start(ctx, "TransitionValidator.Apply",
		trace.WithAttributes(
			attribute.String("entity.kind", string(kind)),
			attribute.String("status.current", string(current)),
			attribute.String("status.transition", string(transition)),
		),
	)
	defer span.End()

	next, err := v.next.Apply(ctx, kind, current, transition)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.String("status.next", string(next)))
	return next, nil
}
