package coach

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/dense-identity/callcoach/internal/coach"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)

	eventsHandled, _ = meter.Int64Counter("coach.events.handled",
		metric.WithDescription("Webhook events processed by the state machine"))
	eventsFailed, _ = meter.Int64Counter("coach.events.failed",
		metric.WithDescription("Webhook events whose handler returned an error"))
	eventsDropped, _ = meter.Int64Counter("coach.events.dropped",
		metric.WithDescription("Webhook events dropped as duplicates or on a full queue"))
)
