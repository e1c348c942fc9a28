package telnyx

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/dense-identity/callcoach/internal/telnyx"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)

	actionFailures, _ = meter.Int64Counter("telnyx.action.failures",
		metric.WithDescription("Call control actions that returned an error"))
)
