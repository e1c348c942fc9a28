package coach

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Deduper remembers delivery ids. MarkSeen reports true the first time an
// id is offered and false for every repeat within its retention window.
type Deduper interface {
	MarkSeen(ctx context.Context, id string) (bool, error)
}

// Dispatcher decouples webhook acknowledgement from event processing.
// Events are queued by the HTTP layer and applied to the Router one at a
// time by a single goroutine, so the store's scan-then-update steps never
// interleave.
type Dispatcher struct {
	router *Router
	seen   Deduper
	logger *slog.Logger

	events chan Event
}

// NewDispatcher creates a dispatcher with a bounded queue. seen may be nil.
func NewDispatcher(router *Router, seen Deduper, queueSize int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		router: router,
		seen:   seen,
		logger: logger.With("component", "dispatcher"),
		events: make(chan Event, queueSize),
	}
}

// hangupAdmitWait bounds how long a hangup waits for room in a full queue.
// A lost hangup would leave its session in the store for good.
const hangupAdmitWait = 5 * time.Second

// Enqueue drops repeat deliveries and hands the rest to the loop. Most
// events are dropped when the queue is full; hangups wait up to
// hangupAdmitWait for room. It reports whether the event was queued.
func (d *Dispatcher) Enqueue(ctx context.Context, ev Event) bool {
	meta := ev.EventMeta()
	log := d.logger.With("type", meta.Type, "id", meta.ID)

	if d.seen != nil && meta.ID != "" {
		first, err := d.seen.MarkSeen(ctx, meta.ID)
		if err != nil {
			log.Warn("duplicate check failed, queueing anyway", "error", err)
		} else if !first {
			eventsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "duplicate")))
			log.Debug("duplicate delivery dropped")
			return false
		}
	}

	select {
	case d.events <- ev:
		return true
	default:
	}

	if _, ok := ev.(LegHangup); ok {
		timer := time.NewTimer(hangupAdmitWait)
		defer timer.Stop()
		select {
		case d.events <- ev:
			return true
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	eventsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "queue_full")))
	log.Warn("event queue full, dropping event")
	return false
}

// Run processes queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("event loop started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("event loop stopped", "pending", len(d.events))
			return nil
		case ev := <-d.events:
			d.process(ctx, ev)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, ev Event) {
	meta := ev.EventMeta()
	log := d.logger.With("type", meta.Type, "id", meta.ID)

	ctx, span := tracer.Start(ctx, "coach.handle "+meta.Type, trace.WithAttributes(
		attribute.String("event.type", meta.Type),
		attribute.String("event.id", meta.ID),
	))
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("type", meta.Type))
	eventsHandled.Add(ctx, 1, attrs)

	if err := d.router.Handle(ctx, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		eventsFailed.Add(ctx, 1, attrs)
		log.Error("event handling failed", "error", err)
	}
}
