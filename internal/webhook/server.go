package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dense-identity/callcoach/internal/coach"
	"github.com/dense-identity/callcoach/internal/helpers"
)

const (
	HeaderSignature = "telnyx-signature-ed25519"
	HeaderTimestamp = "telnyx-timestamp"

	maxBodyBytes = 1 << 20
)

// Verifier authenticates a raw delivery.
type Verifier interface {
	VerifyWebhook(signature, timestamp string, body []byte) bool
}

// Queue accepts decoded events for asynchronous processing.
type Queue interface {
	Enqueue(ctx context.Context, ev coach.Event) bool
}

// Server is the HTTP surface: event deliveries and a health check.
// Deliveries are acknowledged with 200 before any call action runs;
// whatever happens afterwards is visible only in logs.
type Server struct {
	verifier Verifier
	queue    Queue
	logger   *slog.Logger
}

func NewServer(verifier Verifier, queue Queue, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		verifier: verifier,
		queue:    queue,
		logger:   logger.With("component", "webhook"),
	}
}

// Handler returns the routed, instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return otelhttp.NewHandler(r, "callcoach")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, readErr := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	w.WriteHeader(http.StatusOK)

	if readErr != nil {
		s.logger.Warn("failed to read webhook body", "error", readErr)
		return
	}

	signature := r.Header.Get(HeaderSignature)
	timestamp := r.Header.Get(HeaderTimestamp)
	if !s.verifier.VerifyWebhook(signature, timestamp, body) {
		s.logger.Warn("webhook signature verification failed",
			"remote", r.RemoteAddr,
			"has_signature", signature != "",
			"has_timestamp", timestamp != "",
			"body_sha256", helpers.Hash256Hex(body))
		return
	}

	ev, err := coach.Decode(body)
	if err != nil {
		s.logger.Debug("undecodable webhook ignored", "error", err)
		return
	}

	meta := ev.EventMeta()
	s.logger.Debug("webhook received", "type", meta.Type, "id", meta.ID)
	s.queue.Enqueue(r.Context(), ev)
}
