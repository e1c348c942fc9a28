package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dense-identity/callcoach/internal/coach"
	"github.com/dense-identity/callcoach/internal/config"
	"github.com/dense-identity/callcoach/internal/eventcache"
	"github.com/dense-identity/callcoach/internal/logging"
	"github.com/dense-identity/callcoach/internal/phone"
	"github.com/dense-identity/callcoach/internal/signing"
	"github.com/dense-identity/callcoach/internal/telnyx"
	"github.com/dense-identity/callcoach/internal/webhook"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}
	cfg, err := config.New[config.CoachConfig]()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Parse(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("callcoach stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("callcoach stopped")
}

func run(ctx context.Context, cfg *config.CoachConfig, logger *slog.Logger) error {
	if !cfg.VerificationEnabled() {
		logger.Warn("TELNYX_PUBLIC_KEY not set: webhook signatures are NOT verified; do not run this way in production")
	}

	var seen coach.Deduper = eventcache.NewMemory(cfg.EventTTL)
	if cfg.RedisAddr != "" {
		rc, err := eventcache.NewRedis(ctx, eventcache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.EventTTL,
		})
		if err != nil {
			return err
		}
		defer rc.Close()
		seen = rc
		logger.Info("duplicate delivery cache on redis", "addr", cfg.RedisAddr)
	}

	client := telnyx.NewClient(telnyx.Options{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.APIBase,
		Timeout: cfg.ActionTimeout,
		Voice:   telnyx.Voice{Voice: cfg.Voice, Language: cfg.Language},
		Logger:  logger,
	})

	store := coach.NewStore()
	router := coach.NewRouter(store, client, coach.Settings{
		FromNumber:     cfg.FromNumber,
		ConnectionID:   cfg.ConnectionID,
		AssistantID:    cfg.AssistantID,
		CountryCode:    cfg.CountryCode,
		WhisperTrigger: cfg.WhisperTrigger,
		CoachScript:    cfg.CoachScript,
		Allowed:        phone.NewAllowList(cfg.AllowedCallers),
	}, logger)
	dispatcher := coach.NewDispatcher(router, seen, cfg.QueueSize, logger)

	server := webhook.NewServer(signing.NewVerifier(cfg.PublicKey), dispatcher, logger)

	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("webhook server listening", "addr", addr,
			"allow_list", len(cfg.AllowedCallers), "assistant", cfg.AssistantID != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down", "sessions", store.Count())
		for _, s := range store.All() {
			logger.Info("abandoning session", "agent_leg", s.AgentLegID,
				"stage", s.Stage, "customer_leg", s.CustomerLegID)
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
