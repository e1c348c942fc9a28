package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dense-identity/callcoach/internal/phone"
	"github.com/dense-identity/callcoach/internal/signing"
)

const DefaultCoachScript = "Coaching tip: slow down, confirm the customer's name, " +
	"and ask one open question before presenting the offer."

type CoachConfig struct {
	Port     string `env:"PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Provider API
	APIKey        string        `env:"TELNYX_API_KEY,required,notEmpty"`
	APIBase       string        `env:"TELNYX_API_BASE" envDefault:"https://api.telnyx.com/v2"`
	ActionTimeout time.Duration `env:"ACTION_TIMEOUT" envDefault:"10s"`

	// Webhook verification. Empty disables verification entirely.
	PublicKeyStr string `env:"TELNYX_PUBLIC_KEY"`
	PublicKey    []byte

	// Call flow
	FromNumber     string   `env:"FROM_NUMBER,required,notEmpty"`
	ConnectionID   string   `env:"CONNECTION_ID,required,notEmpty"`
	AssistantID    string   `env:"ASSISTANT_ID"`
	AllowedCallers []string `env:"ALLOWED_CALLERS" envSeparator:","`
	CountryCode    string   `env:"COUNTRY_CODE" envDefault:"61"`
	Voice          string   `env:"VOICE" envDefault:"female"`
	Language       string   `env:"LANGUAGE" envDefault:"en-AU"`
	WhisperTrigger string   `env:"WHISPER_TRIGGER" envDefault:"*2"`
	CoachScript    string   `env:"COACH_SCRIPT"`

	// Event handling
	QueueSize     int           `env:"QUEUE_SIZE" envDefault:"256"`
	EventTTL      time.Duration `env:"EVENT_TTL" envDefault:"10m"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
}

// Parse decodes key material and normalizes the caller allow-list.
func (cfg *CoachConfig) Parse() error {
	if cfg == nil {
		return errors.New("failed to parse config")
	}

	if cfg.PublicKeyStr != "" {
		key, err := signing.DecodePublicKey(cfg.PublicKeyStr)
		if err != nil {
			return fmt.Errorf("TELNYX_PUBLIC_KEY: %w", err)
		}
		cfg.PublicKey = key
	}

	if cfg.CoachScript == "" {
		cfg.CoachScript = DefaultCoachScript
	}
	if cfg.QueueSize <= 0 {
		return fmt.Errorf("QUEUE_SIZE must be positive, got %d", cfg.QueueSize)
	}

	allowed := make([]string, 0, len(cfg.AllowedCallers))
	for _, raw := range cfg.AllowedCallers {
		if n, ok := phone.Normalize(raw, cfg.CountryCode); ok {
			allowed = append(allowed, n)
		}
	}
	cfg.AllowedCallers = allowed

	return nil
}

// VerificationEnabled reports whether inbound webhooks are signature checked.
func (cfg *CoachConfig) VerificationEnabled() bool {
	return len(cfg.PublicKey) > 0
}
