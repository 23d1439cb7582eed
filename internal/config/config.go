// Package config provides centralized configuration loaded from environment
// variables. Shared by every goalwatch subcommand.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal containers
)

// --------------------------------------------------------------------------
// Defaults — the tracked team and data provider
// --------------------------------------------------------------------------

const (
	DefaultTeamID      = 16 // Chicago Blackhawks
	DefaultTeamName    = "Chicago Blackhawks"
	DefaultTimezone    = "America/Chicago"
	DefaultNHLBaseURL  = "https://api-web.nhle.com/v1/"
	DefaultLedgerTable = "goal_notifications"
)

// Ledger backends.
const (
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
	LedgerBolt     = "bolt"
	LedgerMemory   = "memory"
)

// Notifier backends.
const (
	NotifierWebhook = "webhook"
	NotifierMQTT    = "mqtt"
	NotifierLog     = "log"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Tracked team
	TeamID   int
	TeamName string
	Location *time.Location

	// Data provider
	NHLBaseURL           string
	NHLRequestsPerMinute int
	CallTimeout          time.Duration

	// Ledger
	LedgerBackend  string
	LedgerTable    string
	LedgerTTL      time.Duration
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	RedisURL       string
	BoltPath       string

	// Notifier
	Notifier      string
	NotifyChannel string
	WebhookSecret string
	MQTTBrokerURL string

	// Observability
	PushgatewayURL string
	LogLevel       slog.Level
	LogFormat      string
	Environment    string
}

// Option adjusts a Config after it is read from the environment and before
// it is validated.
type Option func(*Config)

// DryRun swaps in the in-memory ledger and the log notifier, so no
// ledger or notifier settings are required.
func DryRun(c *Config) {
	c.LedgerBackend = LedgerMemory
	c.Notifier = NotifierLog
}

// Load reads configuration from environment variables with sensible defaults,
// applies opts, and validates the settings the selected backends depend on.
func Load(opts ...Option) (*Config, error) {
	tz := envOr("TIMEZONE", DefaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", tz, err)
	}

	level, err := parseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TeamID:   envInt("TEAM_ID", DefaultTeamID),
		TeamName: envOr("TEAM_NAME", DefaultTeamName),
		Location: loc,

		NHLBaseURL:           envOr("NHL_API_BASE_URL", DefaultNHLBaseURL),
		NHLRequestsPerMinute: envInt("NHL_REQUESTS_PER_MINUTE", 60),
		CallTimeout:          time.Duration(envInt("CALL_TIMEOUT_SECONDS", 10)) * time.Second,

		LedgerBackend:  strings.ToLower(envOr("LEDGER_BACKEND", LedgerPostgres)),
		LedgerTable:    envOr("LEDGER_TABLE", envOr("DYNAMODB_TABLE_NAME", DefaultLedgerTable)),
		LedgerTTL:      time.Duration(envInt("LEDGER_TTL_HOURS", 0)) * time.Hour,
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 0),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 4),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		RedisURL:       envOr("REDIS_URL", ""),
		BoltPath:       envOr("LEDGER_BOLT_PATH", "goalwatch.db"),

		Notifier:      strings.ToLower(envOr("NOTIFIER", NotifierWebhook)),
		NotifyChannel: envOr("NOTIFY_CHANNEL", ""),
		WebhookSecret: envOr("WEBHOOK_SECRET", ""),
		MQTTBrokerURL: envOr("MQTT_BROKER_URL", ""),

		PushgatewayURL: envOr("PUSHGATEWAY_URL", ""),
		LogLevel:       level,
		LogFormat:      strings.ToLower(envOr("LOG_FORMAT", "")),
		Environment:    envOr("ENVIRONMENT", "development"),
	}

	// Production logs go to a collector; default them to JSON.
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every backend has the settings it needs.
func (c *Config) Validate() error {
	if c.TeamID <= 0 {
		return fmt.Errorf("TEAM_ID must be positive, got %d", c.TeamID)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT_SECONDS must be positive")
	}

	switch c.LedgerBackend {
	case LedgerPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for the %s ledger", c.LedgerBackend)
		}
	case LedgerRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set for the %s ledger", c.LedgerBackend)
		}
	case LedgerBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("LEDGER_BOLT_PATH must be set for the %s ledger", c.LedgerBackend)
		}
	case LedgerMemory:
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.LedgerBackend)
	}

	switch c.Notifier {
	case NotifierWebhook:
		if c.NotifyChannel == "" {
			return fmt.Errorf("NOTIFY_CHANNEL must be set to a URL for the webhook notifier")
		}
	case NotifierMQTT:
		if c.NotifyChannel == "" || c.MQTTBrokerURL == "" {
			return fmt.Errorf("NOTIFY_CHANNEL and MQTT_BROKER_URL must be set for the mqtt notifier")
		}
	case NotifierLog:
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.Notifier)
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
