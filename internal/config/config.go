// Package config loads server settings from the environment and an optional
// YAML overlay, and token definitions from JSON, TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/R3E-Network/stablecoin_layer/internal/snapshot"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

// Snapshot backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds the server settings.
type Config struct {
	HTTPAddr        string `env:"SSS_HTTP_ADDR,default=:8080"`
	StateFile       string `env:"SSS_STATE_FILE,default=.sss-token-state.json"`
	SnapshotBackend string `env:"SSS_SNAPSHOT_BACKEND,default=file"`
	RedisAddr       string `env:"REDIS_ADDR"`
	DatabaseURL     string `env:"DATABASE_URL"`

	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`
	SlackWebhookURL   string `env:"SLACK_WEBHOOK_URL"`

	JWTSecret   string  `env:"SSS_JWT_SECRET"`
	CORSOrigins string  `env:"SSS_CORS_ORIGINS,default=*"`
	RateLimit   float64 `env:"SSS_RATE_LIMIT,default=20"`
	RateBurst   int     `env:"SSS_RATE_BURST,default=40"`

	FiatVerifyDelay   time.Duration `env:"SSS_FIAT_VERIFY_DELAY,default=800ms"`
	FiatVerifyTimeout time.Duration `env:"SSS_FIAT_VERIFY_TIMEOUT,default=5s"`

	SolanaWSURL        string `env:"SSS_SOLANA_WS_URL"`
	ProgramID          string `env:"SSS_PROGRAM_ID"`
	SuspicionScript    string `env:"SSS_SUSPICION_SCRIPT"`
	CheckpointSchedule string `env:"SSS_CHECKPOINT_SCHEDULE,default=@every 1m"`
	AuditFile          string `env:"SSS_AUDIT_FILE"`

	LogLevel   string `env:"LOG_LEVEL,default=info"`
	ConfigFile string `env:"SSS_CONFIG_FILE"`

	// Populated from the overlay file.
	Authority string
	Mint      string
	Token     token.Definition
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPAddr:           ":8080",
		StateFile:          snapshot.DefaultFileName,
		SnapshotBackend:    BackendFile,
		CORSOrigins:        "*",
		RateLimit:          20,
		RateBurst:          40,
		FiatVerifyDelay:    800 * time.Millisecond,
		FiatVerifyTimeout:  5 * time.Second,
		CheckpointSchedule: "@every 1m",
		LogLevel:           "info",
		Token:              DefaultDefinition(),
	}
}

// DefaultDefinition describes the token created when no definition is configured.
func DefaultDefinition() token.Definition {
	return token.Definition{Name: "Solana Stablecoin", Symbol: "SUSD", Preset: string(token.PresetSSS1)}
}

// Load reads .env (when present), decodes the environment and applies the
// overlay named by SSS_CONFIG_FILE.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv decodes the environment without touching .env files.
func FromEnv() (Config, error) {
	cfg := Default()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if cfg.ConfigFile != "" {
		overlay, err := LoadOverlay(cfg.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		overlay.apply(&cfg)
	}
	return cfg, cfg.Validate()
}

// Validate checks the backend selection and its required settings.
func (c Config) Validate() error {
	switch c.SnapshotBackend {
	case BackendFile:
		if c.StateFile == "" {
			return errors.New("config: SSS_STATE_FILE is required for the file backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR is required for the redis backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown snapshot backend %q", c.SnapshotBackend)
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("config: rate limit must not be negative")
	}
	return nil
}

// WebhookURL prefers Discord over Slack.
func (c Config) WebhookURL() string {
	if c.DiscordWebhookURL != "" {
		return c.DiscordWebhookURL
	}
	return c.SlackWebhookURL
}

// AllowedOrigins splits CORSOrigins on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
