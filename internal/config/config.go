package config

import (
	"amongirl/internal/game"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds server configuration read from the environment
type Config struct {
	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB  string `env:"MONGO_DB" envDefault:"amongirl"`
	RedisURI string `env:"REDIS_URI" envDefault:"localhost:6379"`
	Port     string `env:"PORT" envDefault:"8080"`

	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CASMaxAttempts   int           `env:"CAS_MAX_ATTEMPTS" envDefault:"5"`
	SeedTasksOnStart bool          `env:"SEED_TASKS_ON_START" envDefault:"true"`

	SabotageWindow   time.Duration `env:"SABOTAGE_WINDOW" envDefault:"60s"`
	SabotageCooldown time.Duration `env:"SABOTAGE_COOLDOWN" envDefault:"120s"`
	VotingDuration   time.Duration `env:"VOTING_DURATION" envDefault:"30s"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// ResultStore selects the finished-game archive: "mongo" or "sqlite"
	ResultStore string `env:"RESULT_STORE" envDefault:"mongo"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/results.db"`

	// OTelEndpoint enables OTLP/HTTP tracing when set
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CASMaxAttempts < 1 {
		return nil, fmt.Errorf("CAS_MAX_ATTEMPTS must be at least 1, got %d", cfg.CASMaxAttempts)
	}
	for name, d := range map[string]time.Duration{
		"SABOTAGE_WINDOW":   cfg.SabotageWindow,
		"SABOTAGE_COOLDOWN": cfg.SabotageCooldown,
		"VOTING_DURATION":   cfg.VotingDuration,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	switch cfg.ResultStore {
	case "mongo", "sqlite":
	default:
		return nil, fmt.Errorf("RESULT_STORE must be mongo or sqlite, got %q", cfg.ResultStore)
	}
	return &cfg, nil
}

// RedisAddr returns the Redis address without a redis:// prefix
func (c *Config) RedisAddr() string {
	return strings.TrimPrefix(c.RedisURI, "redis://")
}

// Rules returns the game constants with the configured timings applied
func (c *Config) Rules() game.Rules {
	rules := game.DefaultRules()
	rules.SabotageWindow = c.SabotageWindow
	rules.SabotageCooldown = c.SabotageCooldown
	rules.VotingDuration = c.VotingDuration
	return rules
}
