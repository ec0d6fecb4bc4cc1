// Package config loads TRIAD Orchestrator configuration from environment
// variables with functional-option overrides, following the three-layer
// priority used throughout the teacher framework: defaults, then
// environment, then functional options (highest).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every tunable named in spec.md §6 ("Environment").
type Config struct {
	BindAddress string
	Port        int

	// Persistence
	PersistenceDSN string

	// Provider credentials (one per provider, per §6)
	StrategistAPIKey string
	PlannerAPIKey    string
	ValidatorRegion  string // Bedrock auth comes from the ambient AWS credential chain
	GeocoderAPIKey   string
	PlacesAPIKey     string
	RoutesAPIKey     string

	StrategistBaseURL string
	PlannerBaseURL    string
	GeocoderBaseURL   string
	PlacesBaseURL     string
	RoutesBaseURL     string

	// Per-phase deadlines and total budget (spec.md §4.6)
	Phase1Deadline time.Duration
	Phase2Deadline time.Duration
	Phase3Deadline time.Duration
	TotalBudget    time.Duration

	// Retry cooldown for idempotent re-enqueue (spec.md §4.2, Open Question c)
	RetryCooldown time.Duration

	// Whether to retain prior-attempt artifacts (spec.md §9, Open Question a)
	RetainPriorAttempts bool

	// Venue catalog seed file (YAML)
	CatalogSeedPath string

	// Redis (enrichment caches)
	RedisURL string

	LogLevel  string
	LogFormat string

	// Telemetry (spec.md §6; empty endpoint keeps spans local via stdout)
	ServiceName  string
	OTLPEndpoint string
}

// Option mutates a Config during construction; applied after environment
// variables, so options take precedence.
type Option func(*Config)

func WithBindAddress(addr string) Option { return func(c *Config) { c.BindAddress = addr } }
func WithPort(port int) Option           { return func(c *Config) { c.Port = port } }
func WithTotalBudget(d time.Duration) Option {
	return func(c *Config) { c.TotalBudget = d }
}
func WithRetryCooldown(d time.Duration) Option {
	return func(c *Config) { c.RetryCooldown = d }
}

// Defaults returns a Config populated with the spec's stated defaults
// (90s total budget, 30/20/40s phase deadlines, 30s retry cooldown).
func Defaults() *Config {
	return &Config{
		BindAddress:    "0.0.0.0",
		Port:           8080,
		Phase1Deadline: 30 * time.Second,
		Phase2Deadline: 20 * time.Second,
		Phase3Deadline: 40 * time.Second,
		TotalBudget:    90 * time.Second,
		RetryCooldown:  30 * time.Second,
		LogLevel:       "info",
		LogFormat:      "json",
		ServiceName:    "triad-orchestrator",
	}
}

func getEnvString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// Load builds the final Config: defaults, then environment, then opts.
func Load(opts ...Option) (*Config, error) {
	cfg := Defaults()

	cfg.BindAddress = getEnvString("TRIAD_BIND_ADDRESS", cfg.BindAddress)
	cfg.Port = getEnvInt("TRIAD_PORT", cfg.Port)

	cfg.PersistenceDSN = getEnvString("TRIAD_DATABASE_URL", "")

	cfg.StrategistAPIKey = getEnvString("TRIAD_STRATEGIST_API_KEY", "")
	cfg.PlannerAPIKey = getEnvString("TRIAD_PLANNER_API_KEY", "")
	cfg.ValidatorRegion = getEnvString("TRIAD_VALIDATOR_AWS_REGION", "us-east-1")
	cfg.GeocoderAPIKey = getEnvString("TRIAD_GEOCODER_API_KEY", "")
	cfg.PlacesAPIKey = getEnvString("TRIAD_PLACES_API_KEY", "")
	cfg.RoutesAPIKey = getEnvString("TRIAD_ROUTES_API_KEY", "")

	cfg.StrategistBaseURL = getEnvString("TRIAD_STRATEGIST_BASE_URL", "")
	cfg.PlannerBaseURL = getEnvString("TRIAD_PLANNER_BASE_URL", "")
	cfg.GeocoderBaseURL = getEnvString("TRIAD_GEOCODER_BASE_URL", "")
	cfg.PlacesBaseURL = getEnvString("TRIAD_PLACES_BASE_URL", "")
	cfg.RoutesBaseURL = getEnvString("TRIAD_ROUTES_BASE_URL", "")

	cfg.Phase1Deadline = getEnvDuration("TRIAD_PHASE1_DEADLINE", cfg.Phase1Deadline)
	cfg.Phase2Deadline = getEnvDuration("TRIAD_PHASE2_DEADLINE", cfg.Phase2Deadline)
	cfg.Phase3Deadline = getEnvDuration("TRIAD_PHASE3_DEADLINE", cfg.Phase3Deadline)
	cfg.TotalBudget = getEnvDuration("TRIAD_TOTAL_BUDGET", cfg.TotalBudget)
	cfg.RetryCooldown = getEnvDuration("TRIAD_RETRY_COOLDOWN", cfg.RetryCooldown)
	cfg.RetainPriorAttempts = getEnvBool("TRIAD_RETAIN_PRIOR_ATTEMPTS", false)

	cfg.CatalogSeedPath = getEnvString("TRIAD_CATALOG_SEED_PATH", "")
	cfg.RedisURL = getEnvString("TRIAD_REDIS_URL", "redis://localhost:6379/0")

	cfg.LogLevel = getEnvString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvString("LOG_FORMAT", cfg.LogFormat)

	cfg.ServiceName = getEnvString("TRIAD_SERVICE_NAME", cfg.ServiceName)
	cfg.OTLPEndpoint = getEnvString("TRIAD_OTEL_ENDPOINT", "")

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg, cfg.Validate()
}

// ExitCode maps a configuration-time failure to the process supervisor
// exit codes defined in spec.md §6.
type ExitCode int

const (
	ExitOK                  ExitCode = 0
	ExitConfigurationError  ExitCode = 1
	ExitPersistenceStartup  ExitCode = 2
	ExitNetworkEgressBlocked ExitCode = 3
)

// Validate requires TRIAD_DATABASE_URL, TRIAD_STRATEGIST_API_KEY and
// TRIAD_PLANNER_API_KEY and a port in 1..65535. The geocoder, places and
// routes keys are not checked, and the Validator has no key here.
// A missing required value is a configuration error (exit code 1).
func (c *Config) Validate() error {
	missing := make([]string, 0, 4)
	if c.PersistenceDSN == "" {
		missing = append(missing, "TRIAD_DATABASE_URL")
	}
	if c.StrategistAPIKey == "" {
		missing = append(missing, "TRIAD_STRATEGIST_API_KEY")
	}
	if c.PlannerAPIKey == "" {
		missing = append(missing, "TRIAD_PLANNER_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}
