package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearTriadEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"TRIAD_BIND_ADDRESS", "TRIAD_PORT", "TRIAD_DATABASE_URL",
		"TRIAD_STRATEGIST_API_KEY", "TRIAD_PLANNER_API_KEY", "TRIAD_VALIDATOR_AWS_REGION",
		"TRIAD_GEOCODER_API_KEY", "TRIAD_PLACES_API_KEY", "TRIAD_ROUTES_API_KEY",
		"TRIAD_STRATEGIST_BASE_URL", "TRIAD_PLANNER_BASE_URL", "TRIAD_GEOCODER_BASE_URL",
		"TRIAD_PLACES_BASE_URL", "TRIAD_ROUTES_BASE_URL",
		"TRIAD_PHASE1_DEADLINE", "TRIAD_PHASE2_DEADLINE", "TRIAD_PHASE3_DEADLINE",
		"TRIAD_TOTAL_BUDGET", "TRIAD_RETRY_COOLDOWN", "TRIAD_RETAIN_PRIOR_ATTEMPTS",
		"TRIAD_CATALOG_SEED_PATH", "TRIAD_REDIS_URL", "LOG_LEVEL", "LOG_FORMAT",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "0.0.0.0", cfg.BindAddress)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Phase1Deadline)
	assert.Equal(t, 20*time.Second, cfg.Phase2Deadline)
	assert.Equal(t, 40*time.Second, cfg.Phase3Deadline)
	assert.Equal(t, 90*time.Second, cfg.TotalBudget)
	assert.Equal(t, 30*time.Second, cfg.RetryCooldown)
}

func TestLoad_MissingRequiredCredentialsFailsValidation(t *testing.T) {
	clearTriadEnv(t)
	defer clearTriadEnv(t)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SucceedsWithRequiredEnv(t *testing.T) {
	clearTriadEnv(t)
	defer clearTriadEnv(t)

	os.Setenv("TRIAD_DATABASE_URL", "postgres://localhost/triad")
	os.Setenv("TRIAD_STRATEGIST_API_KEY", "key-a")
	os.Setenv("TRIAD_PLANNER_API_KEY", "key-b")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "postgres://localhost/triad", cfg.PersistenceDSN)
}

func TestLoad_OptionsOverrideEnvironment(t *testing.T) {
	clearTriadEnv(t)
	defer clearTriadEnv(t)

	os.Setenv("TRIAD_DATABASE_URL", "postgres://localhost/triad")
	os.Setenv("TRIAD_STRATEGIST_API_KEY", "key-a")
	os.Setenv("TRIAD_PLANNER_API_KEY", "key-b")
	os.Setenv("TRIAD_PORT", "9000")

	cfg, err := Load(WithPort(9999))
	assert.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
}

func TestValidate_RejectsOutOfRangePort(t *testing.T) {
	cfg := Defaults()
	cfg.PersistenceDSN = "postgres://x"
	cfg.StrategistAPIKey = "a"
	cfg.PlannerAPIKey = "b"
	cfg.Port = 70000

	assert.Error(t, cfg.Validate())
}
