package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Database: DatabaseConfig{URL: "postgres://localhost/billing"},
		Redis:    RedisConfig{URL: "redis://localhost:6379"},
		Session:  SessionConfig{JWTSecret: "secret", TokenTTL: 30 * time.Minute, RotationGrace: 30 * time.Second},
	}
}

func TestValidateReportsMissingValues(t *testing.T) {
	var cfg Config
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "BILLING_DATABASE_URL")
	require.Contains(t, err.Error(), "BILLING_REDIS_URL")
	require.Contains(t, err.Error(), "BILLING_SESSION_JWT_SECRET")
}

func TestValidateFillsReportingDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "UTC", cfg.Reporting.Timezone)
	require.Equal(t, []string{"daily", "weekly", "monthly", "yearly"}, cfg.Reporting.ValidBucketSizes)
	require.Equal(t, "billing-api", cfg.Session.Issuer)
	require.Equal(t, time.UTC, cfg.Reporting.Location())
}

func TestValidateRejectsUnknownBucketSize(t *testing.T) {
	cfg := validConfig()
	cfg.Reporting.ValidBucketSizes = []string{"daily", "hourly"}
	require.ErrorContains(t, cfg.Validate(), "hourly")
}

func TestValidateSplitsCommaSeparatedBuckets(t *testing.T) {
	cfg := validConfig()
	cfg.Reporting.ValidBucketSizes = []string{"Daily, monthly"}
	require.NoError(t, cfg.Validate())
	require.Equal(t, []string{"daily", "monthly"}, cfg.Reporting.ValidBucketSizes)
}

func TestValidateRejectsBadTimezoneAndSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Reporting.Timezone = "Mars/Olympus"
	require.ErrorContains(t, cfg.Validate(), "reporting.timezone")

	cfg = validConfig()
	cfg.UserDirectory.RefreshSchedule = "every now and then"
	require.ErrorContains(t, cfg.Validate(), "refresh_schedule")
}

func TestValidateRotationGraceBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Session.RotationGrace = time.Hour
	require.ErrorContains(t, cfg.Validate(), "rotation_grace")
}

func TestValidateBootstrapReferences(t *testing.T) {
	cfg := validConfig()
	cfg.Bootstrap = BootstrapConfig{
		Users:    []BootstrapUser{{Username: "alice", Password: "pw"}},
		Projects: []BootstrapProject{{ID: "p1"}},
		Grants:   []BootstrapGrant{{Username: "alice", Project: "p1", Role: " Billing "}},
	}
	require.NoError(t, cfg.Validate())
	require.Equal(t, "billing", cfg.Bootstrap.Grants[0].Role)
	require.Equal(t, "p1", cfg.Bootstrap.Projects[0].Name)

	cfg.Bootstrap.Grants = append(cfg.Bootstrap.Grants, BootstrapGrant{Username: "bob", Project: "p1", Role: "member"})
	require.ErrorContains(t, cfg.Validate(), "bootstrap.grants[1].username")
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "billing.yaml")
	content := []byte(`
database:
  url: postgres://file/billing
  run_migrations: false
redis:
  url: redis://file:6379
session:
  jwt_secret: from-file
  token_ttl: 10m
reporting:
  timezone: America/Toronto
  valid_bucket_sizes: [daily, monthly]
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("BILLING_REDIS_URL", "redis://env:6379")

	cfg, err := Load(Options{ConfigFile: path, EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	require.Equal(t, "postgres://file/billing", cfg.Database.URL)
	require.Equal(t, "redis://env:6379", cfg.Redis.URL)
	require.Equal(t, 10*time.Minute, cfg.Session.TokenTTL)
	require.Equal(t, 30*time.Second, cfg.Session.RotationGrace)
	require.Equal(t, []string{"daily", "monthly"}, cfg.Reporting.ValidBucketSizes)
	require.Equal(t, "America/Toronto", cfg.Reporting.Location().String())
	require.Equal(t, ":8080", cfg.Server.ListenAddr)
}
