package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LISTEN_ADDR", "META_DB_PATH", "STORE_DRIVER", "STORE_PATH", "LOG_LEVEL", "ENV",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS", "AUTH_JWT_SECRET",
	"AUTH_ISSUER_URL", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_ALLOWED_ISSUERS",
	"RECONCILE_SCHEDULE", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "dyntable_meta.sqlite", cfg.MetaDBPath)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "dyntable_meta.sqlite", cfg.EffectiveStorePath())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.False(t, cfg.IsProduction())
	assert.InDelta(t, 100.0, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.ReconcileSchedule)
	assert.False(t, cfg.Auth.Enabled())
	assert.Len(t, cfg.Warnings, 1)
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("META_DB_PATH", "/tmp/meta.sqlite")
	t.Setenv("STORE_DRIVER", "DuckDB")
	t.Setenv("STORE_PATH", "/tmp/store.duckdb")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("RECONCILE_SCHEDULE", "@every 10m")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, DriverDuckDB, cfg.StoreDriver)
	assert.Equal(t, "/tmp/store.duckdb", cfg.EffectiveStorePath())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, "@every 10m", cfg.ReconcileSchedule)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "bad_driver", env: map[string]string{"STORE_DRIVER": "postgres"}, want: "STORE_DRIVER"},
		{name: "bad_rps", env: map[string]string{"RATE_LIMIT_RPS": "fast"}, want: "RATE_LIMIT_RPS"},
		{name: "bad_burst", env: map[string]string{"RATE_LIMIT_BURST": "-1"}, want: "RATE_LIMIT_BURST"},
		{name: "bad_timeout", env: map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, want: "SHUTDOWN_TIMEOUT"},
		{name: "issuer_without_audience", env: map[string]string{"AUTH_ISSUER_URL": "https://idp.example.com"}, want: "AUTH_AUDIENCE"},
		{name: "audience_without_issuer", env: map[string]string{"AUTH_AUDIENCE": "dyntable"}, want: "AUTH_AUDIENCE"},
		{name: "production_without_auth", env: map[string]string{"ENV": "production", "CORS_ALLOWED_ORIGINS": "https://a.example.com"}, want: "authentication"},
		{name: "production_wildcard_cors", env: map[string]string{"ENV": "production", "AUTH_JWT_SECRET": "x"}, want: "CORS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEffectiveStorePath_DuckDBInMemory(t *testing.T) {
	cfg := &Config{StoreDriver: DriverDuckDB, MetaDBPath: "meta.sqlite"}
	assert.Empty(t, cfg.EffectiveStorePath())
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Warnings, 2)
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadDotEnv_ParsesFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nDYNTABLE_TEST_A=plain\nexport DYNTABLE_TEST_B=\"quoted value\"\nDYNTABLE_TEST_C='single'\nnot a pair\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"DYNTABLE_TEST_A", "DYNTABLE_TEST_B", "DYNTABLE_TEST_C"} {
			_ = os.Unsetenv(k)
		}
	})

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "plain", os.Getenv("DYNTABLE_TEST_A"))
	assert.Equal(t, "quoted value", os.Getenv("DYNTABLE_TEST_B"))
	assert.Equal(t, "single", os.Getenv("DYNTABLE_TEST_C"))
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("DYNTABLE_TEST_PRECEDENCE", "from_env")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DYNTABLE_TEST_PRECEDENCE=from_file\n"), 0o600))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "from_env", os.Getenv("DYNTABLE_TEST_PRECEDENCE"))
}
