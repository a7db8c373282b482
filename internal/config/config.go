// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported physical store drivers.
const (
	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
)

// AuthConfig holds bearer-token authentication settings. Auth is off unless
// a shared secret or an identity provider is configured.
type AuthConfig struct {
	JWTSecret      string   // HS256 shared secret
	IssuerURL      string   // OIDC issuer URL (discovery)
	JWKSURL        string   // JWKS URL, skips discovery
	Audience       string   // required JWT audience claim
	AllowedIssuers []string // accepted issuers (defaults to [IssuerURL])
}

// OIDCEnabled returns true when an external identity provider is configured.
func (a *AuthConfig) OIDCEnabled() bool {
	return a.IssuerURL != "" || a.JWKSURL != ""
}

// Enabled reports whether requests must carry a bearer token.
func (a *AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || a.OIDCEnabled()
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if a.OIDCEnabled() && a.Audience == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required when AUTH_ISSUER_URL or AUTH_JWKS_URL is set")
	}
	if a.Audience != "" && !a.OIDCEnabled() {
		return fmt.Errorf("AUTH_AUDIENCE is set but neither AUTH_ISSUER_URL nor AUTH_JWKS_URL is")
	}
	return nil
}

// Config holds the configuration of the table server.
type Config struct {
	ListenAddr  string // HTTP listen address (default ":8080")
	MetaDBPath  string // SQLite file holding the catalog registry
	StoreDriver string // physical store: sqlite or duckdb
	StorePath   string // physical store location; see EffectiveStorePath
	LogLevel    string // log level: debug, info, warn, error (default "info")
	Env         string // environment: "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	Auth AuthConfig

	// ReconcileSchedule is a cron spec for the catalog reconciler; empty disables it.
	ReconcileSchedule string
	ShutdownTimeout   time.Duration

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// EffectiveStorePath returns where the physical tables live. SQLite shares
// the catalog file unless told otherwise; DuckDB defaults to in-memory ("").
func (c *Config) EffectiveStorePath() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	if c.StoreDriver == DriverSQLite {
		return c.MetaDBPath
	}
	return ""
}

// LoadFromEnv loads configuration from environment variables and applies
// defaults. The result is validated.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:        os.Getenv("LISTEN_ADDR"),
		MetaDBPath:        os.Getenv("META_DB_PATH"),
		StoreDriver:       strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER"))),
		StorePath:         os.Getenv("STORE_PATH"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		Env:               os.Getenv("ENV"),
		ReconcileSchedule: strings.TrimSpace(os.Getenv("RECONCILE_SCHEDULE")),
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
			IssuerURL: os.Getenv("AUTH_ISSUER_URL"),
			JWKSURL:   os.Getenv("AUTH_JWKS_URL"),
			Audience:  os.Getenv("AUTH_AUDIENCE"),
		},
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_RPS must be a positive number, got %q", v)
		}
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer, got %q", v)
		}
		cfg.RateLimitBurst = n
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}
	if v := os.Getenv("AUTH_ALLOWED_ISSUERS"); v != "" {
		cfg.Auth.AllowedIssuers = splitList(v)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.MetaDBPath == "" {
		c.MetaDBPath = "dyntable_meta.sqlite"
	}
	if c.StoreDriver == "" {
		c.StoreDriver = DriverSQLite
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if c.RateLimitRPS == 0 {
		c.RateLimitRPS = 100
	}
	if c.RateLimitBurst == 0 {
		c.RateLimitBurst = 200
	}
	if len(c.CORSAllowedOrigins) == 0 {
		c.CORSAllowedOrigins = []string{"*"}
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
}

// Validate checks the configuration after defaults and flag overrides have
// been applied. Non-fatal findings are appended to Warnings.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverDuckDB:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverDuckDB, c.StoreDriver)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must not be negative")
	}

	c.Warnings = nil
	if !c.Auth.Enabled() {
		c.Warnings = append(c.Warnings, "authentication is disabled: set AUTH_JWT_SECRET or AUTH_ISSUER_URL")
	}
	if c.StoreDriver == DriverDuckDB && c.EffectiveStorePath() == "" {
		c.Warnings = append(c.Warnings, "DuckDB store is in-memory: tables are lost on restart while the catalog keeps their names")
	}

	if c.IsProduction() {
		if !c.Auth.Enabled() {
			return fmt.Errorf("authentication must be configured in production (ENV=production)")
		}
		if len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*" {
			return fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
