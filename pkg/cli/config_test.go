package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfig_ActiveProfile(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Host: "http://localhost:8080", Output: "table"},
			"staging": {Host: "https://staging.example.com", Output: "json"},
		},
	}

	tests := []struct {
		name     string
		current  string
		override string
		wantHost string
		wantErr  string
	}{
		{name: "uses current profile", current: "default", wantHost: "http://localhost:8080"},
		{name: "override to staging", current: "default", override: "staging", wantHost: "https://staging.example.com"},
		{name: "missing override is an error", current: "default", override: "nope", wantErr: `profile "nope" not found`},
		{name: "missing current profile is empty", current: "gone", wantHost: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.CurrentProfile = tt.current
			p, err := cfg.ActiveProfile(tt.override)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, p.Host)
		})
	}
}

func TestLoadSaveUserConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := &UserConfig{
		CurrentProfile: "test",
		Profiles: map[string]Profile{
			"test": {Host: "http://test:8080", Token: "tok"},
		},
	}
	require.NoError(t, SaveUserConfig(cfg))

	info, err := os.Stat(filepath.Join(dir, ".dyntable", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadUserConfig_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := LoadUserConfig()
	require.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"short", "abc", "****"},
		{"exactly_10", "1234567890", "****"},
		{"long_token", "eyJhbGciOiJIUzI1NiJ9.payload.sig", "eyJh****.sig"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskSecret(tt.input))
		})
	}
}

func TestMaskConfig_DoesNotMutate(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Host: "http://localhost:8080", Token: "eyJhbGciOiJIUzI1NiJ9.payload.signature"},
		},
	}

	masked := maskConfig(cfg)

	assert.Equal(t, "http://localhost:8080", masked.Profiles["default"].Host)
	assert.Equal(t, "eyJh****ture", masked.Profiles["default"].Token)
	assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.payload.signature", cfg.Profiles["default"].Token)
}
