package web

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "web.json", []byte(`{
		"server": {"port": 9090, "allowed_origins": ["https://lostfound.klu.edu"]},
		"rate_limit": {"enabled": false},
		"features": {"record_history": false}
	}`), 0o644))

	cfg, err := LoadConfig(fs, "web.json")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset fields keep their defaults")
	assert.Equal(t, []string{"https://lostfound.klu.edu"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerMinute)
	assert.False(t, cfg.Features.RecordHistory)
	assert.True(t, cfg.Features.EnhancedEnabled)
}

func TestLoadConfigErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad-port.json", []byte(`{"server": {"port": 70000}}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "broken.json", []byte(`{"server":`), 0o644))

	tests := []struct {
		name     string
		filename string
	}{
		{"missing file", "absent.json"},
		{"invalid port", "bad-port.json"},
		{"malformed json", "broken.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(fs, tt.filename)
			assert.Error(t, err)
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8181")
	t.Setenv("API_KEY", "secret")
	t.Setenv("RATE_LIMIT_RPM", "30")
	t.Setenv("ENHANCED_MATCHING", "false")

	cfg := ConfigFromEnv()
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Auth.APIKey)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.False(t, cfg.Features.EnhancedEnabled)
	assert.NoError(t, cfg.Validate())
}
