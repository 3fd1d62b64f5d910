package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
debug: true
database:
  host: localhost
  user: pulse
  dbname: pulse
redis:
  addr: localhost:6379
llm:
  mock: true
poster:
  mock: true
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout())
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 5, cfg.Pipeline.TopN)
	assert.Equal(t, 5, cfg.Pipeline.Concurrency)
	assert.Equal(t, 24.0, cfg.Pipeline.HalfLifeHours)
	assert.Equal(t, 168.0, cfg.Pipeline.MaxAgeHours)
	assert.Equal(t, 0.5, cfg.Pipeline.MinFactConfidence)
	assert.Equal(t, 0.3, cfg.Pipeline.MinSummaryConfidence)
	assert.False(t, cfg.Pipeline.FailOnExhausted)

	assert.Equal(t, 90, cfg.Sources.Search.Rate.MaxRequests)
	assert.Equal(t, 24*time.Hour, cfg.Sources.Search.Rate.Window())
	assert.Equal(t, 100, cfg.Sources.Feed.Rate.MaxRequests)
	assert.Equal(t, 50, cfg.Poster.Rate.MaxRequests)
	assert.Equal(t, time.Hour, cfg.Poster.Rate.Window())

	assert.Equal(t, 30*time.Minute, cfg.Jobs.StaleAfter())
	assert.Equal(t, 5*time.Second, cfg.Jobs.PollInterval())
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			name:   "missing redis addr",
			yaml:   "database:\n  host: localhost\nllm:\n  mock: true\nposter:\n  mock: true\n",
			errMsg: "redis.addr is required",
		},
		{
			name:   "missing database host",
			yaml:   "redis:\n  addr: localhost:6379\nllm:\n  mock: true\nposter:\n  mock: true\n",
			errMsg: "database.host is required",
		},
		{
			name:   "llm key required without mock",
			yaml:   "database:\n  host: localhost\nredis:\n  addr: localhost:6379\nposter:\n  mock: true\n",
			errMsg: "llm.api_key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("PULSE_PORT", "9000")
	t.Setenv("MOCK_SOURCES", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.True(t, cfg.Sources.EnableMock)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestTone(t *testing.T) {
	cfg := PipelineConfig{Tones: map[string]string{"business": "casual"}}

	assert.Equal(t, "casual", cfg.Tone("Business"))
	assert.Equal(t, "professional", cfg.Tone("technology"))
}
