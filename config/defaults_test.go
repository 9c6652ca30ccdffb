package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ClientConfig{}, cfg.Client)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
	assert.NotEqual(t, MetricsConfig{}, cfg.Metrics)
}

// --- Individual Default*Config functions ---

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	assert.Equal(t, "http://localhost:3001", cfg.BaseURL)
	assert.Equal(t, "zh-CN", cfg.Locale)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.UploadTimeout)
	assert.Equal(t, 30*time.Second, cfg.ResponseHeaderTimeout)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Empty(t, cfg.APIKey)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "easyvideo-client", cfg.ServiceName)
	assert.Equal(t, 0.1, cfg.SampleRate)
}

func TestDefaultMetricsConfig(t *testing.T) {
	cfg := DefaultMetricsConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "easyvideo_client", cfg.Namespace)
	assert.Empty(t, cfg.ListenAddr)
}

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestDefaultJournalConfig(t *testing.T) {
	cfg := DefaultJournalConfig()
	assert.Empty(t, cfg.Path, "journal is off unless a path is configured")
	assert.Equal(t, 50, cfg.ListLimit)
}

func TestDefaultCacheConfig(t *testing.T) {
	cfg := DefaultCacheConfig()
	assert.Empty(t, cfg.Addr, "cache is off unless an address is configured")
	assert.Equal(t, "easyvideo:", cfg.KeyPrefix)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}
