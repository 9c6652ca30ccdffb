// 配置加载器测试。
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().WithEnvPrefix("EVTEST_DEFAULTS").Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultClientConfig(), cfg.Client)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "easyvideo.yaml")

	yamlContent := `
client:
  base_url: "https://gen.example.com"
  api_key: "sk-file"
  locale: "en-US"
  timeout: 15s
  rate_limit_rps: 2.5
  rate_limit_burst: 5

log:
  level: debug
  format: json
  output_paths:
    - stdout
    - /tmp/easyvideo.log

metrics:
  enabled: true
  listen_addr: ":9464"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).WithEnvPrefix("EVTEST_YAML").Load()
	require.NoError(t, err)

	assert.Equal(t, "https://gen.example.com", cfg.Client.BaseURL)
	assert.Equal(t, "sk-file", cfg.Client.APIKey)
	assert.Equal(t, "en-US", cfg.Client.Locale)
	assert.Equal(t, 15*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 2.5, cfg.Client.RateLimitRPS)
	assert.Equal(t, 5, cfg.Client.RateLimitBurst)
	// 未在文件中出现的字段保留默认值
	assert.Equal(t, 5*time.Minute, cfg.Client.UploadTimeout)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"stdout", "/tmp/easyvideo.log"}, cfg.Log.OutputPaths)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9464", cfg.Metrics.ListenAddr)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).
		WithEnvPrefix("EVTEST_MISSING").
		Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultClientConfig().BaseURL, cfg.Client.BaseURL)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("client: [unterminated"), 0o644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config from file")
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "easyvideo.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("client:\n  base_url: http://file:3001\n  timeout: 10s\n"), 0o644))

	t.Setenv("EVTEST_ENV_CLIENT_BASE_URL", "http://env:3001")
	t.Setenv("EVTEST_ENV_CLIENT_TIMEOUT", "45s")
	t.Setenv("EVTEST_ENV_CLIENT_INSECURE_SKIP_VERIFY", "true")
	t.Setenv("EVTEST_ENV_LOG_OUTPUT_PATHS", "stdout, stderr")
	t.Setenv("EVTEST_ENV_TELEMETRY_SAMPLE_RATE", "0.5")
	t.Setenv("EVTEST_ENV_JOURNAL_PATH", "/tmp/easyvideo/journal.db")
	t.Setenv("EVTEST_ENV_CACHE_ADDR", "redis:6379")
	t.Setenv("EVTEST_ENV_CACHE_TTL", "90s")

	cfg, err := NewLoader().WithConfigPath(configPath).WithEnvPrefix("EVTEST_ENV").Load()
	require.NoError(t, err)

	assert.Equal(t, "http://env:3001", cfg.Client.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Client.Timeout)
	assert.True(t, cfg.Client.InsecureSkipVerify)
	assert.Equal(t, []string{"stdout", "stderr"}, cfg.Log.OutputPaths)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)
	assert.Equal(t, "/tmp/easyvideo/journal.db", cfg.Journal.Path)
	assert.Equal(t, "redis:6379", cfg.Cache.Addr)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
}

func TestLoader_BadEnvValue(t *testing.T) {
	t.Setenv("EVTEST_BAD_CLIENT_TIMEOUT", "soon")

	_, err := NewLoader().WithEnvPrefix("EVTEST_BAD").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVTEST_BAD_CLIENT_TIMEOUT")
}

func TestLoader_Validators(t *testing.T) {
	called := false
	_, err := NewLoader().
		WithEnvPrefix("EVTEST_VALIDATOR").
		WithValidator(func(c *Config) error {
			called = true
			return errors.New("nope")
		}).
		Load()
	require.Error(t, err)
	assert.True(t, called)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults ok", mutate: func(*Config) {}},
		{name: "relative url", mutate: func(c *Config) { c.Client.BaseURL = "/api" }, wantErr: "base_url"},
		{name: "bad scheme", mutate: func(c *Config) { c.Client.BaseURL = "ftp://host" }, wantErr: "base_url"},
		{name: "zero timeout", mutate: func(c *Config) { c.Client.Timeout = 0 }, wantErr: "client.timeout"},
		{name: "zero upload timeout", mutate: func(c *Config) { c.Client.UploadTimeout = 0 }, wantErr: "upload_timeout"},
		{name: "negative rps", mutate: func(c *Config) { c.Client.RateLimitRPS = -1 }, wantErr: "rate_limit_rps"},
		{name: "rps without burst", mutate: func(c *Config) { c.Client.RateLimitRPS = 1; c.Client.RateLimitBurst = 0 }, wantErr: "rate_limit_burst"},
		{name: "negative journal limit", mutate: func(c *Config) { c.Journal.ListLimit = -1 }, wantErr: "journal.list_limit"},
		{name: "cache without ttl", mutate: func(c *Config) { c.Cache.Addr = "localhost:6379"; c.Cache.TTL = 0 }, wantErr: "cache.ttl"},
		{name: "sample rate", mutate: func(c *Config) { c.Telemetry.SampleRate = 2 }, wantErr: "sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
