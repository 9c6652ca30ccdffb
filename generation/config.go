package generation

import (
	"time"

	"github.com/BaSui01/easyvideo/config"
)

// Config 配置生成客户端.
type Config struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Locale  string `json:"locale,omitempty" yaml:"locale,omitempty"`

	// Timeout bounds ordinary JSON calls. Uploads use UploadTimeout and
	// progress streams have no overall timeout.
	Timeout               time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	UploadTimeout         time.Duration `json:"upload_timeout,omitempty" yaml:"upload_timeout,omitempty"`
	ResponseHeaderTimeout time.Duration `json:"response_header_timeout,omitempty" yaml:"response_header_timeout,omitempty"`

	// RateLimitRPS 为 0 时不限流.
	RateLimitRPS   float64 `json:"rate_limit_rps,omitempty" yaml:"rate_limit_rps,omitempty"`
	RateLimitBurst int     `json:"rate_limit_burst,omitempty" yaml:"rate_limit_burst,omitempty"`

	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	UserAgent          string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// DefaultConfig 返回与 config.DefaultClientConfig 一致的默认客户端配置.
func DefaultConfig() Config {
	return ConfigFromClientConfig(config.DefaultClientConfig())
}

// ConfigFromClientConfig 把加载器产出的 ClientConfig 转成客户端配置.
func ConfigFromClientConfig(c config.ClientConfig) Config {
	return Config{
		BaseURL:               c.BaseURL,
		APIKey:                c.APIKey,
		Locale:                c.Locale,
		Timeout:               c.Timeout,
		UploadTimeout:         c.UploadTimeout,
		ResponseHeaderTimeout: c.ResponseHeaderTimeout,
		RateLimitRPS:          c.RateLimitRPS,
		RateLimitBurst:        c.RateLimitBurst,
		InsecureSkipVerify:    c.InsecureSkipVerify,
		UserAgent:             c.UserAgent,
	}
}

// withDefaults fills zero values the way config.DefaultClientConfig does.
func (c Config) withDefaults() Config {
	def := config.DefaultClientConfig()
	if c.Locale == "" {
		c.Locale = def.Locale
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = def.UploadTimeout
	}
	if c.ResponseHeaderTimeout <= 0 {
		c.ResponseHeaderTimeout = def.ResponseHeaderTimeout
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 1
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	return c
}
