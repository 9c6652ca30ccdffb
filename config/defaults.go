// =============================================================================
// 📦 EasyVideo 默认配置
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Client:    DefaultClientConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
		Journal:   DefaultJournalConfig(),
		Cache:     DefaultCacheConfig(),
	}
}

// DefaultClientConfig 返回默认客户端配置
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:               "http://localhost:3001",
		Locale:                "zh-CN",
		Timeout:               60 * time.Second,
		UploadTimeout:         5 * time.Minute,
		ResponseHeaderTimeout: 30 * time.Second,
		RateLimitRPS:          0,
		RateLimitBurst:        1,
		UserAgent:             "easyvideo-go",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "easyvideo-client",
		SampleRate:   0.1,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:    false,
		Namespace:  "easyvideo_client",
		ListenAddr: "",
	}
}

// DefaultJournalConfig 返回默认本地任务记录配置
func DefaultJournalConfig() JournalConfig {
	return JournalConfig{
		Path:      "",
		ListLimit: 50,
	}
}

// DefaultCacheConfig 返回默认缓存配置，Addr 为空表示关闭
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Addr:      "",
		KeyPrefix: "easyvideo:",
		TTL:       5 * time.Minute,
	}
}
