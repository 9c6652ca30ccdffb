package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 📈 指标服务器
// =============================================================================

// Config 指标服务器配置
type Config struct {
	// 监听地址，":0" 表示随机端口
	Addr string `yaml:"addr" json:"addr"`

	// 读取请求头超时
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" json:"read_header_timeout"`

	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Addr:              "127.0.0.1:9464",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// Exporter 在独立端口上提供 /metrics
type Exporter struct {
	server   *http.Server
	listener net.Listener
	errCh    chan error
	config   Config
	logger   *zap.Logger

	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewExporter 创建指标服务器. gatherer 通常是 CLI 私有的 prometheus.Registry.
func NewExporter(gatherer prometheus.Gatherer, config Config, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(logger),
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Exporter{
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           mux,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
		errCh:  make(chan error, 1),
		config: config,
		logger: logger.With(zap.String("component", "metrics_server")),
	}
}

// Start 监听端口并在后台提供服务. 监听失败同步返回.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errors.New("metrics server is closed")
	}
	if e.started {
		return errors.New("metrics server already started")
	}

	ln, err := net.Listen("tcp", e.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", e.config.Addr, err)
	}
	e.listener = ln
	e.started = true

	e.logger.Info("metrics server listening", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server failed", zap.Error(err))
			select {
			case e.errCh <- err:
			default:
			}
		}
	}()
	return nil
}

// Shutdown 优雅关闭，可重复调用
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if !e.started {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.ShutdownTimeout)
	defer cancel()

	if err := e.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	e.logger.Debug("metrics server stopped")
	return nil
}

// Errors 返回后台服务错误通道
func (e *Exporter) Errors() <-chan error {
	return e.errCh
}

// Addr 返回实际监听地址，未启动时返回配置地址
func (e *Exporter) Addr() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.listener != nil {
		return e.listener.Addr().String()
	}
	return e.config.Addr
}

// IsRunning 报告服务器是否已启动且未关闭
func (e *Exporter) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.started && !e.closed
}
