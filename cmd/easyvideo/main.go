// =============================================================================
// EasyVideo 命令行入口
// =============================================================================
// 使用方法:
//
//	easyvideo image --prompt "雪山日出" --wait       # 文生图并等待完成
//	easyvideo upload ./cat.png                         # 上传图片
//	easyvideo video --image ./cat.png --wait           # 上传后图生视频
//	easyvideo watch <task-id> [<task-id>...]           # 跟踪任务进度
//	easyvideo --config easyvideo.yaml tasks --status running
//	easyvideo version                                  # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/easyvideo/config"
	"github.com/BaSui01/easyvideo/generation"
	"github.com/BaSui01/easyvideo/internal/cache"
	"github.com/BaSui01/easyvideo/internal/journal"
	"github.com/BaSui01/easyvideo/internal/metrics"
	"github.com/BaSui01/easyvideo/internal/server"
	"github.com/BaSui01/easyvideo/internal/telemetry"
)

// 版本信息（构建时注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// globalOptions 是子命令之前的全局参数，非空时覆盖配置文件与环境变量
type globalOptions struct {
	configPath  string
	baseURL     string
	apiKey      string
	locale      string
	logLevel    string
	logFormat   string
	metricsAddr string
	journalPath string
	cacheAddr   string
}

func (o globalOptions) apply(cfg *config.Config) {
	if o.baseURL != "" {
		cfg.Client.BaseURL = o.baseURL
	}
	if o.apiKey != "" {
		cfg.Client.APIKey = o.apiKey
	}
	if o.locale != "" {
		cfg.Client.Locale = o.locale
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddr = o.metricsAddr
	}
	if o.journalPath != "" {
		cfg.Journal.Path = o.journalPath
	}
	if o.cacheAddr != "" {
		cfg.Cache.Addr = o.cacheAddr
	}
}

// run 执行一次命令并返回进程退出码
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("easyvideo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	var opts globalOptions
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (YAML)")
	fs.StringVar(&opts.baseURL, "base-url", "", "Generation backend base URL")
	fs.StringVar(&opts.apiKey, "api-key", "", "Bearer token sent with every request")
	fs.StringVar(&opts.locale, "locale", "", "Accept-Language for server messages")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", "", "Log format: console, json")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Expose Prometheus /metrics on this address")
	fs.StringVar(&opts.journalPath, "journal", "", "Record submitted tasks in this SQLite file")
	fs.StringVar(&opts.cacheAddr, "cache", "", "Cache model and preset listings in this Redis")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	name, cmdArgs := rest[0], rest[1:]
	switch name {
	case "version":
		printVersion(stdout)
		return exitOK
	case "help":
		printUsage(stdout)
		return exitOK
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", name)
		printUsage(stderr)
		return exitUsage
	}

	a, cleanup, err := newApp(ctx, opts, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer cleanup()

	if err := cmd(ctx, a, cmdArgs); err != nil {
		return reportError(stderr, err)
	}
	return exitOK
}

// reportError 打印错误并返回对应退出码
func reportError(w io.Writer, err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	var ue *usageError
	if errors.As(err, &ue) {
		if ue.msg != "" {
			fmt.Fprintf(w, "Error: %s\n", ue.msg)
		}
		return exitUsage
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitError
}

// =============================================================================
// 🚀 运行环境
// =============================================================================

func newApp(ctx context.Context, opts globalOptions, stdin io.Reader, stdout, stderr io.Writer) (*app, func(), error) {
	loader := config.NewLoader()
	if opts.configPath != "" {
		loader = loader.WithConfigPath(opts.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := initLogger(cfg.Log)

	providers, err := telemetry.Init(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("telemetry disabled", zap.Error(err))
		providers = nil
	}

	var (
		clientOpts []generation.Option
		exporter   *server.Exporter
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector := metrics.NewCollector(cfg.Metrics.Namespace, reg, logger)
		clientOpts = append(clientOpts, generation.WithMetrics(collector))
		if cfg.Metrics.ListenAddr != "" {
			exporter = server.NewExporter(reg, server.Config{Addr: cfg.Metrics.ListenAddr}, logger)
			if err := exporter.Start(); err != nil {
				_ = providers.Shutdown(ctx)
				return nil, nil, fmt.Errorf("metrics endpoint: %w", err)
			}
		}
	}

	var catalog *cache.Manager
	if cfg.Cache.Addr != "" {
		catalog, err = cache.NewManager(ctx, cache.Config{
			Addr:       cfg.Cache.Addr,
			Password:   cfg.Cache.Password,
			DB:         cfg.Cache.DB,
			KeyPrefix:  cfg.Cache.KeyPrefix,
			DefaultTTL: cfg.Cache.TTL,
			MaxRetries: 1,
		}, logger)
		if err != nil {
			logger.Warn("catalog cache disabled", zap.Error(err))
			catalog = nil
		} else {
			clientOpts = append(clientOpts, generation.WithCache(catalog, cfg.Cache.TTL))
		}
	}

	abort := func() {
		if exporter != nil {
			_ = exporter.Shutdown(context.Background())
		}
		if catalog != nil {
			_ = catalog.Close()
		}
		_ = providers.Shutdown(ctx)
	}

	client, err := generation.New(generation.ConfigFromClientConfig(cfg.Client), logger, clientOpts...)
	if err != nil {
		abort()
		return nil, nil, err
	}

	var store *journal.Store
	if cfg.Journal.Path != "" {
		store, err = journal.Open(expandHome(cfg.Journal.Path), logger)
		if err != nil {
			abort()
			return nil, nil, err
		}
	}

	logger.Debug("client ready",
		zap.String("base_url", client.BaseURL()),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Bool("cache", catalog != nil),
		zap.Bool("telemetry", providers.Enabled()),
	)

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if exporter != nil {
			if err := exporter.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
		if store != nil {
			if err := store.Close(); err != nil {
				logger.Warn("journal close failed", zap.Error(err))
			}
		}
		if catalog != nil {
			_ = catalog.Close()
		}
		_ = logger.Sync()
	}

	return &app{
		client:       client,
		journal:      store,
		journalLimit: cfg.Journal.ListLimit,
		logger:       logger,
		stdin:        stdin,
		stdout:       stdout,
		stderr:       stderr,
	}, cleanup, nil
}

// expandHome 展开路径开头的 ~/
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// =============================================================================
// 📋 版本与帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "EasyVideo CLI %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `EasyVideo - AI image & video generation client

Usage:
  easyvideo [global options] <command> [options]

Global options:
  --config <path>        Path to configuration file (YAML)
  --base-url <url>       Generation backend base URL
  --api-key <token>      Bearer token
  --locale <tag>         Accept-Language for server messages (default zh-CN)
  --log-level <level>    debug, info, warn, error
  --log-format <format>  console, json
  --metrics-addr <addr>  Expose Prometheus /metrics on this address
  --journal <path>       Record submitted tasks in a local SQLite file
  --cache <addr>         Cache model and preset listings in Redis

Generation:
  image        Text to image            (--prompt, --wait, ...)
  video        Image to video           (--image | --image-id | --image-path, --wait, ...)
  upload       Upload an image file     upload <file>
  optimize     Optimize a prompt        (--prompt, --type, --style)
  storyboard   Generate a storyboard    (--script | --script-file, --scenes, ...)
  batch        Submit a batch           (--type, --file, --wait)

Tasks:
  task         task status|cancel|retry <id>
  tasks        List tasks               (--page, --limit, --status, --type)
  watch        Follow task progress     watch [<id>...]  (no ids: unfinished journal tasks)
  journal      Local task journal       journal list [--status, --type, --limit] | prune [--older-than] | forget <id>

Records:
  history      Generation history       (--page, --limit, --type)
  stats        Generation statistics
  delete       Delete a record          delete <kind> <id>
  download     Download a result        download <kind> <id> [--out <path>]

Management:
  presets      presets list <kind> | save <kind> --name <n> [--params <json>] | delete <kind> <id>
  queue        queue [show|status|clear|pause|resume]
  models       List models
  switch-model Switch active model      switch-model <model-id> [--type <kind>]

  version      Show version information
  help         Show this help message

Examples:
  easyvideo image --prompt "a cat in the snow" --width 1024 --height 1024 --wait
  easyvideo video --image ./cat.png --fps 16 --wait
  easyvideo --base-url http://gpu-box:3001 queue status
  easyvideo download video 0f8fad5b --out result.mp4`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		// stdout 留给命令结果
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
