// =============================================================================
// EasyVideo Generation Client
// =============================================================================
// One method per backend endpoint. Every call goes through observe (span +
// metrics + failure log) and send (limiter + headers + transport), then the
// {success,data,error} envelope is unwrapped by decodeEnvelope.
// =============================================================================

package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BaSui01/easyvideo/internal/ctxkeys"
	"github.com/BaSui01/easyvideo/internal/tlsutil"
	"github.com/BaSui01/easyvideo/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiPrefix        = "/api/generation"
	tracerName       = "github.com/BaSui01/easyvideo/generation"
	maxEnvelopeBytes = 32 << 20
)

// Recorder receives client metrics. *metrics.Collector implements it.
type Recorder interface {
	RecordRequest(operation, status string, duration time.Duration)
	RecordUpload(bytes int64)
	StreamOpened()
	StreamClosed()
	RecordStreamEvent(kind string)
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, string, time.Duration) {}
func (nopRecorder) RecordUpload(int64)                          {}
func (nopRecorder) StreamOpened()                               {}
func (nopRecorder) StreamClosed()                               {}
func (nopRecorder) RecordStreamEvent(string)                    {}

// Client 是 EasyVideo 生成后端的客户端，可并发使用.
type Client struct {
	cfg     Config
	baseURL string

	httpClient   *http.Client
	uploadClient *http.Client
	streamClient *http.Client

	limiter    *rate.Limiter
	metrics    Recorder
	cache      Cache
	cacheTTL   time.Duration
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	logger     *zap.Logger
}

// Option 定制 Client.
type Option func(*Client)

// WithTransport 让普通请求、上传与进度流共用同一个 RoundTripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient = tlsutil.SecureHTTPClient(rt, c.cfg.Timeout)
		c.uploadClient = tlsutil.SecureHTTPClient(rt, c.cfg.UploadTimeout)
		c.streamClient = tlsutil.StreamingHTTPClient(rt)
	}
}

// WithHTTPClient replaces the client used for JSON calls and uploads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.uploadClient = hc
	}
}

// WithStreamClient replaces the client used for progress streams. It should
// not carry an overall timeout.
func WithStreamClient(hc *http.Client) Option {
	return func(c *Client) { c.streamClient = hc }
}

// WithMetrics 设置指标记录器.
func WithMetrics(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.metrics = r
		}
	}
}

// WithTracerProvider 使用指定的 TracerProvider 代替全局 provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithPropagator 使用指定的 propagator 代替全局 propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *Client) { c.propagator = p }
}

// New 创建生成客户端.
func New(cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("invalid base URL %q", cfg.BaseURL)).WithCause(err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := tlsutil.SecureTransport(tlsutil.Options{
		InsecureSkipVerify:    cfg.InsecureSkipVerify,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
	})
	c := &Client{
		cfg:          cfg,
		baseURL:      strings.TrimRight(base.String(), "/"),
		httpClient:   tlsutil.SecureHTTPClient(transport, cfg.Timeout),
		uploadClient: tlsutil.SecureHTTPClient(transport, cfg.UploadTimeout),
		streamClient: tlsutil.StreamingHTTPClient(transport),
		metrics:      nopRecorder{},
		tracer:       otel.Tracer(tracerName),
		logger:       logger.With(zap.String("component", "generation_client")),
	}
	if cfg.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger.Debug("generation client created",
		zap.String("base_url", c.baseURL),
		zap.String("locale", cfg.Locale),
		zap.Float64("rate_limit_rps", cfg.RateLimitRPS),
	)
	return c, nil
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string { return c.baseURL }

// =============================================================================
// 🔧 请求管线
// =============================================================================

// observe wraps one operation in a client span, records its metrics and
// logs failures.
func (c *Client) observe(ctx context.Context, op operation, method, path string, fn func(ctx context.Context, span trace.Span) error) error {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "generation."+op.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("generation.operation", op.Name),
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	err := fn(ctx, span)
	status := "ok"
	if err != nil {
		status = string(types.GetErrorCode(err))
		if status == "" {
			status = "UNKNOWN"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, types.ErrorMessage(err))
		fields := []zap.Field{
			zap.String("operation", op.Name),
			zap.String("code", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		}
		if types.IsCode(err, types.ErrCanceled) {
			c.logger.Debug("generation request canceled", fields...)
		} else {
			c.logger.Warn("generation request failed", fields...)
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	c.metrics.RecordRequest(op.Name, status, time.Since(start))
	return err
}

// newRequest builds a request against the backend with the standard headers.
func (c *Client) newRequest(ctx context.Context, op operation, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, msgRequestCreate).WithCause(err).WithOperation(op.Name)
	}
	c.applyHeaders(ctx, req)
	return req, nil
}

func (c *Client) applyHeaders(ctx context.Context, req *http.Request) {
	apiKey := c.cfg.APIKey
	if k, ok := ctxkeys.APIKey(ctx); ok {
		apiKey = k
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	locale := c.cfg.Locale
	if l, ok := ctxkeys.Locale(ctx); ok {
		locale = l
	}
	req.Header.Set("Accept-Language", locale)

	requestID, ok := ctxkeys.RequestID(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	prop := c.propagator
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}
	prop.Inject(ctx, propagation.HeaderCarrier(req.Header))
}

// do waits for the limiter and performs the request. Transport failures map
// to CONNECTION_FAILED, a done ctx maps to CANCELED.
func (c *Client) do(ctx context.Context, op operation, hc *http.Client, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, canceledError(op, ctx.Err())
			}
			return nil, types.NewError(types.ErrRateLimited, msgRateLimitWait).
				WithCause(err).WithRetryable(true).WithOperation(op.Name)
		}
	}
	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, canceledError(op, ctx.Err())
		}
		return nil, types.NewError(types.ErrConnectionFailed, op.Fallback).
			WithCause(err).WithRetryable(true).WithOperation(op.Name)
	}
	return resp, nil
}

// sendJSON encodes body (when non-nil) and performs the request.
func (c *Client) sendJSON(ctx context.Context, op operation, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, types.NewError(types.ErrInvalidRequest, msgRequestCreate).WithCause(err).WithOperation(op.Name)
		}
		reader = buf
	}
	req, err := c.newRequest(ctx, op, method, path, query, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(ctx, op, c.httpClient, req)
}

// call performs a JSON operation whose envelope must carry data.
func call[T any](ctx context.Context, c *Client, op operation, method, path string, query url.Values, body any) (*T, error) {
	var out *T
	err := c.observe(ctx, op, method, path, func(ctx context.Context, span trace.Span) error {
		resp, err := c.sendJSON(ctx, op, method, path, query, body)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		out, err = decodeEnvelope[T](resp, op, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// callVoid performs an operation with no result; a missing data member is fine.
func (c *Client) callVoid(ctx context.Context, op operation, method, path string, body any) error {
	return c.observe(ctx, op, method, path, func(ctx context.Context, span trace.Span) error {
		resp, err := c.sendJSON(ctx, op, method, path, nil, body)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		_, err = decodeEnvelope[json.RawMessage](resp, op, false)
		return err
	})
}

// =============================================================================
// 🧩 路径与错误工具
// =============================================================================

// pathSegment validates and escapes one URL path segment.
func pathSegment(op operation, value, what string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", types.NewError(types.ErrInvalidRequest, what).WithOperation(op.Name)
	}
	return url.PathEscape(value), nil
}

func canceledError(op operation, cause error) *types.Error {
	return types.NewError(types.ErrCanceled, msgRequestCancel).WithCause(cause).WithOperation(op.Name)
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
