package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	localeKey    contextKey = "locale"
	apiKeyKey    contextKey = "api_key"
)

// WithRequestID 设置 RequestID（作为 X-Request-ID 发送）
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID 获取 RequestID
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithLocale 设置请求语言（覆盖客户端默认 Accept-Language）
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey, locale)
}

// Locale 获取请求语言
func Locale(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(localeKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithAPIKey 设置单次请求使用的 API Key
func WithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyKey, key)
}

// APIKey 获取单次请求使用的 API Key
func APIKey(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(apiKeyKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
