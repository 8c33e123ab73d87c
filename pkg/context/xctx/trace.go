package xctx

import "context"

// =============================================================================
// Trace 日志属性 Key 常量
// =============================================================================

// Trace Key 常量，遵循 OpenTelemetry 语义约定（下划线分隔）
const (
	KeyTraceID    = "trace_id"
	KeySpanID     = "span_id"
	KeyTraceFlags = "trace_flags"

	// traceFieldCount 追踪字段数量（用于 slog 属性预分配）
	traceFieldCount = 3
)

const (
	keyTraceID    = contextKey("xctx:trace_id")
	keySpanID     = contextKey("xctx:span_id")
	keyTraceFlags = contextKey("xctx:trace_flags")
)

// WithTraceID 将 trace ID 注入 context
//
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithTraceID(ctx context.Context, traceID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyTraceID, traceID), nil
}

// TraceID 从 context 提取 trace ID，不存在返回空字符串
func TraceID(ctx context.Context) string {
	return stringValue(ctx, keyTraceID)
}

// WithSpanID 将 span ID 注入 context
//
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithSpanID(ctx context.Context, spanID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keySpanID, spanID), nil
}

// SpanID 从 context 提取 span ID，不存在返回空字符串
func SpanID(ctx context.Context) string {
	return stringValue(ctx, keySpanID)
}

// WithTraceFlags 将 trace flags 注入 context
//
// 格式: 2 位十六进制字符串（"01" 已采样，"00" 未采样）。
func WithTraceFlags(ctx context.Context, flags string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyTraceFlags, flags), nil
}

// TraceFlags 从 context 提取 trace flags，不存在返回空字符串
func TraceFlags(ctx context.Context) string {
	return stringValue(ctx, keyTraceFlags)
}

// Trace 追踪信息结构体（批量存取）
type Trace struct {
	TraceID    string
	SpanID     string
	TraceFlags string
}

// GetTrace 从 context 批量获取追踪信息，字段可能为空
func GetTrace(ctx context.Context) Trace {
	return Trace{
		TraceID:    TraceID(ctx),
		SpanID:     SpanID(ctx),
		TraceFlags: TraceFlags(ctx),
	}
}

// WithTrace 将 Trace 中的非空字段批量注入 context
func WithTrace(ctx context.Context, t Trace) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if t.TraceID != "" {
		ctx = context.WithValue(ctx, keyTraceID, t.TraceID)
	}
	if t.SpanID != "" {
		ctx = context.WithValue(ctx, keySpanID, t.SpanID)
	}
	if t.TraceFlags != "" {
		ctx = context.WithValue(ctx, keyTraceFlags, t.TraceFlags)
	}
	return ctx, nil
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
