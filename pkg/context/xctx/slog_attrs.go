package xctx

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// =============================================================================
// Execution slog 集成
// =============================================================================

// AppendExecutionAttrs 将 context 中的执行信息追加到现有切片。
// 零分配热路径：传入预分配的切片，只追加非零值字段。
func AppendExecutionAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	e, ok := GetExecution(ctx)
	if !ok {
		return attrs
	}

	if e.CorrelationID != uuid.Nil {
		attrs = append(attrs, slog.String(KeyCorrelationID, e.CorrelationID.String()))
	}
	if e.TenantCode != uuid.Nil {
		attrs = append(attrs, slog.String(KeyTenantCode, e.TenantCode.String()))
	}
	if e.ExecutionUser != "" {
		attrs = append(attrs, slog.String(KeyExecutionUser, e.ExecutionUser))
	}
	if e.Origin != "" {
		attrs = append(attrs, slog.String(KeyOrigin, e.Origin))
	}
	return attrs
}

// ExecutionAttrs 从 context 提取执行信息，转换为 slog.Attr 切片
//
// 都为空时返回 nil。每次调用会分配新切片，热路径建议使用 AppendExecutionAttrs。
func ExecutionAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendExecutionAttrs(make([]slog.Attr, 0, executionFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// =============================================================================
// Trace slog 集成
// =============================================================================

// AppendTraceAttrs 将 context 中的追踪信息追加到现有切片。
func AppendTraceAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}

	if v := TraceID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTraceID, v))
	}
	if v := SpanID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeySpanID, v))
	}
	if v := TraceFlags(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTraceFlags, v))
	}
	return attrs
}

// TraceAttrs 从 context 提取追踪信息，都为空时返回 nil
func TraceAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendTraceAttrs(make([]slog.Attr, 0, traceFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// LogAttrs 合并执行信息和追踪信息（追踪字段在前）
func LogAttrs(ctx context.Context) []slog.Attr {
	attrs := make([]slog.Attr, 0, traceFieldCount+executionFieldCount)
	attrs = AppendTraceAttrs(attrs, ctx)
	attrs = AppendExecutionAttrs(attrs, ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
