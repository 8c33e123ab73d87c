package xspan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xobs/pkg/context/xctx"
	"github.com/omeyang/xobs/pkg/observability/xlog"
)

// DefaultInstrumentationName 默认 tracer 名称，同时作为 SpanCreationError.Source
const DefaultInstrumentationName = "github.com/omeyang/xobs/xspan"

// 写入每个 span 的执行上下文标签
const (
	TagCorrelationID = "correlation-id"
	TagTenantCode    = "tenant-code"
	TagExecutionUser = "execution-user"
	TagOrigin        = "origin"
)

type config struct {
	provider trace.TracerProvider
	source   string
	logger   xlog.Logger
}

// Option 配置 Manager
type Option func(*config)

// WithTracerProvider 设置 TracerProvider，默认 otel.GetTracerProvider()
func WithTracerProvider(p trace.TracerProvider) Option {
	return func(c *config) {
		if p != nil {
			c.provider = p
		}
	}
}

// WithInstrumentationName 设置 tracer 名称
func WithInstrumentationName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.source = name
		}
	}
}

// WithLogger 设置日志，默认 xlog.Discard()
func WithLogger(l xlog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Manager 创建并管理 span 生命周期
//
// Manager 无状态，可被多个 goroutine 共享。
type Manager struct {
	tracer trace.Tracer
	source string
	logger xlog.Logger
}

// New 创建 Manager
func New(opts ...Option) (*Manager, error) {
	cfg := &config{
		provider: otel.GetTracerProvider(),
		source:   DefaultInstrumentationName,
		logger:   xlog.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return &Manager{
		tracer: cfg.provider.Tracer(cfg.source),
		source: cfg.source,
		logger: cfg.logger,
	}, nil
}

// Source 返回 tracer 名称
func (m *Manager) Source() string {
	return m.source
}

func (m *Manager) log() xlog.Logger {
	if m == nil {
		return xlog.Default()
	}
	return m.logger
}

// begin 创建 span 并写入执行上下文标签
//
// span 不在记录时立即 End 并返回 SpanCreationError。
func (m *Manager) begin(ctx context.Context, name string, kind Kind, exec xctx.Execution) (context.Context, trace.Span, error) {
	if strings.TrimSpace(name) == "" {
		return ctx, nil, ErrEmptyName
	}

	ctx, span := m.tracer.Start(ctx, name, trace.WithSpanKind(kind.SpanKind()))
	if !span.IsRecording() {
		span.End()
		err := &SpanCreationError{Source: m.source, Name: name, Kind: kind}
		m.logger.Error(ctx, "span not recording",
			slog.String("span", name),
			slog.String("kind", kind.String()),
			xlog.Err(err),
		)
		return ctx, nil, err
	}

	span.SetAttributes(executionAttributes(exec)...)
	return bindContext(ctx, span.SpanContext(), exec), span, nil
}

// finish 设置终态
func finish(span trace.Span, err error, opts ...trace.EventOption) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err, opts...)
}

func executionAttributes(exec xctx.Execution) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(TagCorrelationID, exec.CorrelationID.String()),
		attribute.String(TagTenantCode, exec.TenantCode.String()),
		attribute.String(TagExecutionUser, exec.ExecutionUser),
		attribute.String(TagOrigin, exec.Origin),
	}
}

// bindContext 把执行上下文和 span 的追踪标识写入 xctx，供日志注入使用
func bindContext(ctx context.Context, sc trace.SpanContext, exec xctx.Execution) context.Context {
	if c, err := xctx.WithExecution(ctx, exec); err == nil {
		ctx = c
	}
	if !sc.IsValid() {
		return ctx
	}
	c, err := xctx.WithTrace(ctx, xctx.Trace{
		TraceID:    sc.TraceID().String(),
		SpanID:     sc.SpanID().String(),
		TraceFlags: fmt.Sprintf("%02x", byte(sc.TraceFlags())),
	})
	if err != nil {
		return ctx
	}
	return c
}
