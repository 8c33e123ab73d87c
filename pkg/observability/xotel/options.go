package xotel

import (
	"io"
	"os"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/omeyang/xobs/pkg/observability/xlog"
)

type options struct {
	traceWriter    io.Writer
	logger         xlog.Logger
	readers        []sdkmetric.Reader
	spanProcessors []sdktrace.SpanProcessor
}

// Option 配置 Setup
type Option func(*options)

// WithTraceWriter stdout 导出器的输出，默认 os.Stdout
func WithTraceWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.traceWriter = w
		}
	}
}

// WithLogger 设置日志，默认 xlog.Discard()
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricReader 附加额外的 metric reader（如测试用的 ManualReader）
func WithMetricReader(r sdkmetric.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.readers = append(o.readers, r)
		}
	}
}

// WithSpanProcessor 附加额外的 span processor（如测试用的 SpanRecorder）
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) {
		if p != nil {
			o.spanProcessors = append(o.spanProcessors, p)
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		traceWriter: os.Stdout,
		logger:      xlog.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
