package xspan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xobs/pkg/context/xctx"
	"github.com/omeyang/xobs/pkg/observability/xlog"
)

// 写入 Server span 的 HTTP 属性（OTel 语义约定）
const (
	AttrHTTPMethod     = "http.request.method"
	AttrHTTPRoute      = "url.path"
	AttrHTTPStatusCode = "http.response.status_code"
)

// ErrHTTPStatus handler 以 5xx 结束，仅用于把 span 标记为 Error
var ErrHTTPStatus = errors.New("xspan: http server error")

// MiddlewareOption 配置 HTTPMiddleware
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	spanName   func(*http.Request) string
	propagator propagation.TextMapPropagator
}

// WithSpanNameFormatter 自定义 span 名称，默认 "<METHOD> <path>"
func WithSpanNameFormatter(fn func(*http.Request) string) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.spanName = fn
		}
	}
}

// WithPropagator 设置上游追踪上下文的提取方式，默认 otel.GetTextMapPropagator()
func WithPropagator(p propagation.TextMapPropagator) MiddlewareOption {
	return func(c *middlewareConfig) {
		if p != nil {
			c.propagator = p
		}
	}
}

func defaultSpanName(r *http.Request) string {
	return r.Method + " " + r.URL.Path
}

// HTTPMiddleware 在 Server span 中执行后续 handler
//
// 执行上下文从 X-Correlation-ID 等请求头解析，缺少 correlation id 时自动生成。
//   - 请求头中的 UUID 非法时返回 400，不创建 span。
//   - span 创建失败时返回 500。
//   - 响应状态码 >= 500 时 span 状态为 Error。
func HTTPMiddleware(m *Manager, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		spanName:   defaultSpanName,
		propagator: otel.GetTextMapPropagator(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			exec, err := xctx.ExecutionFromHeader(r.Header)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			ctx := cfg.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			sw := &statusWriter{ResponseWriter: w}
			served := false

			err = m.StartServer(ctx, cfg.spanName(r), exec,
				func(ctx context.Context, span trace.Span, exec xctx.Execution) error {
					span.SetAttributes(
						attribute.String(AttrHTTPMethod, r.Method),
						attribute.String(AttrHTTPRoute, r.URL.Path),
					)
					xctx.InjectHeader(sw.Header(), exec)
					served = true
					next.ServeHTTP(sw, r.WithContext(ctx))

					status := sw.status()
					span.SetAttributes(attribute.Int(AttrHTTPStatusCode, status))
					if status >= http.StatusInternalServerError {
						return fmt.Errorf("%w: %d", ErrHTTPStatus, status)
					}
					return nil
				})

			// handler 未执行说明 span 没有建立
			if err != nil && !served {
				m.log().Error(r.Context(), "request rejected",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					xlog.Err(err),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
	}
}

// statusWriter 记录 handler 写出的状态码
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap 供 http.ResponseController 访问底层 writer
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) status() int {
	if w.code == 0 {
		return http.StatusOK
	}
	return w.code
}
