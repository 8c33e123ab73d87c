package xotel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"

	"github.com/omeyang/xobs/pkg/observability/xlog"
)

// Providers 持有 Setup 构建的 SDK provider
type Providers struct {
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
	Resource       *resource.Resource

	metricsHandler http.Handler
	logger         xlog.Logger
	shutdownOnce   sync.Once
	shutdownErr    error
}

// Setup 按配置构建 provider。任何一步失败都会关闭已创建的部分。
func Setup(ctx context.Context, cfg Config, opts ...Option) (*Providers, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p := &Providers{Resource: res, logger: o.logger}

	mp, handler, err := buildMeterProvider(ctx, cfg, res, o)
	if err != nil {
		return nil, err
	}
	p.MeterProvider = mp
	p.metricsHandler = handler

	tp, err := buildTracerProvider(ctx, cfg, res, o)
	if err != nil {
		return nil, errors.Join(err, mp.Shutdown(ctx))
	}
	p.TracerProvider = tp

	o.logger.Info(ctx, "telemetry initialized",
		slog.String("service", serviceName(cfg)),
		slog.String("metrics_exporter", normalize(cfg.Metrics.Exporter)),
		slog.String("traces_exporter", normalize(cfg.Traces.Exporter)),
		slog.Float64("sample_ratio", cfg.Traces.ratio()),
	)
	return p, nil
}

// Meter 返回指定名称的 Meter
func (p *Providers) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return p.MeterProvider.Meter(name, opts...)
}

// Tracer 返回指定名称的 Tracer
func (p *Providers) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return p.TracerProvider.Tracer(name, opts...)
}

// MetricsHandler 返回 Prometheus 抓取端点；未启用 prometheus 导出器时返回 nil
func (p *Providers) MetricsHandler() http.Handler {
	return p.metricsHandler
}

// SetGlobal 安装为全局 provider，并设置 W3C TraceContext + Baggage 传播器
func (p *Providers) SetGlobal() {
	otel.SetMeterProvider(p.MeterProvider)
	otel.SetTracerProvider(p.TracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Shutdown 刷新并关闭所有导出器，多次调用返回首次结果
func (p *Providers) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		var errs []error
		if p.TracerProvider != nil {
			if err := p.TracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("xotel: shutdown tracer provider: %w", err))
			}
		}
		if p.MeterProvider != nil {
			if err := p.MeterProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("xotel: shutdown meter provider: %w", err))
			}
		}
		p.shutdownErr = errors.Join(errs...)
		if p.shutdownErr != nil {
			p.logger.Warn(ctx, "telemetry shutdown incomplete", xlog.Err(p.shutdownErr))
		}
	})
	return p.shutdownErr
}

// =============================================================================
// 构建
// =============================================================================

func serviceName(cfg Config) string {
	if cfg.ServiceName == "" {
		return DefaultServiceName
	}
	return cfg.ServiceName
}

func buildResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(serviceName(cfg))}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(cfg.ServiceVersion))
	}
	if cfg.InstanceID != "" {
		attrs = append(attrs, semconv.ServiceInstanceIDKey.String(cfg.InstanceID))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(cfg.Environment))
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
	if err != nil && !errors.Is(err, resource.ErrPartialResource) {
		return nil, fmt.Errorf("xotel: build resource: %w", err)
	}
	return res, nil
}

func buildMeterProvider(ctx context.Context, cfg Config, res *resource.Resource, o *options) (*sdkmetric.MeterProvider, http.Handler, error) {
	mopts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range o.readers {
		mopts = append(mopts, sdkmetric.WithReader(r))
	}

	var handler http.Handler
	switch normalize(cfg.Metrics.Exporter) {
	case ExporterPrometheus:
		registry := promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return nil, nil, fmt.Errorf("xotel: create prometheus exporter: %w", err)
		}
		mopts = append(mopts, sdkmetric.WithReader(exporter))
		handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	case ExporterOTLP:
		exporter, err := otlpmetrichttp.New(ctx, otlpMetricOptions(cfg.Metrics.OTLP)...)
		if err != nil {
			return nil, nil, fmt.Errorf("xotel: create otlp metric exporter: %w", err)
		}
		interval := cfg.Metrics.Interval
		if interval == 0 {
			interval = DefaultExportInterval
		}
		mopts = append(mopts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)),
		))
	}

	return sdkmetric.NewMeterProvider(mopts...), handler, nil
}

func otlpMetricOptions(c OTLPConfig) []otlpmetrichttp.Option {
	var opts []otlpmetrichttp.Option
	if c.Endpoint != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(c.Endpoint))
	}
	if c.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(c.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(c.Headers))
	}
	return opts
}

func buildTracerProvider(ctx context.Context, cfg Config, res *resource.Resource, o *options) (*sdktrace.TracerProvider, error) {
	topts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Traces.ratio()))),
	}
	for _, sp := range o.spanProcessors {
		topts = append(topts, sdktrace.WithSpanProcessor(sp))
	}

	switch normalize(cfg.Traces.Exporter) {
	case ExporterStdout:
		sopts := []stdouttrace.Option{stdouttrace.WithWriter(o.traceWriter)}
		if cfg.Traces.Pretty {
			sopts = append(sopts, stdouttrace.WithPrettyPrint())
		}
		exporter, err := stdouttrace.New(sopts...)
		if err != nil {
			return nil, fmt.Errorf("xotel: create stdout trace exporter: %w", err)
		}
		topts = append(topts, sdktrace.WithBatcher(exporter))

	case ExporterOTLP:
		exporter, err := otlptracegrpc.New(ctx, otlpTraceOptions(cfg.Traces.OTLP)...)
		if err != nil {
			return nil, fmt.Errorf("xotel: create otlp trace exporter: %w", err)
		}
		topts = append(topts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}

	return sdktrace.NewTracerProvider(topts...), nil
}

func otlpTraceOptions(c OTLPConfig) []otlptracegrpc.Option {
	var opts []otlptracegrpc.Option
	if c.Endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(c.Endpoint))
	}
	if c.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(c.Headers))
	}
	return opts
}
