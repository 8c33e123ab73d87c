package xotel

import (
	"fmt"
	"strings"
	"time"
)

// 导出器名称
const (
	ExporterNone       = "none"
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
)

// 默认值
const (
	DefaultServiceName    = "xobs"
	DefaultExportInterval = 30 * time.Second
	DefaultSampleRatio    = 1.0
)

// Config 可直接从配置文件解码
//
//	telemetry:
//	  service_name: xobs-demo
//	  environment: dev
//	  metrics:
//	    exporter: prometheus
//	  traces:
//	    exporter: otlp
//	    sample_ratio: 0.5
//	    otlp:
//	      endpoint: otel-collector:4317
//	      insecure: true
type Config struct {
	ServiceName    string        `koanf:"service_name"`
	ServiceVersion string        `koanf:"service_version"`
	InstanceID     string        `koanf:"instance_id"`
	Environment    string        `koanf:"environment"`
	Metrics        MetricsConfig `koanf:"metrics"`
	Traces         TracesConfig  `koanf:"traces"`
}

// MetricsConfig 指标导出配置
type MetricsConfig struct {
	Exporter string        `koanf:"exporter"`
	Interval time.Duration `koanf:"interval"`
	OTLP     OTLPConfig    `koanf:"otlp"`
}

// TracesConfig 追踪导出配置
type TracesConfig struct {
	Exporter string `koanf:"exporter"`
	// SampleRatio 为 nil 时使用 DefaultSampleRatio
	SampleRatio *float64   `koanf:"sample_ratio"`
	Pretty      bool       `koanf:"pretty"`
	OTLP        OTLPConfig `koanf:"otlp"`
}

// OTLPConfig OTLP 端点配置，Endpoint 为 host:port
type OTLPConfig struct {
	Endpoint string            `koanf:"endpoint"`
	Insecure bool              `koanf:"insecure"`
	Headers  map[string]string `koanf:"headers"`
}

// Validate 检查导出器名称与采样率
func (c Config) Validate() error {
	switch normalize(c.Metrics.Exporter) {
	case ExporterNone, ExporterPrometheus, ExporterOTLP:
	default:
		return fmt.Errorf("%w: metrics exporter %q", ErrUnsupportedExporter, c.Metrics.Exporter)
	}
	switch normalize(c.Traces.Exporter) {
	case ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("%w: traces exporter %q", ErrUnsupportedExporter, c.Traces.Exporter)
	}
	if r := c.Traces.ratio(); r < 0 || r > 1 {
		return fmt.Errorf("%w: sample ratio %v out of [0, 1]", ErrInvalidConfig, r)
	}
	if c.Metrics.Interval < 0 {
		return fmt.Errorf("%w: negative export interval", ErrInvalidConfig)
	}
	return nil
}

func (t TracesConfig) ratio() float64 {
	if t.SampleRatio == nil {
		return DefaultSampleRatio
	}
	return *t.SampleRatio
}

// normalize 空值视为 none
func normalize(exporter string) string {
	e := strings.ToLower(strings.TrimSpace(exporter))
	if e == "" {
		return ExporterNone
	}
	return e
}
