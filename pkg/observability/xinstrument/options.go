package xinstrument

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xobs/pkg/observability/xlog"
)

// Option 配置 Registry
type Option func(*Registry)

// WithLogger 设置日志，默认 xlog.Discard()
func WithLogger(l xlog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// InstrumentOption 配置单个仪表
type InstrumentOption func(*instrumentConfig)

type instrumentConfig struct {
	unit        string
	description string
	buckets     []float64
}

// WithUnit 设置单位（UCUM，如 "s"、"By"、"{request}"）
func WithUnit(unit string) InstrumentOption {
	return func(c *instrumentConfig) { c.unit = unit }
}

// WithDescription 设置描述
func WithDescription(description string) InstrumentOption {
	return func(c *instrumentConfig) { c.description = description }
}

// WithBuckets 设置 Histogram 显式桶边界，必须严格递增；用于其他种类时创建返回 ErrInvalidBuckets
func WithBuckets(bounds ...float64) InstrumentOption {
	return func(c *instrumentConfig) {
		c.buckets = append([]float64(nil), bounds...)
	}
}

func newInstrumentConfig(kind Kind, opts []InstrumentOption) (*instrumentConfig, error) {
	cfg := &instrumentConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if len(cfg.buckets) > 0 && kind != KindHistogram {
		return nil, fmt.Errorf("%w: buckets apply to histograms only, not %s", ErrInvalidBuckets, kind)
	}
	for i := 1; i < len(cfg.buckets); i++ {
		if cfg.buckets[i] <= cfg.buckets[i-1] {
			return nil, fmt.Errorf("%w: %v is not strictly ascending", ErrInvalidBuckets, cfg.buckets)
		}
	}
	return cfg, nil
}

// describe 把描述符转换为指定仪表类型的选项
//
// metric.WithUnit/WithDescription 返回的 InstrumentOption 实现了所有仪表选项接口。
func describe[O any](d Descriptor) []O {
	opts := make([]O, 0, 2)
	if d.Unit != "" {
		opts = append(opts, any(metric.WithUnit(d.Unit)).(O))
	}
	if d.Description != "" {
		opts = append(opts, any(metric.WithDescription(d.Description)).(O))
	}
	return opts
}
