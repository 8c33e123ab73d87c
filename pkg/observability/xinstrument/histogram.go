package xinstrument

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// CreateHistogram 注册名为 name 的直方图，可用 WithBuckets 指定桶边界
func CreateHistogram[T Number](r *Registry, name string, opts ...InstrumentOption) error {
	if r == nil {
		return ErrNilRegistry
	}
	return r.create(&r.histograms, name, opts, buildHistogram[T])
}

// RecordHistogram 记录一次测量值
func RecordHistogram[T Number](ctx context.Context, r *Registry, name string, value T, tags ...Tag) error {
	if r == nil {
		return ErrNilRegistry
	}
	rec, err := lookup[recordFunc[T]](r, &r.histograms, name)
	if err != nil {
		return err
	}
	measure(ctx, rec, value, tags)
	return nil
}

func buildHistogram[T Number](m metric.Meter, d Descriptor, cfg *instrumentConfig) (any, error) {
	if isFloat[T]() {
		opts := describe[metric.Float64HistogramOption](d)
		if len(cfg.buckets) > 0 {
			opts = append(opts, metric.WithExplicitBucketBoundaries(cfg.buckets...))
		}
		h, err := m.Float64Histogram(d.Name, opts...)
		if h == nil {
			return nil, createFailed(ErrCreateHistogram, err)
		}
		return recordFunc[T](func(ctx context.Context, v T, opt metric.MeasurementOption) {
			h.Record(ctx, float64(v), opt)
		}), err
	}

	opts := describe[metric.Int64HistogramOption](d)
	if len(cfg.buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(cfg.buckets...))
	}
	h, err := m.Int64Histogram(d.Name, opts...)
	if h == nil {
		return nil, createFailed(ErrCreateHistogram, err)
	}
	return recordFunc[T](func(ctx context.Context, v T, opt metric.MeasurementOption) {
		h.Record(ctx, int64(v), opt)
	}), err
}
