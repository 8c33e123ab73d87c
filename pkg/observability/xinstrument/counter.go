package xinstrument

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// CreateCounter 注册名为 name 的单调递增计数器
func CreateCounter[T Number](r *Registry, name string, opts ...InstrumentOption) error {
	if r == nil {
		return ErrNilRegistry
	}
	return r.create(&r.counters, name, opts, buildCounter[T])
}

// IncrementCounter 以 delta 累加计数器，tags 作为本次测量的属性
func IncrementCounter[T Number](ctx context.Context, r *Registry, name string, delta T, tags ...Tag) error {
	if r == nil {
		return ErrNilRegistry
	}
	rec, err := lookup[recordFunc[T]](r, &r.counters, name)
	if err != nil {
		return err
	}
	measure(ctx, rec, delta, tags)
	return nil
}

func buildCounter[T Number](m metric.Meter, d Descriptor, _ *instrumentConfig) (any, error) {
	if isFloat[T]() {
		c, err := m.Float64Counter(d.Name, describe[metric.Float64CounterOption](d)...)
		if c == nil {
			return nil, createFailed(ErrCreateCounter, err)
		}
		return recordFunc[T](func(ctx context.Context, v T, opt metric.MeasurementOption) {
			c.Add(ctx, float64(v), opt)
		}), err
	}

	c, err := m.Int64Counter(d.Name, describe[metric.Int64CounterOption](d)...)
	if c == nil {
		return nil, createFailed(ErrCreateCounter, err)
	}
	return recordFunc[T](func(ctx context.Context, v T, opt metric.MeasurementOption) {
		c.Add(ctx, int64(v), opt)
	}), err
}
