package xinstrument

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/metric"
)

// Measurement ObservableGauge 回调产出的一次观测
type Measurement[T Number] struct {
	Value T
	Tags  []Tag
}

// ObserveFunc 拉取式观测回调
//
// 由 metric SDK 在每次采集时调用，ctx 来自采集方。返回的序列应是有限的。
type ObserveFunc[T Number] func(ctx context.Context) []Measurement[T]

// gaugeHandle 持有后端 gauge，类型参数记录创建时的数值类型
type gaugeHandle[T Number] struct {
	instrument metric.Observable
}

// CreateObservableGauge 注册名为 name 的异步 gauge
//
// observe 为 nil 时返回引用 observe 参数的 ErrInvalidArgument。
func CreateObservableGauge[T Number](r *Registry, name string, observe ObserveFunc[T], opts ...InstrumentOption) error {
	if r == nil {
		return ErrNilRegistry
	}
	if strings.TrimSpace(name) == "" {
		return invalidArgument("name")
	}
	if observe == nil {
		return invalidArgument("observe")
	}
	return r.create(&r.gauges, name, opts, func(m metric.Meter, d Descriptor, _ *instrumentConfig) (any, error) {
		return buildGauge(m, d, observe)
	})
}

func buildGauge[T Number](m metric.Meter, d Descriptor, observe ObserveFunc[T]) (any, error) {
	if isFloat[T]() {
		opts := describe[metric.Float64ObservableGaugeOption](d)
		opts = append(opts, metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			for _, ms := range observe(ctx) {
				o.Observe(float64(ms.Value), metric.WithAttributes(toAttributes(ms.Tags)...))
			}
			return nil
		}))
		g, err := m.Float64ObservableGauge(d.Name, opts...)
		if g == nil {
			return nil, createFailed(ErrCreateGauge, err)
		}
		return gaugeHandle[T]{instrument: g}, err
	}

	opts := describe[metric.Int64ObservableGaugeOption](d)
	opts = append(opts, metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
		for _, ms := range observe(ctx) {
			o.Observe(int64(ms.Value), metric.WithAttributes(toAttributes(ms.Tags)...))
		}
		return nil
	}))
	g, err := m.Int64ObservableGauge(d.Name, opts...)
	if g == nil {
		return nil, createFailed(ErrCreateGauge, err)
	}
	return gaugeHandle[T]{instrument: g}, err
}
