package xinstrument

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xobs/pkg/observability/xlog"
)

// entry 注册表条目
//
// handle 是带类型的后端句柄：Counter/Histogram 为 recordFunc[T]，
// ObservableGauge 为 gaugeHandle[T]。
type entry struct {
	desc   Descriptor
	handle any
}

// namespace 单一种类仪表的名称空间
type namespace struct {
	kind    Kind
	entries map[string]*entry
	order   []Descriptor
}

func newNamespace(kind Kind) namespace {
	return namespace{kind: kind, entries: make(map[string]*entry)}
}

// Registry 按名称管理仪表
//
// 条目创建后在 Registry 生命周期内一直存在，没有删除操作。
// 并发安全。
type Registry struct {
	meter  metric.Meter
	logger xlog.Logger

	mu         sync.RWMutex
	counters   namespace
	histograms namespace
	gauges     namespace
}

// New 创建 Registry
func New(meter metric.Meter, opts ...Option) (*Registry, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	r := &Registry{
		meter:      meter,
		logger:     xlog.Discard(),
		counters:   newNamespace(KindCounter),
		histograms: newNamespace(KindHistogram),
		gauges:     newNamespace(KindObservableGauge),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Counters 返回已注册 Counter 的描述符快照，按注册顺序排列
func (r *Registry) Counters() []Descriptor {
	return r.snapshot(KindCounter)
}

// Histograms 返回已注册 Histogram 的描述符快照，按注册顺序排列
func (r *Registry) Histograms() []Descriptor {
	return r.snapshot(KindHistogram)
}

// ObservableGauges 返回已注册 ObservableGauge 的描述符快照，按注册顺序排列
func (r *Registry) ObservableGauges() []Descriptor {
	return r.snapshot(KindObservableGauge)
}

func (r *Registry) snapshot(kind Kind) []Descriptor {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.space(kind).order)
}

func (r *Registry) space(kind Kind) *namespace {
	switch kind {
	case KindHistogram:
		return &r.histograms
	case KindObservableGauge:
		return &r.gauges
	default:
		return &r.counters
	}
}

// buildFunc 在写锁内创建后端句柄
//
// 句柄非 nil 时 error 只是后端的提示（如 OTel 的名称语法警告），仪表照常注册。
type buildFunc func(meter metric.Meter, d Descriptor, cfg *instrumentConfig) (any, error)

// create 校验参数并注册仪表
//
// 检查、后端创建与插入都在写锁内完成，保证同名并发创建只有一个成功。
func (r *Registry) create(ns *namespace, name string, opts []InstrumentOption, build buildFunc) error {
	if r == nil {
		return ErrNilRegistry
	}
	if strings.TrimSpace(name) == "" {
		return invalidArgument("name")
	}
	cfg, err := newInstrumentConfig(ns.kind, opts)
	if err != nil {
		return &InstrumentError{Kind: ns.kind, Name: name, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := ns.entries[name]; ok {
		return &InstrumentError{Kind: ns.kind, Name: name, Err: ErrAlreadyExists}
	}
	desc, err := NewDescriptor(name, cfg.unit, cfg.description)
	if err != nil {
		return &InstrumentError{Kind: ns.kind, Name: name, Err: err}
	}
	handle, err := build(r.meter, desc, cfg)
	if handle == nil {
		return &InstrumentError{Kind: ns.kind, Name: name, Err: err}
	}
	if err != nil {
		r.logger.Warn(context.Background(), "instrument registered with backend warning",
			slog.String("kind", ns.kind.String()),
			slog.String("name", name),
			xlog.Err(err),
		)
	}

	ns.entries[name] = &entry{desc: desc, handle: handle}
	ns.order = append(ns.order, desc)

	r.logger.Debug(context.Background(), "instrument registered",
		slog.String("kind", ns.kind.String()),
		slog.String("name", name),
	)
	return nil
}

// lookup 在读锁内查找条目，返回带类型的句柄
func lookup[H any](r *Registry, ns *namespace, name string) (H, error) {
	var zero H
	if r == nil {
		return zero, ErrNilRegistry
	}
	if strings.TrimSpace(name) == "" {
		return zero, invalidArgument("name")
	}

	r.mu.RLock()
	e, ok := ns.entries[name]
	r.mu.RUnlock()

	if !ok {
		return zero, &InstrumentError{Kind: ns.kind, Name: name, Err: ErrNotFound}
	}
	h, ok := e.handle.(H)
	if !ok {
		return zero, &InstrumentError{Kind: ns.kind, Name: name, Err: ErrTypeMismatch}
	}
	return h, nil
}

// recordFunc Counter.Add 与 Histogram.Record 的统一形式
type recordFunc[T Number] func(ctx context.Context, v T, opt metric.MeasurementOption)

func measure[T Number](ctx context.Context, rec recordFunc[T], v T, tags []Tag) {
	if ctx == nil {
		ctx = context.Background()
	}
	rec(ctx, v, metric.WithAttributes(toAttributes(tags)...))
}
