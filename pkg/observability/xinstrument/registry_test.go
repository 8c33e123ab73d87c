package xinstrument_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xobs/pkg/observability/xinstrument"
	"github.com/omeyang/xobs/pkg/observability/xlog"
)

// ============================================================================
// 测试辅助函数
// ============================================================================

func newTestRegistry(t *testing.T) (*xinstrument.Registry, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	reg, err := xinstrument.New(mp.Meter("xinstrument-test"), xinstrument.WithLogger(xlog.Discard()))
	require.NoError(t, err)
	return reg, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func names(ds []xinstrument.Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

// ============================================================================
// New
// ============================================================================

func TestNew_NilMeter(t *testing.T) {
	reg, err := xinstrument.New(nil)
	assert.Nil(t, reg)
	assert.ErrorIs(t, err, xinstrument.ErrNilMeter)
}

func TestNilRegistry(t *testing.T) {
	var reg *xinstrument.Registry
	ctx := context.Background()

	assert.ErrorIs(t, xinstrument.CreateCounter[int64](reg, "c"), xinstrument.ErrNilRegistry)
	assert.ErrorIs(t, xinstrument.IncrementCounter(ctx, reg, "c", int64(1)), xinstrument.ErrNilRegistry)
	assert.ErrorIs(t, xinstrument.CreateHistogram[float64](reg, "h"), xinstrument.ErrNilRegistry)
	assert.ErrorIs(t, xinstrument.RecordHistogram(ctx, reg, "h", 1.0), xinstrument.ErrNilRegistry)
	assert.ErrorIs(t, xinstrument.CreateObservableGauge[int64](reg, "g", func(context.Context) []xinstrument.Measurement[int64] { return nil }), xinstrument.ErrNilRegistry)
	assert.ErrorIs(t, xinstrument.Register(reg, nil), xinstrument.ErrNilRegistry)
	assert.Nil(t, reg.Counters())
}

// ============================================================================
// Counter
// ============================================================================

func TestCounter_CreateAndIncrement(t *testing.T) {
	reg, reader := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, xinstrument.CreateCounter[int64](reg, "orders.created",
		xinstrument.WithUnit("{order}"),
		xinstrument.WithDescription("created orders"),
	))

	require.NoError(t, xinstrument.IncrementCounter(ctx, reg, "orders.created", int64(2), xinstrument.String("channel", "web")))
	require.NoError(t, xinstrument.IncrementCounter(ctx, reg, "orders.created", int64(3), xinstrument.String("channel", "web")))
	require.NoError(t, xinstrument.IncrementCounter(ctx, reg, "orders.created", int64(1)))

	m, ok := collect(t, reader)["orders.created"]
	require.True(t, ok)
	assert.Equal(t, "{order}", m.Unit)
	assert.Equal(t, "created orders", m.Description)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.True(t, sum.IsMonotonic)
	require.Len(t, sum.DataPoints, 2)

	byChannel := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("channel")
		byChannel[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"web": 5, "": 1}, byChannel)

	got := reg.Counters()
	require.Len(t, got, 1)
	assert.Equal(t, xinstrument.Descriptor{Name: "orders.created", Unit: "{order}", Description: "created orders"}, got[0])
}

func TestCounter_FloatType(t *testing.T) {
	reg, reader := newTestRegistry(t)

	require.NoError(t, xinstrument.CreateCounter[float64](reg, "bytes.ratio"))
	require.NoError(t, xinstrument.IncrementCounter(context.Background(), reg, "bytes.ratio", 0.25))
	require.NoError(t, xinstrument.IncrementCounter(context.Background(), reg, "bytes.ratio", 1.25))

	sum, ok := collect(t, reader)["bytes.ratio"].Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.InDelta(t, 1.5, sum.DataPoints[0].Value, 1e-9)
}

func TestCounter_SmallIntegerType(t *testing.T) {
	reg, reader := newTestRegistry(t)

	require.NoError(t, xinstrument.CreateCounter[uint8](reg, "small"))
	require.NoError(t, xinstrument.IncrementCounter(context.Background(), reg, "small", uint8(200)))
	require.NoError(t, xinstrument.IncrementCounter(context.Background(), reg, "small", uint8(100)))

	sum, ok := collect(t, reader)["small"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(300), sum.DataPoints[0].Value)
}

func TestCounter_Duplicate(t *testing.T) {
	reg, _ := newTestRegistry(t)

	require.NoError(t, xinstrument.CreateCounter[int64](reg, "dup", xinstrument.WithUnit("1")))
	err := xinstrument.CreateCounter[int64](reg, "dup", xinstrument.WithUnit("s"))

	require.ErrorIs(t, err, xinstrument.ErrAlreadyExists)
	assert.EqualError(t, err, "Counter already exists | Name: dup")

	var ie *xinstrument.InstrumentError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, xinstrument.KindCounter, ie.Kind)
	assert.Equal(t, "dup", ie.Name)

	got := reg.Counters()
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Unit, "重复创建不应覆盖已有条目")
}

// OTel 的名称语法只是建议：SDK 报错但仍返回可用仪表，注册表应照常收录
func TestCreate_NameOutsideOTelSyntax(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	var logs bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&logs).SetFormat("json").Build()
	require.NoError(t, err)
	reg, err := xinstrument.New(mp.Meter("xinstrument-test"), xinstrument.WithLogger(logger))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, xinstrument.CreateCounter[int64](reg, "Orders Processed"))
	err = xinstrument.CreateCounter[int64](reg, "Orders Processed")
	require.ErrorIs(t, err, xinstrument.ErrAlreadyExists)
	assert.EqualError(t, err, "Counter already exists | Name: Orders Processed")
	assert.Equal(t, []string{"Orders Processed"}, names(reg.Counters()))

	require.NoError(t, xinstrument.CreateHistogram[float64](reg, "1st.latency"))
	require.NoError(t, xinstrument.CreateObservableGauge(reg, "queue depth",
		func(context.Context) []xinstrument.Measurement[int64] {
			return []xinstrument.Measurement[int64]{{Value: 7}}
		}))

	require.NoError(t, xinstrument.IncrementCounter(ctx, reg, "Orders Processed", int64(3)))
	require.NoError(t, xinstrument.RecordHistogram(ctx, reg, "1st.latency", 0.2))

	got := collect(t, reader)
	sum, ok := got["Orders Processed"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
	assert.Contains(t, got, "1st.latency")
	gauge, ok := got["queue depth"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(7), gauge.DataPoints[0].Value)

	assert.Contains(t, logs.String(), "instrument registered with backend warning")
	assert.Contains(t, logs.String(), `"level":"WARN"`)
}

func TestCreate_BucketsOnlyForHistograms(t *testing.T) {
	reg, _ := newTestRegistry(t)

	err := xinstrument.CreateCounter[int64](reg, "c", xinstrument.WithBuckets(1, 2))
	assert.ErrorIs(t, err, xinstrument.ErrInvalidBuckets)
	err = xinstrument.CreateObservableGauge(reg, "g",
		func(context.Context) []xinstrument.Measurement[int64] { return nil },
		xinstrument.WithBuckets(1, 2))
	assert.ErrorIs(t, err, xinstrument.ErrInvalidBuckets)

	assert.Empty(t, reg.Counters())
	assert.Empty(t, reg.ObservableGauges())
}

func TestCounter_EmptyName(t *testing.T) {
	reg, _ := newTestRegistry(t)

	for _, name := range []string{"", "   ", "\t"} {
		err := xinstrument.CreateCounter[int64](reg, name)
		require.ErrorIs(t, err, xinstrument.ErrInvalidArgument, "name %q", name)
		assert.Contains(t, err.Error(), "name")

		err = xinstrument.IncrementCounter(context.Background(), reg, name, int64(1))
		assert.ErrorIs(t, err, xinstrument.ErrInvalidArgument)
	}
	assert.Empty(t, reg.Counters())
}

func TestCounter_NotFound(t *testing.T) {
	reg, reader := newTestRegistry(t)

	err := xinstrument.IncrementCounter(context.Background(), reg, "missing", int64(1))
	require.ErrorIs(t, err, xinstrument.ErrNotFound)
	assert.EqualError(t, err, "Counter not found | Name: missing")

	assert.Empty(t, collect(t, reader))
}

func TestCounter_TypeMismatch(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, xinstrument.CreateCounter[int64](reg, "typed"))

	err := xinstrument.IncrementCounter(context.Background(), reg, "typed", 1)
	assert.ErrorIs(t, err, xinstrument.ErrTypeMismatch)

	err = xinstrument.IncrementCounter(context.Background(), reg, "typed", 1.0)
	assert.ErrorIs(t, err, xinstrument.ErrTypeMismatch)
}

func TestCounter_NilContext(t *testing.T) {
	reg, reader := newTestRegistry(t)
	require.NoError(t, xinstrument.CreateCounter[int64](reg, "nilctx"))

	var nilCtx context.Context
	require.NoError(t, xinstrument.IncrementCounter(nilCtx, reg, "nilctx", int64(1)))

	_, ok := collect(t, reader)["nilctx"]
	assert.True(t, ok)
}

func TestCounters_Collection(t *testing.T) {
	reg, _ := newTestRegistry(t)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, xinstrument.CreateCounter[int64](reg, name))
	}

	got := reg.Counters()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names(got))

	got[0].Name = "mutated"
	assert.Equal(t, []string{"a", "b", "c"}, names(reg.Counters()), "快照修改不应影响注册表")
}

func TestCreateCounter_ConcurrentSameName(t *testing.T) {
	reg, _ := newTestRegistry(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := xinstrument.CreateCounter[int64](reg, "x")
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, xinstrument.ErrAlreadyExists):
				conflicts.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
	assert.Len(t, reg.Counters(), 1)
}

func TestIncrementCounter_Concurrent(t *testing.T) {
	reg, reader := newTestRegistry(t)
	require.NoError(t, xinstrument.CreateCounter[int64](reg, "hits"))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = xinstrument.IncrementCounter(context.Background(), reg, "hits", int64(1))
			}
		}()
	}
	wg.Wait()

	sum, ok := collect(t, reader)["hits"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(800), sum.DataPoints[0].Value)
}

// ============================================================================
// 名称空间
// ============================================================================

func TestNamespacesAreIndependent(t *testing.T) {
	reg, _ := newTestRegistry(t)
	observe := func(context.Context) []xinstrument.Measurement[int64] { return nil }

	require.NoError(t, xinstrument.CreateCounter[int64](reg, "shared"))
	require.NoError(t, xinstrument.CreateHistogram[int64](reg, "shared.h"))
	require.NoError(t, xinstrument.CreateHistogram[float64](reg, "shared"))
	require.NoError(t, xinstrument.CreateObservableGauge(reg, "shared.g", observe))

	assert.Equal(t, []string{"shared"}, names(reg.Counters()))
	assert.Equal(t, []string{"shared.h", "shared"}, names(reg.Histograms()))
	assert.Equal(t, []string{"shared.g"}, names(reg.ObservableGauges()))

	err := xinstrument.RecordHistogram(context.Background(), reg, "missing", 1.0)
	assert.EqualError(t, err, "Histogram not found | Name: missing")
}

// ============================================================================
// Histogram
// ============================================================================

func TestHistogram_CreateAndRecord(t *testing.T) {
	reg, reader := newTestRegistry(t)

	require.NoError(t, xinstrument.CreateHistogram[float64](reg, "latency",
		xinstrument.WithUnit("s"),
		xinstrument.WithBuckets(0.1, 0.5, 1),
	))
	for _, v := range []float64{0.05, 0.3, 0.7, 2} {
		require.NoError(t, xinstrument.RecordHistogram(context.Background(), reg, "latency", v, xinstrument.Bool("ok", true)))
	}

	m := collect(t, reader)["latency"]
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)

	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(4), dp.Count)
	assert.Equal(t, []float64{0.1, 0.5, 1}, dp.Bounds)
	assert.Equal(t, []uint64{1, 1, 1, 1}, dp.BucketCounts)
	assert.True(t, dp.Attributes.HasValue(attribute.Key("ok")))
}

func TestHistogram_IntType(t *testing.T) {
	reg, reader := newTestRegistry(t)

	require.NoError(t, xinstrument.CreateHistogram[int](reg, "size", xinstrument.WithBuckets(10, 100)))
	require.NoError(t, xinstrument.RecordHistogram(context.Background(), reg, "size", 42))

	hist, ok := collect(t, reader)["size"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Equal(t, int64(42), hist.DataPoints[0].Sum)
}

func TestHistogram_Errors(t *testing.T) {
	reg, _ := newTestRegistry(t)

	err := xinstrument.CreateHistogram[float64](reg, "bad", xinstrument.WithBuckets(1, 1, 2))
	assert.ErrorIs(t, err, xinstrument.ErrInvalidBuckets)
	assert.Empty(t, reg.Histograms())

	require.NoError(t, xinstrument.CreateHistogram[float64](reg, "h"))
	err = xinstrument.CreateHistogram[float64](reg, "h")
	assert.EqualError(t, err, "Histogram already exists | Name: h")

	assert.ErrorIs(t, xinstrument.CreateHistogram[float64](reg, " "), xinstrument.ErrInvalidArgument)
	assert.ErrorIs(t, xinstrument.RecordHistogram(context.Background(), reg, "h", int64(1)), xinstrument.ErrTypeMismatch)
}

// ============================================================================
// ObservableGauge
// ============================================================================

func TestObservableGauge(t *testing.T) {
	reg, reader := newTestRegistry(t)

	var calls atomic.Int32
	observe := func(context.Context) []xinstrument.Measurement[int64] {
		calls.Add(1)
		return []xinstrument.Measurement[int64]{
			{Value: 3, Tags: []xinstrument.Tag{xinstrument.String("queue", "a")}},
			{Value: 7, Tags: []xinstrument.Tag{xinstrument.String("queue", "b")}},
		}
	}
	require.NoError(t, xinstrument.CreateObservableGauge(reg, "queue.depth", observe, xinstrument.WithUnit("{item}")))
	assert.Zero(t, calls.Load(), "注册表不应主动调用回调")

	m := collect(t, reader)["queue.depth"]
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "{item}", m.Unit)

	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	byQueue := make(map[string]int64)
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value("queue")
		byQueue[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"a": 3, "b": 7}, byQueue)
}

func TestObservableGauge_Float(t *testing.T) {
	reg, reader := newTestRegistry(t)

	require.NoError(t, xinstrument.CreateObservableGauge(reg, "temp", func(context.Context) []xinstrument.Measurement[float32] {
		return []xinstrument.Measurement[float32]{{Value: 21.5}}
	}))

	gauge, ok := collect(t, reader)["temp"].Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.InDelta(t, 21.5, gauge.DataPoints[0].Value, 1e-6)
}

func TestObservableGauge_Errors(t *testing.T) {
	reg, _ := newTestRegistry(t)
	observe := func(context.Context) []xinstrument.Measurement[int64] { return nil }

	err := xinstrument.CreateObservableGauge[int64](reg, "g", nil)
	require.ErrorIs(t, err, xinstrument.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "observe")

	err = xinstrument.CreateObservableGauge(reg, "", observe)
	require.ErrorIs(t, err, xinstrument.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "name")

	require.NoError(t, xinstrument.CreateObservableGauge(reg, "g", observe))
	err = xinstrument.CreateObservableGauge(reg, "g", observe)
	assert.EqualError(t, err, "Observable gauge already exists | Name: g")
	assert.Len(t, reg.ObservableGauges(), 1)
}

// ============================================================================
// 后端失败
// ============================================================================

var errBackend = errors.New("backend unavailable")

type failingMeter struct {
	noop.Meter
}

func (failingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errBackend
}

func (failingMeter) Float64Histogram(string, ...metric.Float64HistogramOption) (metric.Float64Histogram, error) {
	return nil, errBackend
}

func (failingMeter) Int64ObservableGauge(string, ...metric.Int64ObservableGaugeOption) (metric.Int64ObservableGauge, error) {
	return nil, errBackend
}

func TestBackendFailure(t *testing.T) {
	reg, err := xinstrument.New(failingMeter{})
	require.NoError(t, err)

	err = xinstrument.CreateCounter[int64](reg, "c")
	assert.ErrorIs(t, err, xinstrument.ErrCreateCounter)
	assert.ErrorIs(t, err, errBackend)

	err = xinstrument.CreateHistogram[float64](reg, "h")
	assert.ErrorIs(t, err, xinstrument.ErrCreateHistogram)

	err = xinstrument.CreateObservableGauge(reg, "g", func(context.Context) []xinstrument.Measurement[int64] { return nil })
	assert.ErrorIs(t, err, xinstrument.ErrCreateGauge)

	assert.Empty(t, reg.Counters())
	assert.Empty(t, reg.Histograms())
	assert.Empty(t, reg.ObservableGauges())

	require.NoError(t, xinstrument.CreateCounter[float64](reg, "c"), "失败的创建不应留下条目")
}
