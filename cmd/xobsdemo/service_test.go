package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xobs/pkg/context/xctx"
	"github.com/omeyang/xobs/pkg/observability/xinstrument"
	"github.com/omeyang/xobs/pkg/observability/xlog"
)

type fixture struct {
	svc      *service
	reader   *sdkmetric.ManualReader
	recorder *tracetest.SpanRecorder
}

func newFixture(t *testing.T, metricsHandler http.Handler) *fixture {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	recorder := tracetest.NewSpanRecorder()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	cfg := appConfig{Worker: workerConfig{Interval: 5 * time.Millisecond, Origin: "test", User: "ticker"}}
	svc, err := newService(cfg, xlog.Discard(), mp, tp, metricsHandler)
	require.NoError(t, err)
	return &fixture{svc: svc, reader: reader, recorder: recorder}
}

// counterTotal 汇总 name 对应 int64 Sum 的所有数据点
func (f *fixture) counterTotal(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func (f *fixture) hasMetric(t *testing.T, name string) bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

func TestNewRegistry_DeclaredBeforeBuiltins(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	decls := []xinstrument.Declaration{
		{Name: metricTicks, Kind: "counter", Description: "declared"},
		{Name: "extra.latency", Kind: "histogram"},
	}

	reg, err := newRegistry(mp.Meter("test"), decls, xlog.Discard())
	require.NoError(t, err)

	counters := reg.Counters()
	require.Len(t, counters, 2)
	assert.Equal(t, metricTicks, counters[0].Name)
	assert.Equal(t, "declared", counters[0].Description, "声明优先于内置定义")
	assert.Equal(t, metricWorkRequests, counters[1].Name)

	require.Len(t, reg.Histograms(), 2)
	require.Len(t, reg.ObservableGauges(), 1)
	assert.Equal(t, metricGoroutines, reg.ObservableGauges()[0].Name)
}

func TestNewRegistry_InvalidDeclaration(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	_, err := newRegistry(mp.Meter("test"), []xinstrument.Declaration{{Name: "x", Kind: "summary"}}, xlog.Discard())
	assert.ErrorIs(t, err, xinstrument.ErrInvalidDeclaration)
}

func TestService_Tick(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.svc.tick(context.Background(), 1))
	require.NoError(t, f.svc.tick(context.Background(), 2))

	assert.Equal(t, int64(2), f.counterTotal(t, metricTicks))
	assert.True(t, f.hasMetric(t, metricTickDuration))
	assert.True(t, f.hasMetric(t, metricGoroutines))

	spans := f.recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "demo.tick", spans[0].Name())
	assert.Equal(t, trace.SpanKindConsumer, spans[0].SpanKind())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.NotEqual(t, spans[0].SpanContext().TraceID(), spans[1].SpanContext().TraceID())
}

func TestService_Work(t *testing.T) {
	f := newFixture(t, nil)
	srv := httptest.NewServer(f.svc.handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/work?n=4")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body workResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 10, body.Result)
	assert.Equal(t, resp.Header.Get(xctx.HeaderCorrelationID), body.CorrelationID)

	spans := f.recorder.Ended()
	require.Len(t, spans, 2)
	child, parent := spans[0], spans[1]
	assert.Equal(t, "demo.work.sum", child.Name())
	assert.Equal(t, trace.SpanKindServer, parent.SpanKind())
	assert.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID())

	assert.Equal(t, int64(1), f.counterTotal(t, metricWorkRequests))
}

func TestService_WorkErrors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   codes.Code
	}{
		{"bad n", "n=abc", http.StatusBadRequest, codes.Ok},
		{"negative n", "n=-1", http.StatusBadRequest, codes.Ok},
		{"forced failure", "n=1&fail=1", http.StatusInternalServerError, codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			srv := httptest.NewServer(f.svc.handler())
			defer srv.Close()

			resp, err := srv.Client().Get(srv.URL + "/work?" + tt.query)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			spans := f.recorder.Ended()
			require.NotEmpty(t, spans)
			server := spans[len(spans)-1]
			assert.Equal(t, trace.SpanKindServer, server.SpanKind())
			assert.Equal(t, tt.wantCode, server.Status().Code)
			assert.Equal(t, int64(1), f.counterTotal(t, metricWorkRequests))
		})
	}
}

func TestService_Routes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("scraped"))
	})

	t.Run("with metrics", func(t *testing.T) {
		srv := httptest.NewServer(newFixture(t, metrics).svc.handler())
		defer srv.Close()

		resp, err := srv.Client().Get(srv.URL + "/metrics")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = srv.Client().Get(srv.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("without metrics", func(t *testing.T) {
		srv := httptest.NewServer(newFixture(t, nil).svc.handler())
		defer srv.Close()

		resp, err := srv.Client().Get(srv.URL + "/metrics")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestService_Serve(t *testing.T) {
	f := newFixture(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.svc.serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		return f.counterTotal(t, metricTicks) >= 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
