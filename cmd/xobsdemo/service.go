package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xobs/pkg/context/xctx"
	"github.com/omeyang/xobs/pkg/observability/xinstrument"
	"github.com/omeyang/xobs/pkg/observability/xlog"
	"github.com/omeyang/xobs/pkg/observability/xspan"
)

// 内置仪表名；未在配置中声明时由 newRegistry 补齐
const (
	metricTicks        = "xobs.demo.ticks"
	metricTickDuration = "xobs.demo.tick.duration"
	metricWorkRequests = "xobs.demo.work.requests"
	metricGoroutines   = "xobs.demo.goroutines"
)

const (
	instrumentationName = "github.com/omeyang/xobs/cmd/xobsdemo"
	shutdownTimeout     = 5 * time.Second
)

// newRegistry 注册声明的仪表，再补齐 service 依赖的内置仪表
func newRegistry(meter metric.Meter, decls []xinstrument.Declaration, logger xlog.Logger) (*xinstrument.Registry, error) {
	reg, err := xinstrument.New(meter, xinstrument.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := xinstrument.Register(reg, decls); err != nil {
		return nil, err
	}

	builtins := []error{
		xinstrument.CreateCounter[int64](reg, metricTicks, xinstrument.WithUnit("{tick}")),
		xinstrument.CreateHistogram[float64](reg, metricTickDuration, xinstrument.WithUnit("s")),
		xinstrument.CreateCounter[int64](reg, metricWorkRequests, xinstrument.WithUnit("{request}")),
		xinstrument.CreateObservableGauge[int64](reg, metricGoroutines, observeGoroutines,
			xinstrument.WithUnit("{goroutine}"),
			xinstrument.WithDescription("Live goroutines")),
	}
	for _, err := range builtins {
		if err != nil && !errors.Is(err, xinstrument.ErrAlreadyExists) {
			return nil, err
		}
	}
	return reg, nil
}

func observeGoroutines(context.Context) []xinstrument.Measurement[int64] {
	return []xinstrument.Measurement[int64]{{Value: int64(runtime.NumGoroutine())}}
}

// service 周期任务与 HTTP 入口共享的观测组件
type service struct {
	cfg            appConfig
	logger         xlog.Logger
	registry       *xinstrument.Registry
	manager        *xspan.Manager
	metricsHandler http.Handler
	tenant         uuid.UUID
}

func newService(cfg appConfig, logger xlog.Logger, mp metric.MeterProvider, tp trace.TracerProvider, metricsHandler http.Handler) (*service, error) {
	reg, err := newRegistry(mp.Meter(instrumentationName), cfg.Instruments, logger)
	if err != nil {
		return nil, err
	}
	mgr, err := xspan.New(
		xspan.WithTracerProvider(tp),
		xspan.WithInstrumentationName(instrumentationName),
		xspan.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &service{
		cfg:            cfg,
		logger:         logger.With(xlog.Component("xobsdemo")),
		registry:       reg,
		manager:        mgr,
		metricsHandler: metricsHandler,
		tenant:         uuid.New(),
	}, nil
}

// =============================================================================
// 周期任务
// =============================================================================

// tick 在 Consumer span 中执行一次任务，并记录次数与耗时
func (s *service) tick(ctx context.Context, seq int) error {
	exec := xctx.NewExecution(s.tenant, s.cfg.Worker.User, s.cfg.Worker.Origin)
	start := time.Now()

	err := s.manager.StartConsumer(ctx, "demo.tick", exec,
		func(ctx context.Context, span trace.Span, exec xctx.Execution) error {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			span.SetAttributes(
				attribute.Int("demo.tick.seq", seq),
				attribute.Int64("demo.heap.alloc", int64(ms.HeapAlloc)),
			)
			s.logger.Debug(ctx, "tick", xlog.Count(seq))
			return ctx.Err()
		})

	elapsed := time.Since(start)
	tags := []xinstrument.Tag{xinstrument.Bool("ok", err == nil)}
	return errors.Join(
		err,
		xinstrument.IncrementCounter[int64](ctx, s.registry, metricTicks, 1, tags...),
		xinstrument.RecordHistogram(ctx, s.registry, metricTickDuration, elapsed.Seconds(), tags...),
	)
}

// runWorker 每 interval 执行一次 tick，直到 ctx 取消
func (s *service) runWorker(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for seq := 1; ; seq++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.tick(ctx, seq); err != nil && ctx.Err() == nil {
				s.logger.Warn(ctx, "tick failed", xlog.Err(err), xlog.Count(seq))
			}
		}
	}
}

// =============================================================================
// HTTP
// =============================================================================

type workResponse struct {
	CorrelationID string `json:"correlation_id"`
	Result        int    `json:"result"`
}

func (s *service) handler() http.Handler {
	mux := http.NewServeMux()
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("GET /work", xspan.HTTPMiddleware(s.manager)(http.HandlerFunc(s.handleWork)))
	return mux
}

// handleWork 在子 span 中计算 1..n 的和；n 非法时返回 400，fail=1 时返回 500
func (s *service) handleWork(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exec := xctx.ExecutionFrom(ctx)

	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n < 0 {
		s.countWork(ctx, http.StatusBadRequest)
		http.Error(w, "n must be a non-negative integer", http.StatusBadRequest)
		return
	}

	sum, err := xspan.Run(ctx, s.manager, "demo.work.sum", xspan.KindInternal, exec, n,
		func(_ context.Context, span trace.Span, _ xctx.Execution, n int) (int, error) {
			span.SetAttributes(attribute.Int("demo.work.n", n))
			if r.URL.Query().Get("fail") == "1" {
				return 0, errWorkFailed
			}
			total := 0
			for i := 1; i <= n; i++ {
				total += i
			}
			return total, nil
		})
	if err != nil {
		s.countWork(ctx, http.StatusInternalServerError)
		s.logger.Error(ctx, "work failed", xlog.Err(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.countWork(ctx, http.StatusOK)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(workResponse{
		CorrelationID: exec.CorrelationID.String(),
		Result:        sum,
	})
}

func (s *service) countWork(ctx context.Context, status int) {
	if err := xinstrument.IncrementCounter[int64](ctx, s.registry, metricWorkRequests, 1,
		xinstrument.Int("status", status)); err != nil {
		s.logger.Warn(ctx, "count work request", xlog.Err(err))
	}
}

var errWorkFailed = errors.New("xobsdemo: work failed on request")

// serve 在 ln 上提供 HTTP 服务并运行周期任务，直到 ctx 取消或任一方失败
func (s *service) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info(gctx, "http server listening", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return s.runWorker(gctx, s.cfg.Worker.Interval)
	})
	return g.Wait()
}
