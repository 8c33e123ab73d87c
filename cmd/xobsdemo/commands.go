package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xobs/pkg/config/xconf"
	"github.com/omeyang/xobs/pkg/observability/xinstrument"
	"github.com/omeyang/xobs/pkg/observability/xlog"
	"github.com/omeyang/xobs/pkg/observability/xotel"
)

func createCommands(stdout io.Writer) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "run",
			Usage: "启动 HTTP 服务与周期任务",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return cmdRun(ctx, stdout, cmd.String("config"), cmd.Duration("interval"))
			},
		},
		{
			Name:  "instruments",
			Usage: "校验并列出仪表",
			Action: func(_ context.Context, cmd *cli.Command) error {
				return cmdInstruments(stdout, cmd.String("config"))
			},
		},
		{
			Name:  "version",
			Usage: "显示版本信息",
			Action: func(context.Context, *cli.Command) error {
				_, err := fmt.Fprintf(stdout, "xobsdemo %s\n", versionString())
				return err
			},
		},
	}
}

// cmdRun 按 配置 → 日志 → 遥测 → 服务 的顺序启动，退出时逆序关闭
func cmdRun(ctx context.Context, out io.Writer, path string, interval time.Duration) error {
	if interval < 0 {
		return &usageError{msg: fmt.Sprintf("--interval must be positive, got %s", interval)}
	}
	conf, cfg, err := loadConfig(path)
	if err != nil {
		return asUsageError(err)
	}
	if interval > 0 {
		cfg.Worker.Interval = interval
	}

	logger, closeLog, err := buildLogger(cfg.Log, out)
	if err != nil {
		return asUsageError(err)
	}
	defer func() { _ = closeLog() }()
	xlog.SetDefault(logger)

	providers, err := xotel.Setup(ctx, cfg.Telemetry,
		xotel.WithLogger(logger),
		xotel.WithTraceWriter(out),
	)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	svc, err := newService(cfg, logger, providers.MeterProvider, providers.TracerProvider, providers.MetricsHandler())
	if err != nil {
		return err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTP.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.serve(gctx, ln) })
	if conf.Path() != "" {
		w, err := xconf.Watch(conf, reloadLogLevel(gctx, logger))
		if err != nil {
			logger.Warn(ctx, "config watch disabled", xlog.Err(err))
		} else {
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	err = g.Wait()
	logger.Info(context.WithoutCancel(ctx), "xobsdemo stopped")
	return err
}

// reloadLogLevel 配置文件变更后只热更新日志级别
func reloadLogLevel(ctx context.Context, logger xlog.LoggerWithLevel) xconf.WatchCallback {
	return func(c *xconf.Config, err error) {
		if err != nil {
			logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		lc, err := xconf.Decode[logConfig](c, "log")
		if err != nil {
			logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		if lc.Level != logger.GetLevel() {
			logger.SetLevel(lc.Level)
			logger.Info(ctx, "log level changed", xlog.Operation("reload"))
		}
	}
}

func buildLogger(cfg logConfig, out io.Writer) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetOutput(out).
		SetLevel(cfg.Level).
		SetFormat(cfg.Format)
	if cfg.File != "" {
		b = b.SetRotation(cfg.File)
	}
	return b.Build()
}

// cmdInstruments 在不导出的 MeterProvider 上注册全部仪表并输出清单
func cmdInstruments(out io.Writer, path string) error {
	_, cfg, err := loadConfig(path)
	if err != nil {
		return asUsageError(err)
	}

	mp := sdkmetric.NewMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	reg, err := newRegistry(mp.Meter(instrumentationName), cfg.Instruments, xlog.Discard())
	if err != nil {
		return asUsageError(err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tUNIT\tDESCRIPTION")
	list := func(kind xinstrument.Kind, ds []xinstrument.Descriptor) {
		for _, d := range ds {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, kind, d.Unit, d.Description)
		}
	}
	list(xinstrument.KindCounter, reg.Counters())
	list(xinstrument.KindHistogram, reg.Histograms())
	list(xinstrument.KindObservableGauge, reg.ObservableGauges())
	return tw.Flush()
}

// asUsageError 配置类错误映射为退出码 2
func asUsageError(err error) error {
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		return err
	}
	for _, target := range []error{
		xconf.ErrEmptyPath, xconf.ErrUnsupportedFormat, xconf.ErrLoadFailed,
		xconf.ErrParseFailed, xconf.ErrUnmarshalFailed,
		xotel.ErrUnsupportedExporter, xotel.ErrInvalidConfig,
		xinstrument.ErrInvalidDeclaration, xinstrument.ErrInvalidArgument,
		xinstrument.ErrInvalidBuckets,
		xlog.ErrUnknownFormat, xlog.ErrUnknownLevel, xlog.ErrInvalidRotation,
	} {
		if errors.Is(err, target) {
			return &usageError{msg: strings.TrimSpace(err.Error())}
		}
	}
	return err
}
