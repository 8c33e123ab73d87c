// xobsdemo 演示 xobs 观测组件的完整接线。
//
// 用法:
//
//	xobsdemo [全局选项] <命令>
//
// 全局选项:
//
//	-c, --config    配置文件路径（YAML/JSON，默认使用内置配置）
//	-i, --interval  覆盖 worker.interval
//
// 命令:
//
//	run            启动 HTTP 服务（/metrics、/work、/healthz）与周期任务
//	instruments    校验并列出配置声明的仪表
//	version        显示版本信息
//
// 退出码:
//
//	0: 成功
//	1: 运行失败
//	2: 参数或配置错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// usageError 参数或配置错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xobsdemo",
		Usage:     "xobs 观测组件演示服务",
		Version:   versionString(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（YAML/JSON）",
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "周期任务间隔，覆盖配置文件",
			},
		},
		Commands: createCommands(stdout),
		// 退出码由 run 统一映射
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
}
