package xlog

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// =============================================================================
// 全局 Logger
//
// 服务端推荐显式持有 Logger，全局实例用于 main 与小工具。
// =============================================================================

var globalLogger atomic.Pointer[LoggerWithLevel]

// Default 返回全局 Logger，未设置时惰性创建默认配置的 Logger
func Default() LoggerWithLevel {
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	logger, _, err := New().Build()
	if err != nil {
		logger = newLogger(slog.NewTextHandler(io.Discard, nil), new(slog.LevelVar), false, nil)
	}
	// 并发首次调用时以先写入者为准
	if globalLogger.CompareAndSwap(nil, &logger) {
		return logger
	}
	return *globalLogger.Load()
}

// SetDefault 替换全局 Logger，nil 被忽略
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalLogger.Store(&l)
}

// Discard 返回丢弃所有输出的 Logger
func Discard() LoggerWithLevel {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelError + 1)
	return newLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelVar}), levelVar, false, nil)
}

// Info 使用全局 Logger 记录 Info 日志
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Info(ctx, msg, attrs...)
}

// Warn 使用全局 Logger 记录 Warn 日志
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Warn(ctx, msg, attrs...)
}

// Error 使用全局 Logger 记录 Error 日志
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Error(ctx, msg, attrs...)
}
