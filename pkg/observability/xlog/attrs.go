package xlog

import (
	"log/slog"
	"time"
)

// 标准属性键
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyDuration  = "duration"
	KeyCount     = "count"
)

// Err 错误属性，err 为 nil 时值为 "<nil>"
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "<nil>")
	}
	return slog.String(KeyError, err.Error())
}

// Component 组件名
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 操作名
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Duration 耗时
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Count 计数
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}
