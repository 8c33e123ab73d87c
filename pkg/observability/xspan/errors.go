package xspan

import (
	"errors"
	"fmt"
)

var (
	// ErrNilManager Manager 为 nil
	ErrNilManager = errors.New("xspan: nil manager")
	// ErrNilFunc 工作函数为 nil
	ErrNilFunc = errors.New("xspan: nil work function")
	// ErrEmptyName span 名称为空
	ErrEmptyName = errors.New("xspan: empty span name")
	// ErrSpanCreationFailed tracer 未产生可记录的 span
	ErrSpanCreationFailed = errors.New("xspan: span creation failed")
	// ErrPanic 工作函数 panic，仅用于记录到 span
	ErrPanic = errors.New("xspan: work panicked")
	// ErrAborted 工作函数未返回就退出了 goroutine（runtime.Goexit），仅用于记录到 span
	ErrAborted = errors.New("xspan: work exited without returning")
)

// SpanCreationError tracer 未产生可记录的 span
//
// 通常意味着 TracerProvider 未配置或采样率为 0，属于配置错误，不会重试。
type SpanCreationError struct {
	Source string
	Name   string
	Kind   Kind
}

func (e *SpanCreationError) Error() string {
	return fmt.Sprintf("xspan: span creation failed | Source: %s | Name: %s | Kind: %s", e.Source, e.Name, e.Kind)
}

func (e *SpanCreationError) Is(target error) bool {
	return target == ErrSpanCreationFailed
}

// panicError 把 panic 值转换为 error
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("%w: %w", ErrPanic, err)
	}
	return fmt.Errorf("%w: %v", ErrPanic, v)
}
