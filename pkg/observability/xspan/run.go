package xspan

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xobs/pkg/context/xctx"
)

// Func 有输入、有输出的工作函数
//
// span 用于添加额外的属性或事件；终态与 End 由 Manager 负责，工作函数不应调用。
type Func[I, O any] func(ctx context.Context, span trace.Span, exec xctx.Execution, in I) (O, error)

// Handler 无输入、无输出的工作函数
type Handler func(ctx context.Context, span trace.Span, exec xctx.Execution) error

// InputHandler 有输入、无输出的工作函数
type InputHandler[I any] func(ctx context.Context, span trace.Span, exec xctx.Execution, in I) error

// OutputHandler 无输入、有输出的工作函数
type OutputHandler[O any] func(ctx context.Context, span trace.Span, exec xctx.Execution) (O, error)

// Run 在名为 name、类型为 kind 的 span 中执行 fn
//
// fn 返回的 error 原样返回（保持同一性，可用 == 比较）；fn 的 panic 在记录后原样重新抛出。
// fn 调用 runtime.Goexit 时 span 以 ErrAborted 结束。
func Run[I, O any](ctx context.Context, m *Manager, name string, kind Kind, exec xctx.Execution, in I, fn Func[I, O]) (out O, err error) {
	if m == nil {
		return out, ErrNilManager
	}
	if fn == nil {
		return out, fmt.Errorf("%w: %s", ErrNilFunc, name)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span, err := m.begin(ctx, name, kind, exec)
	if err != nil {
		return out, err
	}
	defer span.End()
	returned := false
	defer func() {
		if returned {
			return
		}
		if r := recover(); r != nil {
			finish(span, panicError(r), trace.WithStackTrace(true))
			panic(r)
		}
		finish(span, ErrAborted)
	}()

	out, err = fn(ctx, span, exec, in)
	returned = true
	finish(span, err)
	return out, err
}

// Start 在 span 中执行无输入、无输出的 fn
func (m *Manager) Start(ctx context.Context, name string, kind Kind, exec xctx.Execution, fn Handler) error {
	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNilFunc, name)
	}
	_, err := Run(ctx, m, name, kind, exec, struct{}{},
		func(ctx context.Context, span trace.Span, exec xctx.Execution, _ struct{}) (struct{}, error) {
			return struct{}{}, fn(ctx, span, exec)
		})
	return err
}

// StartWithInput 在 span 中执行有输入、无输出的 fn
func StartWithInput[I any](ctx context.Context, m *Manager, name string, kind Kind, exec xctx.Execution, in I, fn InputHandler[I]) error {
	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNilFunc, name)
	}
	_, err := Run(ctx, m, name, kind, exec, in,
		func(ctx context.Context, span trace.Span, exec xctx.Execution, in I) (struct{}, error) {
			return struct{}{}, fn(ctx, span, exec, in)
		})
	return err
}

// StartWithOutput 在 span 中执行无输入、有输出的 fn
func StartWithOutput[O any](ctx context.Context, m *Manager, name string, kind Kind, exec xctx.Execution, fn OutputHandler[O]) (O, error) {
	if fn == nil {
		var zero O
		return zero, fmt.Errorf("%w: %s", ErrNilFunc, name)
	}
	return Run(ctx, m, name, kind, exec, struct{}{},
		func(ctx context.Context, span trace.Span, exec xctx.Execution, _ struct{}) (O, error) {
			return fn(ctx, span, exec)
		})
}
