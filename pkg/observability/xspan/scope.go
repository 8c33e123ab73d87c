package xspan

import (
	"context"

	"github.com/omeyang/xobs/pkg/context/xctx"
)

// =============================================================================
// 固定 Kind 的便捷入口
// =============================================================================

// StartInternal 等价于 Start(ctx, name, KindInternal, exec, fn)
func (m *Manager) StartInternal(ctx context.Context, name string, exec xctx.Execution, fn Handler) error {
	return m.Start(ctx, name, KindInternal, exec, fn)
}

// StartServer 等价于 Start(ctx, name, KindServer, exec, fn)
func (m *Manager) StartServer(ctx context.Context, name string, exec xctx.Execution, fn Handler) error {
	return m.Start(ctx, name, KindServer, exec, fn)
}

// StartClient 等价于 Start(ctx, name, KindClient, exec, fn)
func (m *Manager) StartClient(ctx context.Context, name string, exec xctx.Execution, fn Handler) error {
	return m.Start(ctx, name, KindClient, exec, fn)
}

// StartProducer 等价于 Start(ctx, name, KindProducer, exec, fn)
func (m *Manager) StartProducer(ctx context.Context, name string, exec xctx.Execution, fn Handler) error {
	return m.Start(ctx, name, KindProducer, exec, fn)
}

// StartConsumer 等价于 Start(ctx, name, KindConsumer, exec, fn)
func (m *Manager) StartConsumer(ctx context.Context, name string, exec xctx.Execution, fn Handler) error {
	return m.Start(ctx, name, KindConsumer, exec, fn)
}

// Scope 绑定了 Kind 的 Manager 视图
//
//	consumer := m.Kind(xspan.KindConsumer)
//	err := xspan.ScopeStartWithInput(ctx, consumer, "orders.consume", exec, msg, handle)
type Scope struct {
	m    *Manager
	kind Kind
}

// Kind 返回固定为 k 的 Scope
func (m *Manager) Kind(k Kind) Scope {
	return Scope{m: m, kind: k}
}

// Kind 返回 Scope 绑定的 Kind
func (s Scope) Kind() Kind {
	return s.kind
}

// Start 无输入、无输出
func (s Scope) Start(ctx context.Context, name string, exec xctx.Execution, fn Handler) error {
	if s.m == nil {
		return ErrNilManager
	}
	return s.m.Start(ctx, name, s.kind, exec, fn)
}

// ScopeStartWithInput 有输入、无输出
func ScopeStartWithInput[I any](ctx context.Context, s Scope, name string, exec xctx.Execution, in I, fn InputHandler[I]) error {
	return StartWithInput(ctx, s.m, name, s.kind, exec, in, fn)
}

// ScopeStartWithOutput 无输入、有输出
func ScopeStartWithOutput[O any](ctx context.Context, s Scope, name string, exec xctx.Execution, fn OutputHandler[O]) (O, error) {
	return StartWithOutput(ctx, s.m, name, s.kind, exec, fn)
}

// ScopeRun 有输入、有输出
func ScopeRun[I, O any](ctx context.Context, s Scope, name string, exec xctx.Execution, in I, fn Func[I, O]) (O, error) {
	return Run(ctx, s.m, name, s.kind, exec, in, fn)
}
