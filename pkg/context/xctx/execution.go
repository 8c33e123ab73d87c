package xctx

import (
	"context"

	"github.com/google/uuid"
)

// =============================================================================
// Execution 日志属性 Key 常量
// =============================================================================

// Execution Key 常量，遵循下划线分隔的命名约定
const (
	KeyCorrelationID = "correlation_id"
	KeyTenantCode    = "tenant_code"
	KeyExecutionUser = "execution_user"
	KeyOrigin        = "origin"

	// executionFieldCount 执行信息字段数量（用于 slog 属性预分配）
	executionFieldCount = 4
)

const keyExecution = contextKey("xctx:execution")

// Execution 执行信息
//
// 由入口层（HTTP 中间件、消息消费者、定时任务）构造，之后只读。
// 值类型，可安全复制。
type Execution struct {
	CorrelationID uuid.UUID
	TenantCode    uuid.UUID
	ExecutionUser string
	Origin        string
}

// NewExecution 创建执行信息，自动生成新的 CorrelationID。
func NewExecution(tenantCode uuid.UUID, executionUser, origin string) Execution {
	return Execution{
		CorrelationID: uuid.New(),
		TenantCode:    tenantCode,
		ExecutionUser: executionUser,
		Origin:        origin,
	}
}

// Validate 校验所有字段是否存在，缺失时返回对应的哨兵错误。
//
// fail-fast：按 CorrelationID → TenantCode → ExecutionUser → Origin 顺序
// 返回第一个缺失字段的错误。
func (e Execution) Validate() error {
	if e.CorrelationID == uuid.Nil {
		return ErrMissingCorrelationID
	}
	if e.TenantCode == uuid.Nil {
		return ErrMissingTenantCode
	}
	if e.ExecutionUser == "" {
		return ErrMissingExecutionUser
	}
	if e.Origin == "" {
		return ErrMissingOrigin
	}
	return nil
}

// IsComplete 判断所有字段是否均非零值
func (e Execution) IsComplete() bool {
	return e.Validate() == nil
}

// WithCorrelationID 返回替换了 CorrelationID 的副本
func (e Execution) WithCorrelationID(id uuid.UUID) Execution {
	e.CorrelationID = id
	return e
}

// WithExecution 将执行信息注入 context
//
// 如果 ctx 为 nil，返回 ErrNilContext。不校验字段，需要时先调用 Validate。
func WithExecution(ctx context.Context, e Execution) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyExecution, e), nil
}

// GetExecution 从 context 提取执行信息
func GetExecution(ctx context.Context) (Execution, bool) {
	if ctx == nil {
		return Execution{}, false
	}
	e, ok := ctx.Value(keyExecution).(Execution)
	return e, ok
}

// ExecutionFrom 从 context 提取执行信息，不存在返回零值
func ExecutionFrom(ctx context.Context) Execution {
	e, _ := GetExecution(ctx)
	return e
}

// RequireExecution 从 context 获取执行信息，不存在则返回错误。
//
// 语义：执行信息必须存在且字段完整，否则返回 ErrMissingExecution 或
// Validate 给出的字段错误。如果 ctx 为 nil，返回 ErrNilContext。
func RequireExecution(ctx context.Context) (Execution, error) {
	if ctx == nil {
		return Execution{}, ErrNilContext
	}
	e, ok := GetExecution(ctx)
	if !ok {
		return Execution{}, ErrMissingExecution
	}
	if err := e.Validate(); err != nil {
		return Execution{}, err
	}
	return e, nil
}
