package xctx

import "errors"

// =============================================================================
// Context Key 类型定义
// =============================================================================

// contextKey 包私有类型，避免与其他包的 context key 冲突。
type contextKey string

// =============================================================================
// 通用错误
// =============================================================================

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")
)

// =============================================================================
// Execution 相关错误
// =============================================================================

var (
	// ErrMissingExecution context 中没有执行信息
	ErrMissingExecution = errors.New("xctx: missing execution")

	// ErrMissingCorrelationID correlation_id 缺失
	ErrMissingCorrelationID = errors.New("xctx: missing correlation_id")

	// ErrMissingTenantCode tenant_code 缺失
	ErrMissingTenantCode = errors.New("xctx: missing tenant_code")

	// ErrMissingExecutionUser execution_user 缺失
	ErrMissingExecutionUser = errors.New("xctx: missing execution_user")

	// ErrMissingOrigin origin 缺失
	ErrMissingOrigin = errors.New("xctx: missing origin")

	// ErrInvalidCorrelationID correlation_id 不是合法 UUID
	ErrInvalidCorrelationID = errors.New("xctx: invalid correlation_id")

	// ErrInvalidTenantCode tenant_code 不是合法 UUID
	ErrInvalidTenantCode = errors.New("xctx: invalid tenant_code")
)
