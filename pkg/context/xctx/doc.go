// Package xctx 提供执行上下文（execution context）的 context 存取能力。
//
// 执行上下文描述"谁、为哪个租户、从哪里"发起了当前操作，由入口层构造，
// 在调用链中只读传播，并被 xspan 写入每个跨度的默认标签、被 xlog 注入每条日志。
//
// # 字段
//
// Execution（执行信息）：
//   - correlation_id : 关联标识（UUID），串联一次业务请求的所有操作
//   - tenant_code    : 租户编码（UUID）
//   - execution_user : 执行用户
//   - origin         : 请求来源（服务名、入口名等）
//
// Trace（追踪信息）- 由 xspan 从 OpenTelemetry 跨度同步：
//   - trace_id    : 追踪标识（W3C，128-bit hex）
//   - span_id     : 跨度标识（W3C，64-bit hex）
//   - trace_flags : 采样标志（2 位 hex）
//
// # 命名约定
//
//	WithXxx(ctx, value)  - 注入：将 value 写入 context
//	Xxx(ctx)             - 读取：缺失时返回零值
//	GetXxx(ctx)          - 读取：返回 (value, ok)
//	RequireXxx(ctx)      - 强制读取：缺失时返回错误
//
// # 哨兵错误
//
//	ErrNilContext            - context 为 nil
//	ErrMissingExecution      - context 中没有执行信息
//	ErrMissingCorrelationID  - correlation_id 为零值
//	ErrMissingTenantCode     - tenant_code 为零值
//	ErrMissingExecutionUser  - execution_user 为空
//	ErrMissingOrigin         - origin 为空
//	ErrInvalidCorrelationID  - correlation_id 不是合法 UUID
//	ErrInvalidTenantCode     - tenant_code 不是合法 UUID
//
// # 校验策略
//
// xctx 是存取层：WithExecution 不强制 Validate，入口层按需调用 Execution.Validate。
// HTTP Header 解析（ExecutionFromHeader）只校验 UUID 格式。
package xctx
