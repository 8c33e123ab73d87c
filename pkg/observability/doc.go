// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xinstrument: 按名称注册与记录的指标仪表（Counter/Histogram/ObservableGauge）
//   - xspan: 带执行上下文标签的 span 生命周期管理，含 HTTP 中间件与 gRPC 拦截器
//   - xotel: 按配置构建 MeterProvider/TracerProvider 与导出器
//   - xlog: 结构化日志，基于 log/slog 扩展，支持文件轮转
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 自动从 context 中提取追踪信息注入日志
//   - 后端（provider、exporter）由调用方注入，子包本身不持有全局状态
package observability
