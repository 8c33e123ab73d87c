// Package xotel 按配置构建 OpenTelemetry 的 MeterProvider 与 TracerProvider。
//
// 指标导出：
//   - prometheus：注册到独立的 prometheus.Registry，通过 Providers.MetricsHandler 暴露
//   - otlp：OTLP/HTTP，周期性推送
//   - none：不导出（仍可通过 WithMetricReader 附加 reader）
//
// 追踪导出：
//   - stdout：写到 io.Writer（默认 os.Stdout）
//   - otlp：OTLP/gRPC
//   - none：不导出（仍可通过 WithSpanProcessor 附加 processor）
//
// 采样器为 ParentBased(TraceIDRatioBased(ratio))，ratio 默认 1。
// ratio 为 0 时所有 span 都不记录，xspan 会把每次调用视为 span 创建失败。
//
// Setup 不修改全局状态，需要时调用 Providers.SetGlobal。
// 进程退出前调用 Providers.Shutdown 刷新并关闭导出器。
package xotel
