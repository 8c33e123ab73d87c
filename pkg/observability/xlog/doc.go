// Package xlog 提供强制 context 传递的结构化日志。
//
// 基于 log/slog，Logger 的每个方法都以 context.Context 作为首参，
// 由 EnrichHandler 从 context 中提取 xctx 的追踪字段（trace_id、span_id、trace_flags）
// 与执行上下文字段（correlation_id、tenant_code、execution_user、origin）注入日志。
//
// 构建：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xobs/app.log", xlog.WithMaxSizeMB(100)).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// 级别可在运行时通过 SetLevel 调整，派生 logger（With/WithGroup）共享同一级别。
//
// 不需要输出日志的组件使用 Discard()。
package xlog
