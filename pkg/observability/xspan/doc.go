// Package xspan 把一段工作包装在命名的 OpenTelemetry span 中执行。
//
// # 生命周期
//
// 每次调用产生且只产生一个 span：
//
//	Created → Tagged → Running → {Ok | Error} → Released
//
//  1. tracer.Start 创建 span；span 不在记录（no-op provider、采样丢弃）时
//     返回 *SpanCreationError（可用 errors.Is(err, ErrSpanCreationFailed) 判断），工作函数不会执行。
//  2. 写入执行上下文标签：correlation-id、tenant-code、execution-user、origin。
//  3. 执行工作函数。传入的 ctx 携带 span、执行上下文和 xctx 追踪字段。
//  4. 成功则状态为 Ok；返回 error 则状态为 Error 并记录 exception 事件，
//     error 原样返回给调用方。panic 同样记录后原样重新抛出。
//  5. 所有退出路径都会 End span。
//
// # 调用形式
//
// 核心是泛型函数 Run（有输入、有输出），其余形式都转发给它：
//
//	err := m.Start(ctx, "reindex", xspan.KindInternal, exec, fn)                  // 无输入、无输出
//	err := xspan.StartWithInput(ctx, m, "publish", xspan.KindProducer, exec, msg, fn)
//	n, err := xspan.StartWithOutput(ctx, m, "count", xspan.KindClient, exec, fn)
//	resp, err := xspan.Run(ctx, m, "call", xspan.KindClient, exec, req, fn)
//
// StartInternal/StartServer/StartClient/StartProducer/StartConsumer 以及 Manager.Kind
// 返回的 Scope 只是固定了 Kind 的便捷入口。
//
// # 取消
//
// 所有调用都在调用方 goroutine 上同步执行。Manager 不检查 ctx.Done()，
// 取消由工作函数自行观察；工作函数返回的 context.Canceled 走 Error 路径。
//
// # HTTP
//
// HTTPMiddleware 从请求头解析执行上下文（见 xctx.ExecutionFromHeader），
// 并在 Server span 中执行后续 handler。
//
// # gRPC
//
// UnaryServerInterceptor、StreamServerInterceptor 从 incoming metadata 读取同名的小写 key；
// UnaryClientInterceptor 在 Client span 中发起调用，并把执行上下文和追踪上下文写入 outgoing metadata。
package xspan
