// Package xinstrument 提供按名称注册和使用的 OpenTelemetry 度量仪表。
//
// # 概述
//
// Registry 在 metric.Meter 之上维护三类仪表：Counter、Histogram、ObservableGauge。
// 每类仪表各自构成独立的名称空间，同一名称可以同时是一个 Counter 和一个 Histogram。
// 名称在创建时校验，重复创建返回 ErrAlreadyExists，且不修改已有条目；
// 对未注册名称的累加/记录返回 ErrNotFound，不会调用后端。
//
// # 数值类型
//
// 仪表按数值类型泛型化（见 Number）。整数类型使用 Int64 仪表，浮点类型使用 Float64 仪表。
// 仪表绑定创建时的精确类型，之后以其他类型访问同名仪表返回 ErrTypeMismatch。
// Go 不支持泛型方法，因此带类型参数的操作是以 *Registry 为首参的包级函数：
//
//	reg, err := xinstrument.New(meter)
//	if err != nil {
//		return err
//	}
//	if err := xinstrument.CreateCounter[int64](reg, "orders.created",
//		xinstrument.WithUnit("{order}"),
//		xinstrument.WithDescription("created orders"),
//	); err != nil {
//		return err
//	}
//	err = xinstrument.IncrementCounter(ctx, reg, "orders.created", int64(1),
//		xinstrument.String("channel", "web"))
//
// # ObservableGauge
//
// ObservableGauge 的回调由 metric SDK 在采集时调用，调度完全由后端决定，
// Registry 本身从不调用它。
//
// # 并发
//
// 创建在写锁内完成（检查、后端创建、插入），并发创建同名仪表只有一个成功。
// 累加/记录只在读锁内查表，后端调用在锁外进行。
//
// # 错误
//
// 所有错误都可用 errors.Is 判断：ErrInvalidArgument、ErrAlreadyExists、ErrNotFound、
// ErrInvalidDescriptor、ErrTypeMismatch、ErrCreateCounter 等。
// 名称相关的错误以 *InstrumentError 返回，携带仪表种类和名称。
package xinstrument
