// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: 执行信息（correlation/tenant/user/origin）与追踪标识的 context 存取
//
// 设计原则：
//   - 所有上下文信息通过 context.Context 传递，不使用全局变量
//   - 入口层构造，调用链只读
package context
