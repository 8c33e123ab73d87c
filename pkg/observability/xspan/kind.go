package xspan

import (
	"strconv"

	"go.opentelemetry.io/otel/trace"
)

// Kind span 在调用链中的角色
type Kind int

const (
	// KindInternal 进程内操作
	KindInternal Kind = iota
	// KindServer 服务端处理
	KindServer
	// KindClient 客户端调用
	KindClient
	// KindProducer 消息生产
	KindProducer
	// KindConsumer 消息消费
	KindConsumer
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "Internal"
	case KindServer:
		return "Server"
	case KindClient:
		return "Client"
	case KindProducer:
		return "Producer"
	case KindConsumer:
		return "Consumer"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// SpanKind 映射为 OTel SpanKind，未知值视为 Internal
func (k Kind) SpanKind() trace.SpanKind {
	switch k {
	case KindServer:
		return trace.SpanKindServer
	case KindClient:
		return trace.SpanKindClient
	case KindProducer:
		return trace.SpanKindProducer
	case KindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}
