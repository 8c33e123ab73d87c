package xspan

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xobs/pkg/context/xctx"
	"github.com/omeyang/xobs/pkg/observability/xlog"
)

// 写入 gRPC span 的属性（OTel 语义约定）
const (
	AttrRPCSystem         = "rpc.system"
	AttrRPCMethod         = "rpc.method"
	AttrRPCGRPCStatusCode = "rpc.grpc.status_code"
)

// GRPCOption 配置 gRPC 拦截器
type GRPCOption func(*grpcConfig)

type grpcConfig struct {
	propagator propagation.TextMapPropagator
}

// WithGRPCPropagator 设置追踪上下文在 metadata 中的编解码方式，默认 otel.GetTextMapPropagator()
func WithGRPCPropagator(p propagation.TextMapPropagator) GRPCOption {
	return func(c *grpcConfig) {
		if p != nil {
			c.propagator = p
		}
	}
}

func newGRPCConfig(opts []GRPCOption) *grpcConfig {
	cfg := &grpcConfig{propagator: otel.GetTextMapPropagator()}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// =============================================================================
// 服务端
// =============================================================================

// UnaryServerInterceptor 在 Server span 中执行一元调用
//
// 执行上下文从 metadata（x-correlation-id 等）解析，规则与 HTTPMiddleware 一致：
// UUID 非法时返回 InvalidArgument，span 创建失败时返回 Internal。
func UnaryServerInterceptor(m *Manager, opts ...GRPCOption) grpc.UnaryServerInterceptor {
	cfg := newGRPCConfig(opts)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, exec, err := cfg.extract(ctx)
		if err != nil {
			return nil, status.Error(grpccodes.InvalidArgument, err.Error())
		}

		served := false
		resp, err := Run(ctx, m, info.FullMethod, KindServer, exec, req,
			func(ctx context.Context, span trace.Span, _ xctx.Execution, req any) (any, error) {
				served = true
				span.SetAttributes(rpcAttributes(info.FullMethod)...)
				resp, err := handler(ctx, req)
				span.SetAttributes(attribute.Int64(AttrRPCGRPCStatusCode, int64(status.Code(err))))
				return resp, err
			})
		if err != nil && !served {
			return nil, rejected(ctx, m, info.FullMethod, err)
		}
		return resp, err
	}
}

// StreamServerInterceptor 在 Server span 中执行流式调用，span 覆盖整个流的生命周期
func StreamServerInterceptor(m *Manager, opts ...GRPCOption) grpc.StreamServerInterceptor {
	cfg := newGRPCConfig(opts)

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, exec, err := cfg.extract(ss.Context())
		if err != nil {
			return status.Error(grpccodes.InvalidArgument, err.Error())
		}

		served := false
		err = m.StartServer(ctx, info.FullMethod, exec,
			func(ctx context.Context, span trace.Span, _ xctx.Execution) error {
				served = true
				span.SetAttributes(rpcAttributes(info.FullMethod)...)
				err := handler(srv, &serverStream{ServerStream: ss, ctx: ctx})
				span.SetAttributes(attribute.Int64(AttrRPCGRPCStatusCode, int64(status.Code(err))))
				return err
			})
		if err != nil && !served {
			return rejected(ctx, m, info.FullMethod, err)
		}
		return err
	}
}

func (c *grpcConfig) extract(ctx context.Context) (context.Context, xctx.Execution, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	exec, err := xctx.ExecutionFromHeader(headerFromMetadata(md))
	if err != nil {
		return ctx, xctx.Execution{}, err
	}
	return c.propagator.Extract(ctx, metadataCarrier(md)), exec, nil
}

func rejected(ctx context.Context, m *Manager, method string, err error) error {
	m.log().Error(ctx, "rpc rejected", slog.String("method", method), xlog.Err(err))
	return status.Error(grpccodes.Internal, err.Error())
}

// serverStream 替换 Context，让 handler 看到 span 与执行上下文
type serverStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *serverStream) Context() context.Context {
	return s.ctx
}

// =============================================================================
// 客户端
// =============================================================================

// UnaryClientInterceptor 在 Client span 中发起一元调用
//
// 执行上下文取自 ctx（缺少 correlation id 时生成新的），连同追踪上下文一起写入 outgoing metadata。
// span 创建失败时不发起调用。
func UnaryClientInterceptor(m *Manager, opts ...GRPCOption) grpc.UnaryClientInterceptor {
	cfg := newGRPCConfig(opts)

	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
		if ctx == nil {
			ctx = context.Background()
		}
		exec := xctx.ExecutionFrom(ctx)
		if exec.CorrelationID == uuid.Nil {
			exec = exec.WithCorrelationID(uuid.New())
		}

		return m.StartClient(ctx, method, exec,
			func(ctx context.Context, span trace.Span, exec xctx.Execution) error {
				span.SetAttributes(rpcAttributes(method)...)
				err := invoker(cfg.outgoing(ctx, exec), method, req, reply, cc, callOpts...)
				span.SetAttributes(attribute.Int64(AttrRPCGRPCStatusCode, int64(status.Code(err))))
				return err
			})
	}
}

// outgoing 在已有 outgoing metadata 的副本上写入执行上下文与追踪上下文
func (c *grpcConfig) outgoing(ctx context.Context, exec xctx.Execution) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()

	h := http.Header{}
	xctx.InjectHeader(h, exec)
	for k, v := range h {
		md.Set(k, v...)
	}
	c.propagator.Inject(ctx, metadataCarrier(md))
	return metadata.NewOutgoingContext(ctx, md)
}

func rpcAttributes(fullMethod string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRPCSystem, "grpc"),
		attribute.String(AttrRPCMethod, fullMethod),
	}
}

// =============================================================================
// metadata 适配
// =============================================================================

var executionHeaders = [...]string{
	xctx.HeaderCorrelationID,
	xctx.HeaderTenantCode,
	xctx.HeaderExecutionUser,
	xctx.HeaderOrigin,
}

// headerFromMetadata 取出执行上下文相关的 metadata；gRPC 的 key 一律小写
func headerFromMetadata(md metadata.MD) http.Header {
	h := http.Header{}
	for _, name := range executionHeaders {
		if v := md.Get(name); len(v) > 0 {
			h.Set(name, v[0])
		}
	}
	return h
}

// metadataCarrier 让 propagator 读写 gRPC metadata
type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	if v := metadata.MD(c).Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c metadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
