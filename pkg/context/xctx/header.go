package xctx

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HTTP Header 名称（遵循 X- 前缀约定）
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderTenantCode    = "X-Tenant-Code"
	HeaderExecutionUser = "X-Execution-User"
	HeaderOrigin        = "X-Origin"
)

// ExecutionFromHeader 从 HTTP Header 解析执行信息
//
// 提取以下 Header（值自动 TrimSpace）：
//   - X-Correlation-ID -> CorrelationID，缺失时自动生成
//   - X-Tenant-Code    -> TenantCode，缺失时为 uuid.Nil
//   - X-Execution-User -> ExecutionUser
//   - X-Origin         -> Origin
//
// 非法 UUID 返回 ErrInvalidCorrelationID / ErrInvalidTenantCode。
// 其余字段不做校验，是否强制完整由调用方决定。
func ExecutionFromHeader(h http.Header) (Execution, error) {
	if h == nil {
		h = http.Header{}
	}

	e := Execution{
		ExecutionUser: strings.TrimSpace(h.Get(HeaderExecutionUser)),
		Origin:        strings.TrimSpace(h.Get(HeaderOrigin)),
	}

	if v := strings.TrimSpace(h.Get(HeaderCorrelationID)); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return Execution{}, fmt.Errorf("%w: %w", ErrInvalidCorrelationID, err)
		}
		e.CorrelationID = id
	} else {
		e.CorrelationID = uuid.New()
	}

	if v := strings.TrimSpace(h.Get(HeaderTenantCode)); v != "" {
		code, err := uuid.Parse(v)
		if err != nil {
			return Execution{}, fmt.Errorf("%w: %w", ErrInvalidTenantCode, err)
		}
		e.TenantCode = code
	}

	return e, nil
}

// InjectHeader 将执行信息写入 HTTP Header，用于向下游传播
//
// 零值字段不写入。h 为 nil 时不做任何处理。
func InjectHeader(h http.Header, e Execution) {
	if h == nil {
		return
	}
	if e.CorrelationID != uuid.Nil {
		h.Set(HeaderCorrelationID, e.CorrelationID.String())
	}
	if e.TenantCode != uuid.Nil {
		h.Set(HeaderTenantCode, e.TenantCode.String())
	}
	if e.ExecutionUser != "" {
		h.Set(HeaderExecutionUser, e.ExecutionUser)
	}
	if e.Origin != "" {
		h.Set(HeaderOrigin, e.Origin)
	}
}
