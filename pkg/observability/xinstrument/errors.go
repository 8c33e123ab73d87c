package xinstrument

import (
	"errors"
	"fmt"
)

var (
	// ErrNilMeter New 的 meter 为 nil
	ErrNilMeter = errors.New("xinstrument: nil meter")
	// ErrNilRegistry registry 为 nil
	ErrNilRegistry = errors.New("xinstrument: nil registry")

	// ErrInvalidArgument 必填参数为空（仪表名称、gauge 回调）
	ErrInvalidArgument = errors.New("xinstrument: invalid argument")
	// ErrEmptyName 名称为空或只有空白
	ErrEmptyName = errors.New("xinstrument: empty name")
	// ErrInvalidDescriptor 描述符校验失败
	ErrInvalidDescriptor = errors.New("xinstrument: invalid descriptor")
	// ErrAlreadyExists 同类仪表中名称已注册
	ErrAlreadyExists = errors.New("xinstrument: already exists")
	// ErrNotFound 名称未注册
	ErrNotFound = errors.New("xinstrument: not found")
	// ErrTypeMismatch 以不同于创建时的数值类型访问仪表
	ErrTypeMismatch = errors.New("xinstrument: numeric type mismatch")

	// ErrCreateCounter 后端创建 Counter 失败
	ErrCreateCounter = errors.New("xinstrument: create counter failed")
	// ErrCreateHistogram 后端创建 Histogram 失败
	ErrCreateHistogram = errors.New("xinstrument: create histogram failed")
	// ErrCreateGauge 后端创建 ObservableGauge 失败
	ErrCreateGauge = errors.New("xinstrument: create observable gauge failed")

	// ErrInvalidBuckets Histogram 桶边界不是严格递增
	ErrInvalidBuckets = errors.New("xinstrument: invalid histogram buckets")
	// ErrInvalidDeclaration 声明式配置非法
	ErrInvalidDeclaration = errors.New("xinstrument: invalid declaration")
)

// invalidArgument 返回引用参数名的 ErrInvalidArgument
func invalidArgument(param string) error {
	return fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, param)
}

// createFailed 包装后端创建失败；后端未给出原因时只返回 sentinel
func createFailed(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// InstrumentError 与具体仪表相关的错误
type InstrumentError struct {
	Kind Kind
	Name string
	Err  error
}

// Error 对重复与未找到两种情况使用固定模板：
//
//	Counter already exists | Name: <name>
//	Counter not found | Name: <name>
func (e *InstrumentError) Error() string {
	switch {
	case errors.Is(e.Err, ErrAlreadyExists):
		return fmt.Sprintf("%s already exists | Name: %s", e.Kind.Title(), e.Name)
	case errors.Is(e.Err, ErrNotFound):
		return fmt.Sprintf("%s not found | Name: %s", e.Kind.Title(), e.Name)
	default:
		return fmt.Sprintf("xinstrument: %s %q: %v", e.Kind, e.Name, e.Err)
	}
}

func (e *InstrumentError) Unwrap() error {
	return e.Err
}
