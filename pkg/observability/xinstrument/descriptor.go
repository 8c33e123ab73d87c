package xinstrument

import (
	"fmt"
	"strings"
)

// Descriptor 仪表描述符，创建后不可变
//
// Descriptor 与数值类型无关，Counters()/Histograms()/ObservableGauges() 只暴露描述符，
// 后端句柄留在 Registry 内部。
type Descriptor struct {
	Name        string
	Unit        string
	Description string
}

// NewDescriptor 校验并创建描述符，名称为空或只有空白时返回 ErrInvalidDescriptor
func NewDescriptor(name, unit, description string) (Descriptor, error) {
	if strings.TrimSpace(name) == "" {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrInvalidDescriptor, ErrEmptyName)
	}
	return Descriptor{Name: name, Unit: unit, Description: description}, nil
}
