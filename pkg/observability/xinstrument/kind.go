package xinstrument

import "strconv"

// Kind 仪表种类，每个种类是独立的名称空间
type Kind int

const (
	KindCounter Kind = iota
	KindHistogram
	KindObservableGauge
)

// String 返回小写标识，与声明式配置中的 kind 字段一致
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindHistogram:
		return "histogram"
	case KindObservableGauge:
		return "observable_gauge"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Title 返回错误消息中使用的名称
func (k Kind) Title() string {
	switch k {
	case KindCounter:
		return "Counter"
	case KindHistogram:
		return "Histogram"
	case KindObservableGauge:
		return "Observable gauge"
	default:
		return k.String()
	}
}
