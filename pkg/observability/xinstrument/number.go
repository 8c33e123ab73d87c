package xinstrument

// Number 仪表支持的数值类型
//
// 整数由 Int64 仪表承载，浮点由 Float64 仪表承载。
// uint64 与 uint 不在其中，因为它们无法无损转换为 int64。
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 |
		~float32 | ~float64
}

// isFloat 整数除法截断为 0，浮点不会
func isFloat[T Number]() bool {
	var v T = 1
	v /= 2
	return v != 0
}

