package xinstrument

import (
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Tag 测量属性
//
// Key 为空或 Value 为 nil 的 Tag 会被丢弃。
type Tag struct {
	Key   string
	Value any
}

// String 字符串属性
func String(key, value string) Tag { return Tag{Key: key, Value: value} }

// Bool 布尔属性
func Bool(key string, value bool) Tag { return Tag{Key: key, Value: value} }

// Int 整数属性
func Int(key string, value int) Tag { return Tag{Key: key, Value: value} }

// Int64 int64 属性
func Int64(key string, value int64) Tag { return Tag{Key: key, Value: value} }

// Float64 float64 属性
func Float64(key string, value float64) Tag { return Tag{Key: key, Value: value} }

// Duration 时间间隔属性，以纳秒整数记录
func Duration(key string, value time.Duration) Tag { return Tag{Key: key, Value: value} }

// Any 任意类型属性，无法识别的类型按 fmt.Sprint 转为字符串
func Any(key string, value any) Tag { return Tag{Key: key, Value: value} }

func toAttributes(tags []Tag) []attribute.KeyValue {
	if len(tags) == 0 {
		return nil
	}
	kvs := make([]attribute.KeyValue, 0, len(tags))
	for _, t := range tags {
		if t.Key == "" || t.Value == nil {
			continue
		}
		kvs = append(kvs, t.keyValue())
	}
	return kvs
}

func (t Tag) keyValue() attribute.KeyValue {
	switch v := t.Value.(type) {
	case string:
		return attribute.String(t.Key, v)
	case bool:
		return attribute.Bool(t.Key, v)
	case int:
		return attribute.Int(t.Key, v)
	case int8:
		return attribute.Int64(t.Key, int64(v))
	case int16:
		return attribute.Int64(t.Key, int64(v))
	case int32:
		return attribute.Int64(t.Key, int64(v))
	case int64:
		return attribute.Int64(t.Key, v)
	case uint8:
		return attribute.Int64(t.Key, int64(v))
	case uint16:
		return attribute.Int64(t.Key, int64(v))
	case uint32:
		return attribute.Int64(t.Key, int64(v))
	case uint64:
		if v <= math.MaxInt64 {
			return attribute.Int64(t.Key, int64(v))
		}
		return attribute.String(t.Key, fmt.Sprint(v))
	case float32:
		return attribute.Float64(t.Key, float64(v))
	case float64:
		return attribute.Float64(t.Key, v)
	case time.Duration:
		return attribute.Int64(t.Key, v.Nanoseconds())
	case []string:
		return attribute.StringSlice(t.Key, v)
	case fmt.Stringer:
		return attribute.String(t.Key, v.String())
	default:
		return attribute.String(t.Key, fmt.Sprint(v))
	}
}
