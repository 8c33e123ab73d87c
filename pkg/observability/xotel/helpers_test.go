package xotel_test

import "go.opentelemetry.io/otel/attribute"

func resourceValue(attrs []attribute.KeyValue, key string) string {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}
