package xotel

import "errors"

var (
	// ErrUnsupportedExporter 未知的导出器名称
	ErrUnsupportedExporter = errors.New("xotel: unsupported exporter")
	// ErrInvalidConfig 配置值非法
	ErrInvalidConfig = errors.New("xotel: invalid config")
)
