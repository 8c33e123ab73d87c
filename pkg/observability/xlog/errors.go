package xlog

import "errors"

var (
	// ErrNilHandler NewEnrichHandler 的 base handler 为 nil
	ErrNilHandler = errors.New("xlog: base handler is nil")

	// ErrNilOutput 输出目标为 nil
	ErrNilOutput = errors.New("xlog: output writer is nil")

	// ErrUnknownLevel 无法识别的日志级别
	ErrUnknownLevel = errors.New("xlog: unknown level")

	// ErrUnknownFormat 无法识别的输出格式
	ErrUnknownFormat = errors.New("xlog: unknown format")

	// ErrInvalidRotation 轮转参数非法
	ErrInvalidRotation = errors.New("xlog: invalid rotation config")
)
