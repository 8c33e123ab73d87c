package xlog

import (
	"fmt"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 轮转默认值
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 7
	DefaultMaxAgeDays = 30
)

// RotationOption 配置文件轮转
type RotationOption func(*lumberjack.Logger)

// WithMaxSizeMB 单个文件大小上限（MB）
func WithMaxSizeMB(n int) RotationOption {
	return func(l *lumberjack.Logger) { l.MaxSize = n }
}

// WithMaxBackups 保留的备份数量，0 表示不限
func WithMaxBackups(n int) RotationOption {
	return func(l *lumberjack.Logger) { l.MaxBackups = n }
}

// WithMaxAgeDays 备份保留天数，0 表示不按天清理
func WithMaxAgeDays(n int) RotationOption {
	return func(l *lumberjack.Logger) { l.MaxAge = n }
}

// WithCompress 是否 gzip 压缩备份
func WithCompress(enable bool) RotationOption {
	return func(l *lumberjack.Logger) { l.Compress = enable }
}

// WithLocalTime 备份文件名使用本地时间
func WithLocalTime(enable bool) RotationOption {
	return func(l *lumberjack.Logger) { l.LocalTime = enable }
}

func newRotator(filename string, opts ...RotationOption) (*lumberjack.Logger, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: empty filename", ErrInvalidRotation)
	}
	l := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
		Compress:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	switch {
	case l.MaxSize <= 0:
		return nil, fmt.Errorf("%w: max size %d", ErrInvalidRotation, l.MaxSize)
	case l.MaxBackups < 0:
		return nil, fmt.Errorf("%w: max backups %d", ErrInvalidRotation, l.MaxBackups)
	case l.MaxAge < 0:
		return nil, fmt.Errorf("%w: max age %d", ErrInvalidRotation, l.MaxAge)
	}
	return l, nil
}
