package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空
	ErrEmptyPath = errors.New("xconf: empty config path")
	// ErrUnsupportedFormat 不支持的配置格式
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")
	// ErrLoadFailed 读取配置失败
	ErrLoadFailed = errors.New("xconf: failed to load config")
	// ErrParseFailed 解析配置失败
	ErrParseFailed = errors.New("xconf: failed to parse config")
	// ErrUnmarshalFailed 反序列化失败
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")
	// ErrNotFileBacked 从字节创建的配置不支持 Reload/Watch
	ErrNotFileBacked = errors.New("xconf: config is not backed by a file")
	// ErrNilConfig 配置为 nil
	ErrNilConfig = errors.New("xconf: nil config")
)
