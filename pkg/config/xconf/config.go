package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Option 配置加载选项
type Option func(*options)

type options struct {
	delim string
	tag   string
}

// WithDelim 设置键路径分隔符，默认 "."
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithTag 设置结构体标签名，默认 "koanf"
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}

// Config 已加载的配置
//
// Reload 整体替换底层 koanf 实例，读写并发安全。
type Config struct {
	mu     sync.RWMutex
	k      *koanf.Koanf
	path   string
	format Format
	opts   options
}

// New 从文件加载配置，格式由扩展名决定（.yaml/.yml/.json）
func New(path string, opts ...Option) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	c := newConfig(format, opts)
	c.path = path
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromBytes 从内存数据加载配置，空数据得到空配置
func NewFromBytes(data []byte, format Format, opts ...Option) (*Config, error) {
	if _, err := parserFor(format); err != nil {
		return nil, err
	}
	c := newConfig(format, opts)
	k, err := load(data, format, c.opts.delim)
	if err != nil {
		return nil, err
	}
	c.k = k
	return c, nil
}

func newConfig(format Format, opts []Option) *Config {
	o := options{delim: ".", tag: "koanf"}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Config{format: format, opts: o}
}

// Koanf 返回当前的 koanf 实例；Reload 之后需要重新获取
func (c *Config) Koanf() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

// Unmarshal 把 path 下的配置解码到 target，path 为空时解码整个文档
func (c *Config) Unmarshal(path string, target any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Reload 重新读取文件；失败时保留上一次成功加载的内容
func (c *Config) Reload() error {
	if c.path == "" {
		return ErrNotFileBacked
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := load(data, c.format, c.opts.delim)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.k = k
	c.mu.Unlock()
	return nil
}

// Path 返回文件路径，从字节创建时为空
func (c *Config) Path() string {
	return c.path
}

// Format 返回配置格式
func (c *Config) Format() Format {
	return c.format
}

// Decode 把 path 下的配置解码为 T
func Decode[T any](c *Config, path string) (T, error) {
	var v T
	if c == nil {
		return v, ErrNilConfig
	}
	err := c.Unmarshal(path, &v)
	return v, err
}

// FormatOf 根据扩展名判断格式
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func parserFor(format Format) (koanf.Parser, error) {
	switch format {
	case FormatYAML:
		return yaml.Parser(), nil
	case FormatJSON:
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func load(data []byte, format Format, delim string) (*koanf.Koanf, error) {
	parser, err := parserFor(format)
	if err != nil {
		return nil, err
	}
	k := koanf.New(delim)
	if len(data) == 0 {
		return k, nil
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}
