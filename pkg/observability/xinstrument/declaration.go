package xinstrument

import (
	"errors"
	"fmt"
	"strings"
)

// Declaration 声明式仪表定义，可直接从配置文件解码
//
// 只支持 Counter 与 Histogram；ObservableGauge 需要代码回调，只能通过 CreateObservableGauge 注册。
//
//	instruments:
//	  - name: xobs.demo.ticks
//	    kind: counter
//	    unit: "{tick}"
//	  - name: xobs.demo.tick.duration
//	    kind: histogram
//	    number: float64
//	    unit: s
//	    buckets: [0.001, 0.01, 0.1, 1]
type Declaration struct {
	Name        string    `koanf:"name" json:"name" yaml:"name"`
	Kind        string    `koanf:"kind" json:"kind" yaml:"kind"`
	Number      string    `koanf:"number" json:"number,omitempty" yaml:"number,omitempty"`
	Unit        string    `koanf:"unit" json:"unit,omitempty" yaml:"unit,omitempty"`
	Description string    `koanf:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Buckets     []float64 `koanf:"buckets" json:"buckets,omitempty" yaml:"buckets,omitempty"`
}

// 数值类型名
const (
	NumberInt64   = "int64"
	NumberFloat64 = "float64"
)

// Validate 检查 kind 与 number 字段；buckets 只允许出现在 histogram 上
func (d Declaration) Validate() error {
	kind, err := d.kind()
	if err != nil {
		return err
	}
	if _, err := d.number(); err != nil {
		return err
	}
	if len(d.Buckets) > 0 && kind != KindHistogram {
		return fmt.Errorf("%w: %q: buckets require kind histogram, got %q", ErrInvalidDeclaration, d.Name, d.Kind)
	}
	return nil
}

func (d Declaration) kind() (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(d.Kind)) {
	case KindCounter.String():
		return KindCounter, nil
	case KindHistogram.String():
		return KindHistogram, nil
	default:
		return 0, fmt.Errorf("%w: %q: unsupported kind %q", ErrInvalidDeclaration, d.Name, d.Kind)
	}
}

// number 返回数值类型，未填写时 Counter 默认 int64，Histogram 默认 float64
func (d Declaration) number() (string, error) {
	switch n := strings.ToLower(strings.TrimSpace(d.Number)); n {
	case NumberInt64, NumberFloat64:
		return n, nil
	case "":
		if k, _ := d.kind(); k == KindHistogram {
			return NumberFloat64, nil
		}
		return NumberInt64, nil
	default:
		return "", fmt.Errorf("%w: %q: unsupported number %q", ErrInvalidDeclaration, d.Name, d.Number)
	}
}

func (d Declaration) options() []InstrumentOption {
	opts := []InstrumentOption{WithUnit(d.Unit), WithDescription(d.Description)}
	if len(d.Buckets) > 0 {
		opts = append(opts, WithBuckets(d.Buckets...))
	}
	return opts
}

// Register 按顺序注册声明的仪表
//
// 单个声明失败不影响其余声明，所有失败以 errors.Join 合并返回。
func Register(r *Registry, decls []Declaration) error {
	if r == nil {
		return ErrNilRegistry
	}
	var errs []error
	for _, d := range decls {
		if err := register(r, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func register(r *Registry, d Declaration) error {
	if err := d.Validate(); err != nil {
		return err
	}
	kind, _ := d.kind()
	number, _ := d.number()

	opts := d.options()
	switch {
	case kind == KindCounter && number == NumberInt64:
		return CreateCounter[int64](r, d.Name, opts...)
	case kind == KindCounter:
		return CreateCounter[float64](r, d.Name, opts...)
	case number == NumberInt64:
		return CreateHistogram[int64](r, d.Name, opts...)
	default:
		return CreateHistogram[float64](r, d.Name, opts...)
	}
}
