package main

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xobs/pkg/config/xconf"
	"github.com/omeyang/xobs/pkg/observability/xinstrument"
	"github.com/omeyang/xobs/pkg/observability/xlog"
	"github.com/omeyang/xobs/pkg/observability/xotel"
)

//go:embed default.yaml
var defaultConfig []byte

const (
	defaultAddr     = ":8080"
	defaultInterval = 5 * time.Second
	defaultOrigin   = "xobs-demo"
)

type appConfig struct {
	Log         logConfig                 `koanf:"log"`
	Telemetry   xotel.Config              `koanf:"telemetry"`
	HTTP        httpConfig                `koanf:"http"`
	Worker      workerConfig              `koanf:"worker"`
	Instruments []xinstrument.Declaration `koanf:"instruments"`
}

type logConfig struct {
	Level  xlog.Level `koanf:"level"`
	Format string     `koanf:"format"`
	// File 非空时写入文件并按大小轮转
	File string `koanf:"file"`
}

type httpConfig struct {
	Addr string `koanf:"addr"`
}

type workerConfig struct {
	Interval time.Duration `koanf:"interval"`
	Origin   string        `koanf:"origin"`
	User     string        `koanf:"user"`
}

// loadConfig 读取 path 指向的配置；path 为空时使用内置默认配置
func loadConfig(path string) (*xconf.Config, appConfig, error) {
	var (
		conf *xconf.Config
		err  error
	)
	if strings.TrimSpace(path) == "" {
		conf, err = xconf.NewFromBytes(defaultConfig, xconf.FormatYAML)
	} else {
		conf, err = xconf.New(path)
	}
	if err != nil {
		return nil, appConfig{}, err
	}

	cfg, err := xconf.Decode[appConfig](conf, "")
	if err != nil {
		return nil, appConfig{}, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, appConfig{}, err
	}
	return conf, cfg, nil
}

func (c *appConfig) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = defaultAddr
	}
	if c.Worker.Interval == 0 {
		c.Worker.Interval = defaultInterval
	}
	if c.Worker.Origin == "" {
		c.Worker.Origin = defaultOrigin
	}
}

func (c *appConfig) validate() error {
	if c.Worker.Interval < 0 {
		return &usageError{msg: fmt.Sprintf("worker.interval must be positive, got %s", c.Worker.Interval)}
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	for i, d := range c.Instruments {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("instruments[%d]: %w", i, err)
		}
	}
	return nil
}
