// Package xconf 基于 koanf 加载 YAML/JSON 配置，并支持文件变更热加载。
//
//	cfg, err := xconf.New("/etc/xobs/config.yaml")
//	if err != nil {
//		return err
//	}
//	var app AppConfig
//	if err := cfg.Unmarshal("", &app); err != nil {
//		return err
//	}
//
// 结构体字段使用 koanf 标签映射。实现了 encoding.TextUnmarshaler 的类型
// （如 xlog.Level）以及 time.Duration 可直接从字符串解码。
//
// 热加载：
//
//	w, err := xconf.Watch(cfg, func(c *xconf.Config, err error) {
//		// err 非 nil 时 c 保持上一次成功加载的内容
//	})
//	if err != nil {
//		return err
//	}
//	go w.Run(ctx) // 阻塞直到 ctx 取消
//
// Watch 监视配置文件所在目录而不是文件本身，编辑器“写临时文件再 rename”的保存方式同样能被捕获。
package xconf
