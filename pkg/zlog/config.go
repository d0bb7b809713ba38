package zlog

import (
	"fmt"

	"github.com/spf13/viper"
)

// FileConfig 本地轮转文件策略
// tag 供 viper 反序列化使用
type FileConfig struct {
	Path       string `mapstructure:"path"`        // 日志文件路径，为空则不写文件
	MaxSizeMB  int    `mapstructure:"max_size"`    // 单个日志文件最大容量（MB）
	MaxBackups int    `mapstructure:"max_backups"` // 保留旧文件数量
	MaxAgeDay  int    `mapstructure:"max_age"`     // 最长保存天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧日志文件
}

// Config 日志配置
type Config struct {
	Service      string     `mapstructure:"service"`       // 归属服务名
	Level        string     `mapstructure:"level"`         // debug|info|warn|error
	Encoding     string     `mapstructure:"encoding"`      // json|console
	Stdout       bool       `mapstructure:"stdout"`        // 是否同时输出到控制台
	File         FileConfig `mapstructure:"file"`          // 文件输出配置
	EnableMetric bool       `mapstructure:"enable_metric"` // 是否上报 Prometheus 指标
}

// FromViper 从已加载的 viper 实例中取 log 段配置
func FromViper(v *viper.Viper, service string) (*Config, error) {
	cfg := Config{
		Service:      service,
		Level:        "info",
		Encoding:     "json",
		Stdout:       true,
		EnableMetric: true,
	}

	if sub := v.Sub("log"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("加载日志配置失败：%w", err)
		}
	}
	if cfg.Service == "" {
		cfg.Service = service
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("配置错误：level 只能是 debug/info/warn/error")
	}

	switch c.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("配置错误：encoding 只能是 json/console")
	}

	if !c.Stdout && c.File.Path == "" {
		return fmt.Errorf("配置错误：stdout 为 false 时，file.path 不能为空")
	}

	if c.File.Path != "" {
		if c.File.MaxSizeMB <= 0 {
			c.File.MaxSizeMB = 100
		}
		if c.File.MaxBackups < 0 {
			c.File.MaxBackups = 60
		}
		if c.File.MaxAgeDay < 0 {
			c.File.MaxAgeDay = 30
		}
	}
	return nil
}
