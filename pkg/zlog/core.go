package zlog

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New 创建一个 *zap.Logger，不替换全局实例
func New(cfg Config, opts ...zap.Option) (*zap.Logger, error) {
	initLevel(cfg.Level)

	env := strings.ToLower(os.Getenv("APP_ENV"))
	var encCfg zapcore.EncoderConfig
	if env == "dev" || env == "test" {
		encCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encCfg = zap.NewProductionEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Encoding) == "console" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, buildWriteSyncer(cfg), dynamicLevel)

	if cfg.EnableMetric {
		core = metricsCore{Core: core, service: cfg.Service}
	}

	allOpts := append(opts,
		zap.AddCaller(),
		zap.Fields(zap.String("service", cfg.Service)),
	)
	return zap.New(core, allOpts...), nil
}

// buildWriteSyncer 根据配置组装所有输出目标
func buildWriteSyncer(cfg Config) zapcore.WriteSyncer {
	var syncers []zapcore.WriteSyncer

	if cfg.Stdout {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}

	if p := cfg.File.Path; p != "" {
		// lumberjack 按大小、天数、备份数自动切分日志文件
		lj := &lumberjack.Logger{
			Filename:   p,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxAge:     cfg.File.MaxAgeDay,
			MaxBackups: cfg.File.MaxBackups,
			Compress:   cfg.File.Compress,
		}
		syncers = append(syncers, zapcore.AddSync(lj))
	}

	return zapcore.NewMultiWriteSyncer(syncers...)
}
