package util

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 进程级日志，InitLogger 之前丢弃所有输出，测试里可直接替换
var Logger = zap.NewNop()

// InitLogger 按 gin 的运行模式构建 Logger
func InitLogger(mode string) error {
	logger, err := loggerConfig(mode).Build()
	if err != nil {
		return err
	}
	Logger = logger
	return nil
}

// loggerConfig release 输出 JSON，其余模式输出带颜色级别的控制台格式
func loggerConfig(mode string) zap.Config {
	if mode == "release" {
		return zap.NewProductionConfig()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// Sync 退出前刷新缓冲
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Trace 记录一段操作的耗时，用法：defer util.Trace("segment")()
func Trace(name string) func() {
	start := time.Now()
	return func() {
		Logger.Debug("trace", zap.String("name", name), zap.Duration("cost", time.Since(start)))
	}
}
