package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var L *zap.Logger

func init() {
	L = build(zapcore.InfoLevel)
}

func build(level zapcore.Level) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(level)
	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return l
}

// SetLevel 依設定重建全域 logger，無法解析的等級沿用 info
func SetLevel(level string) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	L = build(lvl)
}

// WithComponent 回傳帶有 component 欄位的 logger，供 handler、service、cache 等使用
func WithComponent(component string) *zap.Logger {
	return L.With(zap.String("component", component))
}
