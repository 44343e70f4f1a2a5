package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds the structured logger used by the payment and account modules.
func NewZapLogger(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var zc zap.Config
	if strings.EqualFold(cfg.Format, "text") {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "time"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(zapLevel(cfg.Level))
	zc.DisableStacktrace = true

	if cfg.Output != nil {
		encoder := zapcore.NewJSONEncoder(zc.EncoderConfig)
		if strings.EqualFold(cfg.Format, "text") {
			encoder = zapcore.NewConsoleEncoder(zc.EncoderConfig)
		}
		core := zapcore.NewCore(encoder, zapcore.AddSync(cfg.Output), zc.Level)
		return zap.New(core), nil
	}

	return zc.Build()
}

func zapLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
