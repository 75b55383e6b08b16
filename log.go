package dcmpix

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func normaliseWriters(writers ...zapcore.WriteSyncer) zapcore.WriteSyncer {
	if len(writers) == 1 {
		return writers[0]
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// NewJSONLogger creates a `zap.SugaredLogger` writing JSON records of at
// least the given level to `writers`.
func NewJSONLogger(level zapcore.Level, writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), normaliseWriters(writers...), level)
	return zap.New(core).Sugar()
}

// NewConsoleLogger creates a `zap.SugaredLogger` writing human-readable
// records of at least the given level to `writers`.
func NewConsoleLogger(level zapcore.Level, writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	cfg := encoderConfig()
	cfg.EncodeLevel = zapcore.LowercaseColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), normaliseWriters(writers...), level)
	return zap.New(core).Sugar()
}
