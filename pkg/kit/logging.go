package kit

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 64
	logMaxBackups = 7
	logMaxAgeDays = 7
)

// NewLogger builds the JSON production logger shared by every service.
// When LOG_FILE is set, entries are also written to a rotating file.
func NewLogger(service string) *zap.Logger {
	return newLogger(service, os.Getenv("LOG_FILE"))
}

func newLogger(service, filename string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.InitialFields = map[string]any{"service": service}
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	if filename == "" {
		return l
	}

	rotating := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotating),
		cfg.Level,
	).With([]zapcore.Field{zap.String("service", service)})

	return l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
}
