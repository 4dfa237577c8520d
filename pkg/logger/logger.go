package logger

import (
	"context"
	"os"

	"github.com/terranet-ag/onboarding-service/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application logging interface. It wraps a sugared zap
// logger so packages never depend on zap directly. With accepts a
// context so request-scoped values can be attached in one place later
// without touching call sites.
type Logger interface {
	// With returns a logger based off the root logger and decorated
	// with the given arguments as alternating key-value pairs.
	With(ctx context.Context, args ...interface{}) Logger

	Debug(args ...interface{})
	Info(args ...interface{})
	Error(args ...interface{})

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// Sync flushes any buffered log entries.
	Sync() error
}

type zapLogger struct {
	*zap.SugaredLogger
}

// New creates a logger writing to stderr and, when a log path is
// configured, to a size-rotated file as well.
func New(cfg *config.Config) Logger {
	level, err := zapcore.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(os.Stderr),
			level,
		),
	}

	if cfg.Logger.Path != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.Logger.Path,
			MaxSize:    cfg.Logger.MaxSizeMB,
			MaxBackups: cfg.Logger.MaxBackups,
			MaxAge:     cfg.Logger.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotated),
			level,
		))
	}

	return NewWithZap(zap.New(zapcore.NewTee(cores...), zap.AddCaller()))
}

// NewWithZap creates a logger from an existing zap logger.
func NewWithZap(l *zap.Logger) Logger {
	return &zapLogger{l.Sugar()}
}

func (l *zapLogger) With(_ context.Context, args ...interface{}) Logger {
	if len(args) == 0 {
		return l
	}
	return &zapLogger{l.SugaredLogger.With(args...)}
}
