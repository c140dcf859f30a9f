package telemetry

import (
	"log"

	"go.uber.org/zap"
)

// Logger exposes the logging capabilities required by server components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// WrapZap adapts a zap sugared logger to the Logger interface.
func WrapZap(logger *zap.SugaredLogger) Logger {
	return &zapAdapter{logger: logger}
}

type zapAdapter struct {
	logger *zap.SugaredLogger
}

func (z *zapAdapter) Printf(format string, args ...any) {
	if z == nil || z.logger == nil {
		return
	}
	z.logger.Infof(format, args...)
}
