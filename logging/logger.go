package logging

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface shared by all monitor services.
type Logger interface {
	logrus.FieldLogger
	SetLevel(level logrus.Level)
}

type logger struct {
	*logrus.Logger
}

func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &logger{l}
}

type ctxKey int

const loggerCtxKey ctxKey = iota

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

// LoggerFromContext extracts the logger attached to the context, falling back
// to the process-wide default logger.
func LoggerFromContext(ctx context.Context) logrus.FieldLogger {
	if l, ok := ctx.Value(loggerCtxKey).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}
