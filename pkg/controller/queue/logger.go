package queue

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// loggerAdapter bridges watermill's logging interface to slog so queue
// internals share the process logger configuration.
type loggerAdapter struct {
	logger *slog.Logger
}

func newLoggerAdapter(logger *slog.Logger) watermill.LoggerAdapter {
	return &loggerAdapter{logger: logger}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func (x *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	args := append(fieldsToArgs(fields), "error", err)
	x.logger.Error(msg, args...)
}

func (x *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	x.logger.Info(msg, fieldsToArgs(fields)...)
}

func (x *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	x.logger.Debug(msg, fieldsToArgs(fields)...)
}

func (x *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	x.logger.Debug(msg, fieldsToArgs(fields)...)
}

func (x *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{logger: x.logger.With(fieldsToArgs(fields)...)}
}
