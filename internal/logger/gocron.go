package logger

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// gocronLogger implements gocron.Logger on top of a slog.Logger.
type gocronLogger struct {
	log *slog.Logger
}

// NewGocronLogger adapts log for use with gocron.WithLogger.
//
//nolint:ireturn // Interface return is required by gocron's API contract
func NewGocronLogger(log *slog.Logger) gocron.Logger {
	if log == nil {
		log = slog.Default()
	}
	return &gocronLogger{log: log.With("component", "gocron")}
}

func (l *gocronLogger) Debug(msg string, args ...any) {
	l.log.Debug(msg, toSlogArgs(args)...)
}

func (l *gocronLogger) Info(msg string, args ...any) {
	l.log.Info(msg, toSlogArgs(args)...)
}

func (l *gocronLogger) Warn(msg string, args ...any) {
	l.log.Warn(msg, toSlogArgs(args)...)
}

func (l *gocronLogger) Error(msg string, args ...any) {
	l.log.Error(msg, toSlogArgs(args)...)
}

// toSlogArgs turns gocron's loose key/value list into well-formed slog pairs.
func toSlogArgs(args []any) []any {
	slogArgs := make([]any, 0, len(args))

	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			key, ok := args[i].(string)
			if !ok {
				key = fmt.Sprintf("%v", args[i])
			}

			slogArgs = append(slogArgs, key, args[i+1])
		} else {
			slogArgs = append(slogArgs, "value", args[i])
		}
	}

	return slogArgs
}
