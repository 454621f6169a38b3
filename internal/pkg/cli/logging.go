package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MatusOllah/slogcolor"
	"github.com/kittengrid/actions/internal/pkg/actions"
)

// ErrUnknownLogFormat indicates the log format has no registered handler.
var ErrUnknownLogFormat = errors.New("unknown log format")

type LogConfig struct {
	Level  string `short:"v" help:"Log level" default:"info" enum:"debug,info,warn,error" env:"KITTENGRID_ACTION_LOG_LEVEL"`
	Format string `help:"Log format (github|text-color|text-no-color|json)" default:"github" env:"KITTENGRID_ACTION_LOG_FORMAT"`
	Quiet  bool   `help:"Disable logging output"`
}

// Output returns where records go. The runner only parses workflow
// commands on stdout.
func (config LogConfig) Output() io.Writer {
	if config.Quiet {
		return io.Discard
	}

	return os.Stdout
}

type handlerFactory func(output io.Writer, level slog.Level) slog.Handler

var logHandlers = map[string]handlerFactory{
	"github": func(output io.Writer, level slog.Level) slog.Handler {
		return actions.NewLogHandler(output, level)
	},
	"text-color": func(output io.Writer, level slog.Level) slog.Handler {
		options := slogcolor.DefaultOptions
		options.Level = level
		return slogcolor.NewHandler(output, options)
	},
	"text-no-color": func(output io.Writer, level slog.Level) slog.Handler {
		return slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})
	},
	"json": func(output io.Writer, level slog.Level) slog.Handler {
		return slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	},
}

func CreateLoggerFromConfig(config LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(config.Level))); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	format := strings.ToLower(strings.TrimSpace(config.Format))

	newHandler, ok := logHandlers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLogFormat, config.Format)
	}

	return slog.New(newHandler(config.Output(), level)), nil
}
