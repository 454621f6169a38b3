package actions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/sethvargo/go-githubactions"
)

// LogHandler is a slog.Handler that renders records as runner log lines.
// Debug records become ::debug:: commands, warnings and errors become
// annotations, everything else is printed as plain text.
type LogHandler struct {
	out    io.Writer
	action *githubactions.Action
	level  slog.Leveler
	mu     *sync.Mutex

	prefix string
	attrs  string
}

// NewLogHandler creates a LogHandler writing to out.
func NewLogHandler(out io.Writer, level slog.Leveler) *LogHandler {
	return &LogHandler{
		out:    out,
		action: githubactions.New(githubactions.WithWriter(out)),
		level:  level,
		mu:     &sync.Mutex{},
	}
}

func (handler *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

func (handler *LogHandler) Handle(_ context.Context, record slog.Record) error {
	var builder strings.Builder
	builder.WriteString(record.Message)
	builder.WriteString(handler.attrs)

	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&builder, handler.prefix, attr)
		return true
	})

	line := builder.String()

	handler.mu.Lock()
	defer handler.mu.Unlock()

	switch {
	case record.Level >= slog.LevelError:
		handler.action.Errorf("%s", line)
	case record.Level >= slog.LevelWarn:
		handler.action.Warningf("%s", line)
	case record.Level < slog.LevelInfo:
		handler.action.Debugf("%s", line)
	default:
		if _, err := fmt.Fprintln(handler.out, line); err != nil {
			return err
		}
	}

	return nil
}

func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var builder strings.Builder
	builder.WriteString(handler.attrs)
	for _, attr := range attrs {
		appendAttr(&builder, handler.prefix, attr)
	}

	clone := *handler
	clone.attrs = builder.String()
	return &clone
}

func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}

	clone := *handler
	clone.prefix = handler.prefix + name + "."
	return &clone
}

func appendAttr(builder *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = prefix + attr.Key + "."
		}
		for _, groupAttr := range attr.Value.Group() {
			appendAttr(builder, groupPrefix, groupAttr)
		}
		return
	}

	value := attr.Value.String()
	if value == "" || strings.ContainsAny(value, " \t\"=") {
		value = strconv.Quote(value)
	}

	builder.WriteString(" ")
	builder.WriteString(prefix)
	builder.WriteString(attr.Key)
	builder.WriteString("=")
	builder.WriteString(value)
}
