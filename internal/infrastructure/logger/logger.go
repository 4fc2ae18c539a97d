package logger

import (
	"log/slog"
	"os"
	"strings"
)

const colorReset = "\033[0m"

var levelColors = map[slog.Level]string{
	slog.LevelDebug: "\033[36m",
	slog.LevelInfo:  "\033[32m",
	slog.LevelWarn:  "\033[33m",
	slog.LevelError: "\033[31m",
}

// New builds a structured slog logger honoring the configured level and
// environment. Development environments (local, dev, development) get text
// output with the level colorized when stdout is a terminal; everything else
// gets JSON.
func New(appName, level, environment string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "local", "dev", "development":
		handler = slog.NewTextHandler(os.Stdout, devOptions(opts))
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("app", appName)
}

func devOptions(opts *slog.HandlerOptions) *slog.HandlerOptions {
	if !isTerminal(os.Stdout) {
		return opts
	}

	dev := *opts
	dev.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if a.Key != slog.LevelKey || len(groups) > 0 {
			return a
		}
		lvl, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		if color, ok := levelColors[lvl]; ok {
			a.Value = slog.StringValue(color + lvl.String() + colorReset)
		}
		return a
	}
	return &dev
}

// isTerminal reports whether w is a character device, i.e. an interactive
// terminal rather than a pipe or file.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
