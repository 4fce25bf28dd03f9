package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

const timeLayout = "2006-01-02 15:04:05"

// Config holds logger configuration
type Config struct {
	Level  string
	Format string    // json (default) or text
	Output io.Writer // defaults to stdout
}

// New builds a logger for cfg without installing it
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(a.Key, a.Value.Time().Format(timeLayout))
			}
			return a
		},
	}

	if NormalizeFormat(cfg.Format) == FormatText {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

// Setup installs the logger for cfg as the slog default and returns it
func Setup(cfg Config) *slog.Logger {
	l := New(cfg)
	slog.SetDefault(l)
	return l
}

func parseLevel(levelStr string) slog.Level {
	switch NormalizeLevel(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NormalizeLevel returns the upper-case level name, INFO for anything unknown
func NormalizeLevel(levelStr string) string {
	level := strings.ToUpper(strings.TrimSpace(levelStr))
	switch level {
	case "DEBUG", "INFO", "WARN", "ERROR":
		return level
	case "WARNING":
		return "WARN"
	default:
		return "INFO"
	}
}

// NormalizeFormat returns text or json, json for anything unknown
func NormalizeFormat(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), FormatText) {
		return FormatText
	}
	return FormatJSON
}
