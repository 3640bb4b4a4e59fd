package logging

import (
	"log/slog"
	"strings"
)

// Severities between the slog defaults, matching syslog's notice and crit.
const (
	LevelNotice   = slog.Level(2)
	LevelCritical = slog.Level(12)
)

// levelNames renders the extra levels by name instead of "INFO+2".
func levelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	switch level {
	case LevelNotice:
		a.Value = slog.StringValue("NOTICE")
	case LevelCritical:
		a.Value = slog.StringValue("CRITICAL")
	}
	return a
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "notice":
		l = LevelNotice
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	case "crit", "critical":
		l = LevelCritical
	default:
		return nil
	}
	return &l
}
