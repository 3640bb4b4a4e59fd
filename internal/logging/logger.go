package logging

import (
	"log/slog"
	"os"
	"sync"
)

var (
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig    Config
	globalLevelVar  = &slog.LevelVar{} // default level
	isInitialized   bool
	mutex           sync.RWMutex
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// Initialize sets up the logging system.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	isInitialized = true

	globalLevel := parseLevel(config.Level)
	if globalLevel == nil {
		defaultLevel := slog.LevelInfo
		globalLevel = &defaultLevel
	}
	globalLevelVar.Set(*globalLevel)

	// Loggers handed out before Initialize keep their pointer; only their
	// level and handler chain are replaced.
	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(module, *globalLevel))
		logger, ok := moduleLoggers[module]
		if !ok {
			delete(moduleLevelVars, module)
			continue
		}
		handler := createHandler(config.Format, levelVar)
		*logger = *slog.New(handler).With("module", module)
	}

	handler := createHandler(config.Format, globalLevelVar)
	slog.SetDefault(slog.New(handler))
}

// SetLevel changes the global level at runtime. Modules with their own
// override keep it.
func SetLevel(level string) bool {
	parsed := parseLevel(level)
	if parsed == nil {
		return false
	}

	mutex.Lock()
	defer mutex.Unlock()

	globalConfig.Level = level
	globalLevelVar.Set(*parsed)
	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(module, *parsed))
	}
	return true
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	if logger, exists := moduleLoggers[module]; exists {
		mutex.RUnlock()
		return logger
	}
	mutex.RUnlock()

	mutex.Lock()
	defer mutex.Unlock()

	// Double-check in case another goroutine created it
	if logger, exists := moduleLoggers[module]; exists {
		return logger
	}

	levelVar := &slog.LevelVar{}
	format := "text"
	if isInitialized {
		levelVar.Set(moduleLevel(module, globalLevelVar.Level()))
		format = globalConfig.Format
	} else {
		levelVar.Set(slog.LevelInfo)
	}

	logger := slog.New(createHandler(format, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// moduleLevel returns the configured override for module, or global.
func moduleLevel(module string, global slog.Level) slog.Level {
	if levelStr, exists := globalConfig.Modules[module]; exists {
		if parsed := parseLevel(levelStr); parsed != nil {
			return *parsed
		}
	}
	return global
}

// createHandler creates a slog handler with the specified format and level.
// Logs to stdout and to the journal, whichever are available.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: levelNames}

	var stdoutHandler slog.Handler
	if format == "json" {
		stdoutHandler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdoutHandler = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdoutHandler)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}

	switch len(handlers) {
	case 0:
		return stdoutHandler // Fallback
	case 1:
		return handlers[0]
	default:
		return NewMultiHandler(handlers...)
	}
}

// isStdoutAvailable checks if stdout is connected to a terminal, pipe, socket, or file.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}
