// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"devices": "debug",  // Per-module overrides
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("monitor")
//	logger.Info("Now monitoring disk for activity", "device", "/dev/sda", "bay", 1)
//	logger.Log(ctx, logging.LevelNotice, "Closing down")
//
// # Log Levels
//
//	debug    - Register writes, per-disk counters
//	info     - General operational messages
//	notice   - Lifecycle: start, topology change, shutdown
//	warn     - Warning conditions
//	error    - Error conditions
//	critical - A subsystem failed and the daemon is exiting
//
// notice and critical are [LevelNotice] and [LevelCritical]. They print by
// name and map to the journal's notice and crit priorities.
//
// The global level can be changed while running with [SetLevel].
//
// # Viewing Logs
//
//	journalctl -t bayled              # All bayled logs
//	journalctl -t bayled -f           # Follow live
//	journalctl -t bayled -p notice    # Lifecycle and worse
//	journalctl -t bayled MODULE=bay   # One module
//
// # Configuration
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	led = "debug"
package logging
