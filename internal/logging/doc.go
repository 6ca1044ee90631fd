// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//   - Always mirrors entries into an in-memory ring buffer for the logs API
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"bridge":   "debug", // Per-module overrides
//			"listener": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("listener")
//	logger.Info("Listening", "endpoint", ep)
//	logger.Debug("Details", "config", cfg)
//	logger.Warn("Something unusual", "error", err)
//	logger.Error("Failed", "error", err)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("bridge").With("subject", name)
//	logger.Info("Frame pushed")  // Includes subject in all logs
//
// # Log Levels
//
//	debug - Verbose debugging information
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Output Destinations
//
// The system automatically detects available outputs:
//
//	Journal available + stdout available → MultiHandler (both)
//	Journal available only              → JournalHandler
//	Stdout available only               → TextHandler or JSONHandler
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t poselink              # All poselink logs
//	journalctl -t poselink -f           # Follow live
//	journalctl -t poselink --since "5m" # Last 5 minutes
//	journalctl -t poselink -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t poselink MODULE=bridge
//	journalctl -t poselink SUBJECT=Performer01
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	bridge = "debug"
//	listener = "warn"
//	api = "error"
package logging
