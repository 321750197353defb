// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Keeps the most recent entries in a ring buffer served by the HTTP API
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info", // Global log level: debug, info, warn, error
//		Format: "text", // Output format: text or json
//		Modules: map[string]string{
//			"process":    "debug", // Per-module overrides
//			"mpv-output": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("player")
//	logger.Info("Playback started", "target", target)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("mpv").With("playback_id", id)
//
// Levels can be changed at runtime with [SetLevels]; cached loggers pick up
// the new levels immediately.
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t mpvnode                 # All mpvnode logs
//	journalctl -t mpvnode -f              # Follow live
//	journalctl -t mpvnode MODULE=process  # One module
//	journalctl -t mpvnode PLAYBACK_ID=... # One playback
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//	buffer_size = 1000
//	process = "debug"    # any other key is a module override
//	mpv-output = "warn"
package logging
