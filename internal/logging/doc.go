// Package logging provides slog loggers with per-module levels.
//
// Output goes to stdout when it is attached to something, to the systemd
// journal when journald is running, and always to an in-memory history
// served by the HTTP API.
//
// Initialize once at startup, then ask for module loggers:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"controller": "debug",
//			"source":     "warn",
//		},
//	})
//	logger := logging.GetLogger("controller")
//
// Loggers obtained before Initialize keep working and follow the configured
// levels once it runs.
//
// On a device with journald:
//
//	journalctl -t power-indicator -f
//	journalctl -t power-indicator MODULE=controller
//
// TOML form:
//
//	[logging]
//	level = "info"
//	format = "text"
//	controller = "debug"
package logging
