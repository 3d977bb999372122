// Package logging provides structured logging utilities for benchkit components.
//
// # Overview
//
// This package wraps the standard library slog package with benchkit defaults
// and conventions for consistent logging across all components. It supports
// environment-based log level configuration, module/version context injection,
// and automatic source location tracking for debug logs.
//
// # Features
//
//   - Structured JSON logging to stderr
//   - Environment-based log level configuration (LOG_LEVEL)
//   - Automatic module and version context
//   - Source location tracking for debug logs
//   - Flexible log level parsing
//   - Integration with standard library log package
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("benchctl", "v1.0.0")
//	    defer slog.Info("application started")
//
//	    // Use slog as normal
//	    slog.Info("run started", "measurements", 2)
//	    slog.Debug("sample tick", "elapsed", elapsed)
//	    slog.Error("operation failed", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("benchctl-server", "v2.0.0", "debug")
//	logger.Info("server starting", "port", 8080)
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("cli", "v1.0.0", "warn")
//
// Converting standard library logger:
//
//	stdLogger := logging.NewLogLogger(slog.LevelInfo, false)
//	stdLogger.Println("legacy log message")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug benchctl run --config bench.yaml
//	LOG_LEVEL=error benchctl serve
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "run started",
//	    "module": "benchctl",
//	    "version": "v1.0.0",
//	    "measurements": 2
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "runner.(*Runner).loop",
//	        "file": "runner.go",
//	        "line": 212
//	    },
//	    "msg": "sample tick",
//	    "module": "benchctl",
//	    "version": "v1.0.0"
//	}
//
// # Best Practices
//
// 1. Set default logger early in main():
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("myapp", version)
//	    defer slog.Info("application started")
//	    // ...
//	}
//
// 2. Include context in log messages:
//
//	slog.Info("measurement sampled",
//	    "measurement", "temp",
//	    "instrument", "meter",
//	    "latency", latency,
//	)
//
// 3. Use appropriate log levels:
//
//	slog.Debug("sample tick", "elapsed", e) // Development/troubleshooting
//	slog.Info("run started")                // Normal operations
//	slog.Warn("instrument close failed")    // Potential issues
//	slog.Error("serial port unreachable")   // Errors requiring action
//
// 4. Log errors with context:
//
//	slog.Error("failed to send command",
//	    "error", err,
//	    "instrument", name,
//	    "command", cmd,
//	)
//
// # Integration
//
// This package is used by:
//   - pkg/server - control server logging
//   - pkg/cli - CLI command logging
//   - pkg/instrument - driver and registry logging
//   - pkg/runner - measurement loop logging
//   - pkg/session - bench run logging
//
// All components share consistent logging format and configuration.
package logging
