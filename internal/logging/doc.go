// Package logging provides structured diagnostics for cmtrace.
//
// This package wraps a zap logger with convenience functions used by the
// decoder, the symbol loader and the CLI. Trace output itself is never
// written through this package: decoded events go to stdout via the
// renderer, while logs go to stderr so the two can be separated with
// ordinary shell redirection.
//
// # Log Levels
//
//   - Debug: raw frame bytes, skipped map lines, per-frame decoder activity
//   - Info: symbol table loaded, resynchronization, session summary
//   - Warn: sync lost, unreadable optional files
//   - Error: fatal command failures
//
// # Configuration
//
// Logging is silent unless a level is requested, either with the
// --log-level flag or through the CMTRACE_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
