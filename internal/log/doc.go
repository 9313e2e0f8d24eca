// Package log provides the slog setup shared by the pagerank commands.
//
// This package extends slog to provide:
//   - Rounding of float attributes so that ranks and deltas stay readable
//   - Expansion of rank.Vector attributes into one attribute per page
//   - Configurable log levels with verbose mode support
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("pass finished",
//	    "delta", 0.00031250000000000006, // logged as 0.000313
//	    "ranks", ranks,                  // logged as ranks.1.html=0.2202 ...
//	)
//
//	slog.SetDefault(logger)
package log
