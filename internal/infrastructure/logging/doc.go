// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a child logger via Component(), so every entry carries
// where it came from (monitor, resolver, queue, registry, gateway), and
// the shell session id is attached once at startup via WithSession().
//
// Example Usage:
//
//	logger := logging.NewDefault().WithSession(sessionID)
//	monitorLog := logger.Component("monitor")
//	monitorLog.Info("State change",
//	    zap.String("state", "connected"),
//	    zap.Int("attempts", 0))
package logging
