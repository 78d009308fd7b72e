// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output (LOG_DEV=true)
//
// Components receive a named *zap.Logger from Component and log with
// structured fields. Persistence failures are logged at warn level.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info", Service: "desktop"})
//	defer logger.Close()
//	store := session.NewStore(backend, opts, logger.Component("session"))
package logging
