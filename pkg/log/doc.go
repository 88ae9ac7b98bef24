// Package log provides the logging abstraction used across skyship.
//
// Pipeline components never import a logging library directly; they accept a
// Logger and attach structured fields. The zerolog adapter is what the CLI
// wires in, and the no-op logger is the default for library use and tests.
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//	logger.Info("connected", log.String("url", url))
//
// Component loggers carry fixed fields:
//
//	dispatchLog := logger.With(log.String("component", "dispatcher"))
package log
