// Package log provides modeldb's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Entries flow through a slog.Handler
// bridge into a Formatter (text or JSON) and one or more Outputs.
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("modeldb"))
//	l.Info("committed", log.Int("ops", 2))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config with console, file
// and null outputs, key redaction and per-message sampling.
//
// # Interop
//
// ToStdLogger and RedirectStdLog route standard library logging (Pebble's
// default event logger uses it) through a Logger.
package log
