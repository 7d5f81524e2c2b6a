// Package logging assembles structured slog loggers shared across saysubs.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and provides attr helpers plus component loggers so every part of
// the pipeline emits data with the same shape. A no-op logger is available
// for tests and wiring code that cannot fail.
package logging
