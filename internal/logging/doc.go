// Package logging builds the slog loggers used across the daemon and CLI and
// defines the standardized structured field keys for document pipeline events.
package logging
