// Package services defines shared utilities consumed by the pipeline stage
// processors and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp document IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform across stages.
package services
