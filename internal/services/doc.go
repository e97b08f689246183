// Package services defines shared utilities consumed by the mashup pipeline
// stages and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - A closed set of error markers plus the Wrap helper so callers can tell
//     fatal failures (invalid input, empty acquisition, export, configuration)
//     apart from per-item failures the pipeline absorbs.
//
// Use these helpers when wiring new stage logic so error classification and
// observability stay uniform across the pipeline.
package services
