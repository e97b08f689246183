// Package logs reads the mashup log file for the CLI and the HTTP server.
//
// A Reader remembers its byte offset so callers can print the last N lines
// and then poll for appended ones. Rotation or truncation resets the offset.
// Match filters lines by job id, request id, or level for both the console and
// JSON log formats.
package logs
