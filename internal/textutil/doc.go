// Package textutil provides text helpers for file naming and display.
//
// The primary use cases are:
//   - Sanitizing filenames and path segments for safe filesystem use
//   - Deriving the delivered file stem from an artist name
//   - Title-casing artist names for human-facing messages
package textutil
