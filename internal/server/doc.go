// Package server exposes the mashup pipeline over HTTP.
//
// POST /mashup (and its /api/mashup alias) accepts {singer, count, duration,
// email}, runs the pipeline synchronously, zips the MP3, mails it, and removes
// the local artifacts. Runs are serialized; each one owns a fresh work area.
// Read-only endpoints report server status, job history from the SQLite
// job store, and the tail of the log file. When a bearer token is configured
// it guards every /api route; the form page and /mashup stay public.
package server
