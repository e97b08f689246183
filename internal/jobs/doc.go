// Package jobs persists the history of mashup requests accepted by the HTTP
// server in a SQLite database.
//
// Each record moves pending → running → completed|failed. The store uses WAL
// mode and retries briefly on SQLITE_BUSY so the CLI can read history while
// the server is writing.
package jobs
