// Package config loads, normalizes, and validates mashup configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as PORT, SMTP_HOST, and NTFY_TOPIC. The Config type
// centralizes every knob the CLI and HTTP server need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
