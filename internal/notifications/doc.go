// Package notifications delivers mashup events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml (or NTFY_TOPIC) and degrades to a no-op when no topic is set.
// Callers depend only on the Service interface.
package notifications
