// Package preflight runs environment checks (directory access, mail relay
// reachability, external tools) surfaced by `mashup status` and the HTTP
// status endpoint.
package preflight
