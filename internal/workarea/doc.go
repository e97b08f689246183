// Package workarea manages the per-run scratch directories where downloads
// land before they are cut into clips.
//
// Each run creates its own mashup-<uuid> directory and releases it on every
// exit path. CleanStale reclaims directories abandoned by crashed runs.
package workarea
