// Package mashup builds a single audio file from the opening seconds of an
// artist's songs.
//
// A Pipeline validates a Job, acquires items into a private work area,
// extracts a clip from each, joins the clips in discovery order, and exports
// the result as MP3. Items that fail along the way are dropped and reported
// in the Result's Shortfall; the run only fails when nothing usable remains
// or a stage-level error occurs.
package mashup
