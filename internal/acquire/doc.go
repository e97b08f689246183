// Package acquire discovers and downloads the tracks a mashup is built from.
//
// An Acquirer asks a Provider to fill a work area in one bulk call, then
// enumerates the resulting files in discovery order. Items that fail to
// download are recorded, never fatal; only an empty batch is an error.
//
// YTDLP is the production Provider, driving yt-dlp through go-ytdlp with a
// numbered output template so the search order is preserved on disk.
package acquire
