// Package ffprobe wraps the ffprobe executable to report container metadata
// such as the duration and bitrate of an exported mashup.
package ffprobe
