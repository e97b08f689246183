// Package audio holds the in-memory PCM representation used to build a
// mashup and the ffmpeg-backed decoder and encoder that move audio in and out
// of it.
//
// Buffers are values: Prefix and Concat never modify their operands, so a
// clip taken from a decoded item stays valid after the item is dropped.
package audio
