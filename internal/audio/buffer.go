package audio

import (
	"fmt"
	"math"
	"time"
)

// Format describes interleaved signed 16-bit PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// Valid reports whether the format can hold audio.
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

func (f Format) String() string {
	return fmt.Sprintf("s16le %dHz %dch", f.SampleRate, f.Channels)
}

// Buffer is an immutable block of interleaved PCM samples. Every transform
// returns a new Buffer; the receiver and its operands stay valid.
type Buffer struct {
	format  Format
	samples []int16
}

// NewBuffer copies samples into a Buffer. A trailing partial frame is dropped.
func NewBuffer(format Format, samples []int16) Buffer {
	if !format.Valid() {
		return Buffer{format: format}
	}
	n := len(samples) - len(samples)%format.Channels
	owned := make([]int16, n)
	copy(owned, samples[:n])
	return Buffer{format: format, samples: owned}
}

// Empty returns a zero-length buffer in format.
func Empty(format Format) Buffer {
	return Buffer{format: format}
}

// Format returns the sample rate and channel layout.
func (b Buffer) Format() Format { return b.format }

// Len returns the number of interleaved samples.
func (b Buffer) Len() int { return len(b.samples) }

// Frames returns the number of sample frames (one sample per channel).
func (b Buffer) Frames() int {
	if b.format.Channels <= 0 {
		return 0
	}
	return len(b.samples) / b.format.Channels
}

// Duration returns the playback length.
func (b Buffer) Duration() time.Duration {
	if b.format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.format.SampleRate)
}

// Samples returns a copy of the interleaved samples.
func (b Buffer) Samples() []int16 {
	out := make([]int16, len(b.samples))
	copy(out, b.samples)
	return out
}

// Prefix returns the first d of audio. When the buffer is not longer than d
// the buffer itself is returned.
func (b Buffer) Prefix(d time.Duration) Buffer {
	if d <= 0 {
		return Empty(b.format)
	}
	frames := FramesFor(b.format, d)
	if frames >= b.Frames() {
		return b
	}
	n := frames * b.format.Channels
	// Three-index slice so no later append can write into shared storage.
	return Buffer{format: b.format, samples: b.samples[:n:n]}
}

// FramesFor converts a duration into a whole number of frames, rounding down.
// Durations too long to count in an int saturate at math.MaxInt.
func FramesFor(format Format, d time.Duration) int {
	if d <= 0 || format.SampleRate <= 0 {
		return 0
	}
	rate := int64(format.SampleRate)
	whole := int64(d / time.Second)
	frac := int64(d%time.Second) * rate / int64(time.Second)
	if whole > (math.MaxInt64-frac)/rate {
		return math.MaxInt
	}
	frames := whole*rate + frac
	if frames > math.MaxInt {
		return math.MaxInt
	}
	return int(frames)
}

// Concat joins buffers in argument order. All buffers must share format; an
// empty argument list yields an empty buffer in format.
func Concat(format Format, buffers ...Buffer) (Buffer, error) {
	total := 0
	for i, buf := range buffers {
		if buf.Len() > 0 && buf.format != format {
			return Buffer{}, fmt.Errorf("concat: buffer %d is %s, want %s", i, buf.format, format)
		}
		total += buf.Len()
	}
	out := make([]int16, 0, total)
	for _, buf := range buffers {
		out = append(out, buf.samples...)
	}
	return Buffer{format: format, samples: out}, nil
}
