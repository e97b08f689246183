package mashup

import (
	"slices"

	"mashup/internal/audio"
)

// Composite joins clips in ascending sequence order regardless of the order
// they are passed in. No clips yields an empty buffer in format.
func Composite(format audio.Format, clips []Clip) (audio.Buffer, error) {
	ordered := slices.Clone(clips)
	slices.SortStableFunc(ordered, func(a, b Clip) int {
		return a.Item.Sequence - b.Item.Sequence
	})
	buffers := make([]audio.Buffer, len(ordered))
	for i, clip := range ordered {
		buffers[i] = clip.Audio
	}
	return audio.Concat(format, buffers...)
}
