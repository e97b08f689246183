package mashup

import (
	"context"
	"time"

	"mashup/internal/acquire"
	"mashup/internal/audio"
	"mashup/internal/services"
)

// Clip is the leading portion of one acquired item.
type Clip struct {
	Item  acquire.Item
	Audio audio.Buffer
}

// ClipExtractor decodes items and keeps their first seconds.
type ClipExtractor struct {
	decoder audio.Decoder
}

// NewClipExtractor wraps decoder.
func NewClipExtractor(decoder audio.Decoder) *ClipExtractor {
	return &ClipExtractor{decoder: decoder}
}

// Extract returns the first d of item. Items shorter than d are returned
// whole. Failures carry ErrItemProcessing unless the context ended.
func (e *ClipExtractor) Extract(ctx context.Context, item acquire.Item, d time.Duration) (Clip, error) {
	buf, err := e.decoder.Decode(ctx, item.Path, d)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Clip{}, ctxErr
		}
		return Clip{}, services.Wrap(services.ErrItemProcessing, "extract", "decode", item.Name(), err)
	}
	return Clip{Item: item, Audio: buf.Prefix(d)}, nil
}
