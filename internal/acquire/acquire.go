package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"mashup/internal/logging"
	"mashup/internal/services"
)

// Extension is the only media container the pipeline consumes.
const Extension = ".mp3"

// Item is one downloaded track inside a work area.
type Item struct {
	Path string
	// Sequence is the provider's discovery order, 1-based.
	Sequence int
}

// Name returns the file name without directory.
func (i Item) Name() string { return filepath.Base(i.Path) }

// ItemFailure records why a requested item did not make it into the mashup.
type ItemFailure struct {
	Sequence int    `json:"sequence,omitempty"`
	Source   string `json:"source,omitempty"`
	Reason   string `json:"reason"`
}

// Shortfall describes a batch that produced fewer items than requested.
type Shortfall struct {
	Requested int           `json:"requested"`
	Actual    int           `json:"actual"`
	Failures  []ItemFailure `json:"failures,omitempty"`
}

// Query is the search request handed to a Provider.
type Query struct {
	Artist string
	Count  int
}

// String renders the provider search expression, "<N> results for <artist> songs".
func (q Query) String() string {
	return fmt.Sprintf("ytsearch%d:%s songs", q.Count, strings.TrimSpace(q.Artist))
}

// FetchReport carries per-item failures observed by the provider.
type FetchReport struct {
	Failures []ItemFailure
}

// Provider populates dest with audio files for query in a single bulk call.
// Per-item problems belong in the report; a returned error means the call
// itself could not run.
type Provider interface {
	Fetch(ctx context.Context, query Query, dest string) (FetchReport, error)
}

// Batch is the ordered result of one acquisition.
type Batch struct {
	Items     []Item
	Requested int
	Failures  []ItemFailure
}

// Shortfall reports whether fewer items than requested were acquired.
func (b Batch) Shortfall() (Shortfall, bool) {
	if len(b.Items) >= b.Requested {
		return Shortfall{}, false
	}
	return Shortfall{
		Requested: b.Requested,
		Actual:    len(b.Items),
		Failures:  append([]ItemFailure(nil), b.Failures...),
	}, true
}

// Acquirer turns an artist and count into an ordered batch of local files.
type Acquirer struct {
	provider Provider
	logger   *slog.Logger
}

// New constructs an Acquirer around provider.
func New(provider Provider, logger *slog.Logger) *Acquirer {
	return &Acquirer{provider: provider, logger: logging.NewComponentLogger(logger, "acquire")}
}

// Acquire asks the provider for count items by artist into dir and returns
// them in discovery order. It fails only when nothing usable arrived or the
// context ended; it never deletes anything.
func (a *Acquirer) Acquire(ctx context.Context, artist string, count int, dir string) (Batch, error) {
	query := Query{Artist: artist, Count: count}
	logger := logging.WithContext(ctx, a.logger)
	logger.Info("searching for items",
		logging.String("query", query.String()),
		logging.Int("requested", count),
		logging.String(logging.FieldEventType, "acquire_start"),
	)

	batch := Batch{Requested: count}
	started := time.Now()

	report, err := a.provider.Fetch(ctx, query, dir)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return batch, services.Wrap(services.ErrAcquisition, "acquire", "fetch", "cancelled", ctxErr)
	}
	batch.Failures = append(batch.Failures, report.Failures...)
	if err != nil {
		batch.Failures = append(batch.Failures, ItemFailure{Source: "provider", Reason: err.Error()})
		logging.WarnWithContext(logger, "provider reported an error", "acquire_provider_error",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check yt-dlp output and network access"),
			logging.String(logging.FieldImpact, "some items may be missing"),
		)
	}

	items, err := Enumerate(dir)
	if err != nil {
		return batch, services.Wrap(services.ErrAcquisition, "acquire", "enumerate", "read work area", err)
	}
	if len(items) > count {
		items = items[:count]
	}
	batch.Items = items

	if len(items) == 0 {
		return batch, services.Wrap(services.ErrAcquisition, "acquire", "", "no items acquired", nil)
	}

	attrs := []logging.Attr{
		logging.Int("acquired", len(items)),
		logging.Int("requested", count),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "acquire_complete"),
	}
	if short, ok := batch.Shortfall(); ok {
		logging.WarnWithContext(logger, "fewer items than requested", "acquire_shortfall",
			append(attrs[:3:3],
				logging.Int("failures", len(short.Failures)),
				logging.String(logging.FieldErrorHint, "try a more popular artist or a smaller count"),
				logging.String(logging.FieldImpact, "mashup will be shorter than requested"),
			)...,
		)
	} else {
		logger.Info("items acquired", logging.Args(attrs...)...)
	}
	return batch, nil
}

var sequencePrefix = regexp.MustCompile(`^(\d+)[-_ .]`)

// Enumerate lists the media files in dir in discovery order. Files named with
// a numeric sequence prefix come first in prefix order; the rest follow by
// modification time, then name.
func Enumerate(dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	type candidate struct {
		path     string
		name     string
		seq      int
		numbered bool
		modTime  time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		c := candidate{
			path:    filepath.Join(dir, entry.Name()),
			name:    entry.Name(),
			modTime: info.ModTime(),
		}
		if m := sequencePrefix.FindStringSubmatch(entry.Name()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				c.seq = n
				c.numbered = true
			}
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.numbered != b.numbered {
			return a.numbered
		}
		if a.numbered && a.seq != b.seq {
			return a.seq < b.seq
		}
		if !a.numbered && !a.modTime.Equal(b.modTime) {
			return a.modTime.Before(b.modTime)
		}
		return a.name < b.name
	})

	items := make([]Item, len(candidates))
	for i, c := range candidates {
		items[i] = Item{Path: c.path, Sequence: i + 1}
	}
	return items, nil
}
