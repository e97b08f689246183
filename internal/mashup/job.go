package mashup

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"mashup/internal/acquire"
	"mashup/internal/services"
)

// Job is one mashup request. Jobs are passed by value and never modified by
// the pipeline.
type Job struct {
	Artist      string
	ItemCount   int
	ClipSeconds int
	OutputPath  string
}

// NewJob builds a Job with OutputPath normalized to end in .mp3.
func NewJob(artist string, itemCount, clipSeconds int, outputPath string) Job {
	return Job{
		Artist:      strings.TrimSpace(artist),
		ItemCount:   itemCount,
		ClipSeconds: clipSeconds,
		OutputPath:  NormalizeOutputPath(outputPath),
	}
}

// NormalizeOutputPath appends .mp3 unless the path already ends with it in
// any letter case.
func NormalizeOutputPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.EqualFold(filepath.Ext(path), acquire.Extension) {
		return path
	}
	return path + acquire.Extension
}

// ClipDuration returns the per-item clip length. Lengths beyond what a
// time.Duration can hold saturate, which keeps every item whole.
func (j Job) ClipDuration() time.Duration {
	if j.ClipSeconds <= 0 {
		return 0
	}
	if int64(j.ClipSeconds) > int64(maxDuration/time.Second) {
		return maxDuration
	}
	return time.Duration(j.ClipSeconds) * time.Second
}

const maxDuration = time.Duration(math.MaxInt64)

// Bounds holds the exclusive lower bounds for a job's numeric inputs.
type Bounds struct {
	MinItems       int
	MinClipSeconds int
}

// DefaultBounds requires more than 10 items and clips longer than 20 seconds.
var DefaultBounds = Bounds{MinItems: 10, MinClipSeconds: 20}

// Validate checks itemCount > MinItems and clipSeconds > MinClipSeconds.
func (b Bounds) Validate(itemCount, clipSeconds int) error {
	var problems []string
	if itemCount <= b.MinItems {
		problems = append(problems, fmt.Sprintf("item count must be greater than %d (got %d)", b.MinItems, itemCount))
	}
	if clipSeconds <= b.MinClipSeconds {
		problems = append(problems, fmt.Sprintf("clip duration must be greater than %d seconds (got %d)", b.MinClipSeconds, clipSeconds))
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrInvalidInput, "validate", "", strings.Join(problems, "; "), nil)
}

// Validate checks inputs against DefaultBounds.
func Validate(itemCount, clipSeconds int) error {
	return DefaultBounds.Validate(itemCount, clipSeconds)
}

func (b Bounds) validateJob(job Job) error {
	if job.Artist == "" {
		return services.Wrap(services.ErrInvalidInput, "validate", "", "artist must not be empty", nil)
	}
	if job.OutputPath == "" {
		return services.Wrap(services.ErrInvalidInput, "validate", "", "output path must not be empty", nil)
	}
	return b.Validate(job.ItemCount, job.ClipSeconds)
}
