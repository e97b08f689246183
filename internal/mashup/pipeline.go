package mashup

import (
	"context"
	"log/slog"
	"time"

	"mashup/internal/acquire"
	"mashup/internal/audio"
	"mashup/internal/config"
	"mashup/internal/deps"
	"mashup/internal/logging"
	"mashup/internal/services"
	"mashup/internal/workarea"
)

// Shortfall and ItemFailure are reported on a successful Result when fewer
// items than requested made it into the mashup.
type (
	Shortfall   = acquire.Shortfall
	ItemFailure = acquire.ItemFailure
)

// State is a pipeline run position.
type State string

const (
	StateCreated    State = "created"
	StateValidated  State = "validated"
	StateAcquired   State = "acquired"
	StateExtracted  State = "extracted"
	StateComposited State = "composited"
	StateExported   State = "exported"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Transition is reported to an Observer on every state change.
type Transition struct {
	From State
	To   State
	At   time.Time
	Err  error
}

// Observer receives transitions synchronously on the run's goroutine.
type Observer func(Transition)

// Result summarizes a successful run.
type Result struct {
	OutputPath string        `json:"output_path"`
	ItemsUsed  int           `json:"items_used"`
	Requested  int           `json:"requested"`
	Duration   time.Duration `json:"duration"`
	Shortfall  *Shortfall    `json:"shortfall,omitempty"`
}

// Acquirer is the acquisition collaborator; *acquire.Acquirer satisfies it.
type Acquirer interface {
	Acquire(ctx context.Context, artist string, count int, dir string) (acquire.Batch, error)
}

// Options configures a Pipeline.
type Options struct {
	Bounds   Bounds
	WorkRoot string
	Format   audio.Format
	Observer Observer
}

// Pipeline runs Validate, Acquire, Extract, Composite, and Export for one
// job at a time.
type Pipeline struct {
	opts      Options
	acquirer  Acquirer
	extractor *ClipExtractor
	exporter  *Exporter
	logger    *slog.Logger
}

// New assembles a pipeline from its collaborators.
func New(opts Options, acquirer Acquirer, extractor *ClipExtractor, exporter *Exporter, logger *slog.Logger) *Pipeline {
	if opts.Bounds == (Bounds{}) {
		opts.Bounds = DefaultBounds
	}
	return &Pipeline{
		opts:      opts,
		acquirer:  acquirer,
		extractor: extractor,
		exporter:  exporter,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// NewFromConfig wires the production collaborators: yt-dlp for acquisition
// and ffmpeg for decoding and encoding.
func NewFromConfig(cfg *config.Config, tools deps.Tools, logger *slog.Logger) *Pipeline {
	format := audio.Format{SampleRate: cfg.Mashup.SampleRate, Channels: cfg.Mashup.Channels}
	provider := acquire.NewYTDLP(
		tools.YTDLP,
		tools.FFmpeg,
		cfg.Acquisition.AudioQuality,
		time.Duration(cfg.Acquisition.TimeoutSeconds)*time.Second,
		logger,
	)
	return New(
		Options{
			Bounds:   Bounds{MinItems: cfg.Mashup.MinItems, MinClipSeconds: cfg.Mashup.MinClipSeconds},
			WorkRoot: cfg.Paths.WorkDir,
			Format:   format,
		},
		acquire.New(provider, logger),
		NewClipExtractor(audio.NewFFmpegDecoder(tools.FFmpeg, format)),
		NewExporter(audio.NewFFmpegEncoder(tools.FFmpeg, cfg.Mashup.Bitrate), tools.FFprobe, logger),
		logger,
	)
}

// WithObserver returns a copy of the pipeline reporting to observer.
func (p *Pipeline) WithObserver(observer Observer) *Pipeline {
	clone := *p
	clone.opts.Observer = observer
	return &clone
}

type run struct {
	p      *Pipeline
	state  State
	logger *slog.Logger
}

func (r *run) advance(to State, err error) {
	t := Transition{From: r.state, To: to, At: time.Now(), Err: err}
	r.state = to
	if to != StateFailed {
		r.logger.Debug("state transition",
			logging.String("from", string(t.From)),
			logging.String("to", string(t.To)),
		)
	}
	if r.p.opts.Observer != nil {
		r.p.opts.Observer(t)
	}
}

func (r *run) fail(err error) (Result, error) {
	stage := string(r.state)
	r.advance(StateFailed, err)
	logging.ErrorWithContext(r.logger, "mashup failed", "mashup_failed",
		logging.String("failed_after", stage),
		logging.String("error_kind", string(services.KindOf(err))),
		logging.Error(err),
	)
	return Result{}, err
}

// Run executes job. A shortfall is not an error: it is reported on the
// Result and logged as a warning. The work area is released on every path.
func (p *Pipeline) Run(ctx context.Context, job Job) (res Result, err error) {
	r := &run{p: p, state: StateCreated, logger: logging.WithContext(ctx, p.logger)}
	started := time.Now()

	if err := p.opts.Bounds.validateJob(job); err != nil {
		return r.fail(err)
	}
	r.advance(StateValidated, nil)

	area, err := workarea.Create(p.opts.WorkRoot)
	if err != nil {
		return r.fail(services.Wrap(services.ErrConfiguration, "acquire", "create work area", "", err))
	}
	defer func() {
		if releaseErr := area.Release(); releaseErr != nil {
			logging.WarnWithContext(r.logger, "work area not removed", "workarea_release_failed",
				logging.String("path", area.Path()),
				logging.Error(releaseErr),
				logging.String(logging.FieldErrorHint, "remove it manually or run mashup clean"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}()

	acqCtx := services.WithStage(ctx, "acquire")
	batch, err := p.acquirer.Acquire(acqCtx, job.Artist, job.ItemCount, area.Path())
	if err != nil {
		return r.fail(err)
	}
	r.advance(StateAcquired, nil)

	failures := append([]ItemFailure(nil), batch.Failures...)
	clips := make([]Clip, 0, len(batch.Items))
	clipLen := job.ClipDuration()
	for _, item := range batch.Items {
		clip, err := p.extractor.Extract(ctx, item, clipLen)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return r.fail(services.Wrap(services.ErrAcquisition, "extract", "", "cancelled", ctxErr))
			}
			logging.WarnWithContext(r.logger, "dropping item that could not be decoded", "item_dropped",
				logging.String("item", item.Name()),
				logging.Int("sequence", item.Sequence),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the download may be corrupt or not audio"),
				logging.String(logging.FieldImpact, "mashup will have one fewer clip"),
			)
			failures = append(failures, ItemFailure{Sequence: item.Sequence, Source: item.Name(), Reason: services.Message(err)})
			continue
		}
		clips = append(clips, clip)
	}
	if len(clips) == 0 {
		return r.fail(services.Wrap(services.ErrAcquisition, "extract", "", "no items acquired", nil))
	}
	r.advance(StateExtracted, nil)

	composite, err := Composite(p.opts.Format, clips)
	if err != nil {
		return r.fail(services.Wrap(services.ErrExport, "composite", "", "", err))
	}
	r.advance(StateComposited, nil)

	duration, err := p.exporter.Export(ctx, composite, job.OutputPath)
	if err != nil {
		return r.fail(err)
	}
	r.advance(StateExported, nil)

	res = Result{
		OutputPath: job.OutputPath,
		ItemsUsed:  len(clips),
		Requested:  job.ItemCount,
		Duration:   duration,
	}
	if len(clips) < job.ItemCount {
		res.Shortfall = &Shortfall{Requested: job.ItemCount, Actual: len(clips), Failures: failures}
		logging.WarnWithContext(r.logger, "mashup built from fewer items than requested", "mashup_shortfall",
			logging.Int("requested", job.ItemCount),
			logging.Int("actual", len(clips)),
			logging.Int("failures", len(failures)),
			logging.String(logging.FieldErrorHint, "some search results were unavailable"),
			logging.String(logging.FieldImpact, "mashup is shorter than requested"),
		)
	}

	r.advance(StateDone, nil)
	r.logger.Info("mashup exported",
		logging.String("output", res.OutputPath),
		logging.Int("items_used", res.ItemsUsed),
		logging.Duration("duration", res.Duration.Round(time.Millisecond)),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "mashup_complete"),
	)
	return res, nil
}

// IsShortfall reports whether res used fewer items than requested.
func (res Result) IsShortfall() bool { return res.Shortfall != nil }
