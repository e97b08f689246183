package mashup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mashup/internal/audio"
	"mashup/internal/logging"
	"mashup/internal/media/ffprobe"
	"mashup/internal/services"
)

// Exporter encodes the composite and places it at the output path.
type Exporter struct {
	encoder audio.Encoder
	ffprobe string
	logger  *slog.Logger
}

// NewExporter constructs an Exporter. An empty ffprobe path disables the
// post-export probe and the buffer duration is reported instead.
func NewExporter(encoder audio.Encoder, ffprobeBinary string, logger *slog.Logger) *Exporter {
	return &Exporter{encoder: encoder, ffprobe: ffprobeBinary, logger: logging.NewComponentLogger(logger, "export")}
}

// Export writes buf as MP3 to outputPath through a temporary file in the same
// directory, so a failed export never leaves a partial file at outputPath.
// It returns the exported duration.
func (e *Exporter) Export(ctx context.Context, buf audio.Buffer, outputPath string) (time.Duration, error) {
	dest, err := filepath.Abs(outputPath)
	if err != nil {
		return 0, services.Wrap(services.ErrExport, "export", "resolve path", outputPath, err)
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, services.Wrap(services.ErrExport, "export", "create directory", dir, err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.partial", filepath.Base(dest), uuid.NewString()[:8]))
	if err := e.encoder.Encode(ctx, buf, tmp); err != nil {
		_ = os.Remove(tmp)
		return 0, services.Wrap(services.ErrExport, "export", "encode", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return 0, services.Wrap(services.ErrExport, "export", "rename", dest, err)
	}

	duration := buf.Duration()
	if e.ffprobe != "" {
		probe, err := ffprobe.Inspect(ctx, e.ffprobe, dest)
		switch {
		case err != nil:
			logging.WarnWithContext(logging.WithContext(ctx, e.logger), "could not probe exported file", "export_probe_failed",
				logging.String("path", dest),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify ffprobe is installed"),
				logging.String(logging.FieldImpact, "reported duration is computed from PCM length"),
			)
		case probe.Duration() > 0:
			duration = probe.Duration()
		}
	}
	return duration, nil
}
