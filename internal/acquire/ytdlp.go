package acquire

import (
	"bufio"
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"mashup/internal/logging"
)

// outputTemplate numbers each download by its search position so discovery
// order survives in the file name.
const outputTemplate = "%(playlist_index)03d-%(title).80s.%(ext)s"

// YTDLP fetches audio through the yt-dlp executable.
type YTDLP struct {
	Executable   string
	FFmpeg       string
	AudioQuality string
	Timeout      time.Duration
	Logger       *slog.Logger
}

// NewYTDLP constructs a provider. ffmpeg is handed to yt-dlp for audio
// extraction.
func NewYTDLP(executable, ffmpeg, audioQuality string, timeout time.Duration, logger *slog.Logger) *YTDLP {
	return &YTDLP{
		Executable:   executable,
		FFmpeg:       ffmpeg,
		AudioQuality: audioQuality,
		Timeout:      timeout,
		Logger:       logging.NewComponentLogger(logger, "yt-dlp"),
	}
}

func (y *YTDLP) command(dest string) *ytdlp.Command {
	cmd := ytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality(y.AudioQuality).
		NoPlaylist().
		IgnoreErrors().
		RestrictFilenames().
		ForceOverwrites().
		Output(outputTemplate)
	if y.Executable != "" {
		cmd = cmd.SetExecutable(y.Executable)
	}
	if dest != "" {
		cmd = cmd.SetWorkDir(dest)
	}
	if y.FFmpeg != "" {
		cmd = cmd.FFmpegLocation(y.FFmpeg)
	}
	return cmd
}

// Fetch implements Provider.
func (y *YTDLP) Fetch(ctx context.Context, query Query, dest string) (FetchReport, error) {
	if y.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.Timeout)
		defer cancel()
	}

	cmd := y.command(dest)
	logger := logging.WithContext(ctx, y.Logger)
	cmd.ProgressFunc(2*time.Second, func(update ytdlp.ProgressUpdate) {
		logger.Debug("download progress",
			logging.Int("downloaded_bytes", update.DownloadedBytes),
			logging.Int("total_bytes", update.TotalBytes),
		)
	})

	result, err := cmd.Run(ctx, query.String())
	var report FetchReport
	if result != nil {
		report.Failures = parseFailures(result.Stderr)
	}
	if err != nil && len(report.Failures) > 0 {
		// Item errors already explain a non-zero exit under --ignore-errors.
		err = nil
	}
	return report, err
}

var itemIDPattern = regexp.MustCompile(`^\[[^\]]+\]\s+([^:\s]+):\s*(.*)$`)

// parseFailures extracts "ERROR:" lines yt-dlp prints for items it skipped.
func parseFailures(stderr string) []ItemFailure {
	var failures []ItemFailure
	scanner := bufio.NewScanner(strings.NewReader(stderr))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		rest, ok := strings.CutPrefix(line, "ERROR:")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		failure := ItemFailure{Reason: rest}
		if m := itemIDPattern.FindStringSubmatch(rest); m != nil {
			failure.Source = m[1]
			failure.Reason = m[2]
		}
		failures = append(failures, failure)
	}
	return failures
}
