package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// Decoder turns a media file into PCM in a fixed format.
type Decoder interface {
	// Decode reads at most limit of audio from path. A zero limit decodes
	// the whole file.
	Decode(ctx context.Context, path string, limit time.Duration) (Buffer, error)
}

// Encoder writes PCM to an MP3 file.
type Encoder interface {
	Encode(ctx context.Context, buf Buffer, dest string) error
}

// FFmpegDecoder decodes via ffmpeg to s16le on stdout.
type FFmpegDecoder struct {
	Binary string
	Format Format
}

// NewFFmpegDecoder constructs a decoder producing format.
func NewFFmpegDecoder(binary string, format Format) *FFmpegDecoder {
	return &FFmpegDecoder{Binary: binary, Format: format}
}

// Decode implements Decoder.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string, limit time.Duration) (Buffer, error) {
	if !d.Format.Valid() {
		return Buffer{}, fmt.Errorf("ffmpeg decode: invalid format %s", d.Format)
	}
	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-i", path}
	if limit > 0 {
		args = append(args, "-t", formatSeconds(limit))
	}
	args = append(args,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(d.Format.SampleRate),
		"-ac", strconv.Itoa(d.Format.Channels),
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd := commandContext(ctx, binaryOrDefault(d.Binary), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Buffer{}, commandError("ffmpeg decode "+path, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return Buffer{}, fmt.Errorf("ffmpeg decode %s: no audio decoded", path)
	}
	return NewBuffer(d.Format, BytesToSamples(stdout.Bytes())), nil
}

// FFmpegEncoder encodes PCM with libmp3lame. Bit-exact flags keep the output
// identical for identical input.
type FFmpegEncoder struct {
	Binary      string
	BitrateKbps int
}

// NewFFmpegEncoder constructs an encoder at the given constant bitrate.
func NewFFmpegEncoder(binary string, bitrateKbps int) *FFmpegEncoder {
	return &FFmpegEncoder{Binary: binary, BitrateKbps: bitrateKbps}
}

// Encode implements Encoder.
func (e *FFmpegEncoder) Encode(ctx context.Context, buf Buffer, dest string) error {
	format := buf.Format()
	if !format.Valid() {
		return fmt.Errorf("ffmpeg encode: invalid format %s", format)
	}
	bitrate := e.BitrateKbps
	if bitrate <= 0 {
		bitrate = 192
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		"-i", "pipe:0",
		"-c:a", "libmp3lame",
		"-b:a", strconv.Itoa(bitrate) + "k",
		"-fflags", "+bitexact",
		"-flags:a", "+bitexact",
		"-map_metadata", "-1",
		"-f", "mp3",
		dest,
	}

	var stderr bytes.Buffer
	cmd := commandContext(ctx, binaryOrDefault(e.Binary), args...)
	cmd.Stdin = bytes.NewReader(SamplesToBytes(buf.samples))
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return commandError("ffmpeg encode "+dest, err, stderr.String())
	}
	return nil
}

func binaryOrDefault(binary string) string {
	if strings.TrimSpace(binary) == "" {
		return "ffmpeg"
	}
	return binary
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func commandError(op string, err error, stderr string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		return fmt.Errorf("%s: %w", op, err)
	}
	if idx := strings.LastIndex(detail, "\n"); idx >= 0 {
		detail = strings.TrimSpace(detail[idx+1:])
	}
	return fmt.Errorf("%s: %w: %s", op, err, detail)
}
