package audio

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func stubCommand(t *testing.T, mode string) *[][]string {
	t.Helper()
	var calls [][]string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args...))
		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
	return &calls
}

func TestFFmpegDecoderBoundsDecodeAndParsesPCM(t *testing.T) {
	calls := stubCommand(t, "decode")
	dec := NewFFmpegDecoder("ffmpeg", stereo)

	buf, err := dec.Decode(context.Background(), "/work/001-song.mp3", 25*time.Second)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if buf.Frames() != 4 {
		t.Fatalf("expected 4 frames, got %d", buf.Frames())
	}
	if buf.Samples()[1] != -2 {
		t.Fatalf("unexpected sample %d", buf.Samples()[1])
	}
	args := (*calls)[0]
	if i := slices.Index(args, "-t"); i < 0 || args[i+1] != "25.000" {
		t.Fatalf("expected -t 25.000 in %v", args)
	}
	if i := slices.Index(args, "-ar"); i < 0 || args[i+1] != "1000" {
		t.Fatalf("expected -ar 1000 in %v", args)
	}
}

func TestFFmpegDecoderReportsStderr(t *testing.T) {
	stubCommand(t, "fail")
	dec := NewFFmpegDecoder("ffmpeg", stereo)
	_, err := dec.Decode(context.Background(), "/work/bad.mp3", time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr detail in %v", err)
	}
}

func TestFFmpegDecoderRejectsEmptyOutput(t *testing.T) {
	stubCommand(t, "silent")
	dec := NewFFmpegDecoder("ffmpeg", stereo)
	if _, err := dec.Decode(context.Background(), "/work/empty.mp3", time.Second); err == nil {
		t.Fatal("expected error for empty decode")
	}
}

func TestFFmpegEncoderIsDeterministic(t *testing.T) {
	calls := stubCommand(t, "encode")
	enc := NewFFmpegEncoder("ffmpeg", 192)
	dir := t.TempDir()
	buf := ramp(100, 7)

	first := filepath.Join(dir, "a.mp3")
	second := filepath.Join(dir, "b.mp3")
	if err := enc.Encode(context.Background(), buf, first); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := enc.Encode(context.Background(), buf, second); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if len(a) == 0 || !bytes.Equal(a, b) {
		t.Fatal("expected identical non-empty output for identical input")
	}
	args := (*calls)[0]
	for _, want := range []string{"libmp3lame", "192k", "+bitexact"} {
		if !slices.Contains(args, want) {
			t.Fatalf("expected %q in %v", want, args)
		}
	}
}

func TestFFmpegEncoderFailure(t *testing.T) {
	stubCommand(t, "fail")
	enc := NewFFmpegEncoder("ffmpeg", 192)
	if err := enc.Encode(context.Background(), ramp(10, 0), filepath.Join(t.TempDir(), "x.mp3")); err == nil {
		t.Fatal("expected error")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	switch os.Getenv("FFMPEG_MODE") {
	case "decode":
		os.Stdout.Write(SamplesToBytes([]int16{1, -2, 3, -4, 5, -6, 7, -8}))
		os.Exit(0)
	case "silent":
		os.Exit(0)
	case "encode":
		data, _ := io.ReadAll(os.Stdin)
		sum := sha256.Sum256(data)
		dest := args[len(args)-1]
		if err := os.WriteFile(dest, sum[:], 0o644); err != nil {
			os.Exit(2)
		}
		os.Exit(0)
	default:
		os.Stderr.WriteString("Invalid data found when processing input\n")
		os.Exit(1)
	}
}
