package deps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mashup/internal/config"
	"mashup/internal/services"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Path != present {
		t.Fatalf("expected resolved path %q, got %q", present, results[0].Path)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[1].Path != "" {
		t.Fatalf("expected no path for a missing binary, got %q", results[1].Path)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestResolveToolsFindsStubs(t *testing.T) {
	bin := t.TempDir()
	writeStub(t, bin, "ffmpeg")
	writeStub(t, bin, "ffprobe")
	writeStub(t, bin, "yt-dlp")
	t.Setenv("PATH", bin)

	cfg := config.Default()
	tools, err := ResolveTools(&cfg)
	if err != nil {
		t.Fatalf("ResolveTools: %v", err)
	}
	if tools.FFmpeg != filepath.Join(bin, "ffmpeg") {
		t.Fatalf("unexpected ffmpeg path %q", tools.FFmpeg)
	}
	if tools.YTDLP != filepath.Join(bin, "yt-dlp") {
		t.Fatalf("unexpected yt-dlp path %q", tools.YTDLP)
	}
	if tools.FFprobe != filepath.Join(bin, "ffprobe") {
		t.Fatalf("unexpected ffprobe path %q", tools.FFprobe)
	}
}

func TestResolveToolsMissingFFmpegIsConfigurationError(t *testing.T) {
	bin := t.TempDir()
	writeStub(t, bin, "yt-dlp")
	t.Setenv("PATH", bin)

	cfg := config.Default()
	_, err := ResolveTools(&cfg)
	if err == nil {
		t.Fatal("expected error when ffmpeg is missing")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestResolveToolsToleratesMissingFFprobe(t *testing.T) {
	bin := t.TempDir()
	writeStub(t, bin, "ffmpeg")
	writeStub(t, bin, "yt-dlp")
	t.Setenv("PATH", bin)

	cfg := config.Default()
	tools, err := ResolveTools(&cfg)
	if err != nil {
		t.Fatalf("ResolveTools: %v", err)
	}
	if tools.FFprobe != "" {
		t.Fatalf("expected empty ffprobe path, got %q", tools.FFprobe)
	}
}
