package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mashup/internal/services"
	"mashup/internal/testsupport"
)

func TestRootRejectsNonIntegerCounts(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env.configPath, "Sharry Maan", "twenty", "30", "out.mp3")
	if err == nil || err.Error() != "NumberOfVideos and AudioDuration must be integers." {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRootRejectsWrongArgumentCount(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env.configPath, "Sharry Maan", "20")
	if err == nil {
		t.Fatal("expected usage error")
	}
	requireContains(t, err.Error(), "Usage: mashup <SingerName>")
}

func TestRootWithoutArgumentsPrintsHelp(t *testing.T) {
	out, _, err := runCLI(t, "")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	requireContains(t, out, "serve")
}

func TestRootRejectsBoundsBeforeResolvingTools(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithEmptyPath())
	stub := &stubPipeline{}
	installStubPipeline(t, stub)

	_, _, err := runCLI(t, env.configPath, "Artist", "10", "30", "out.mp3")
	if err == nil {
		t.Fatal("expected validation error")
	}
	requireContains(t, err.Error(), "item count must be greater than 10")
	if len(stub.jobs) != 0 {
		t.Fatal("pipeline must not run for invalid input")
	}
}

func TestRootFailsWhenFFmpegMissing(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithEmptyPath())
	installStubPipeline(t, &stubPipeline{})

	_, _, err := runCLI(t, env.configPath, "Artist", "12", "30", "out.mp3")
	if err == nil {
		t.Fatal("expected missing tool error")
	}
	requireContains(t, err.Error(), `binary "ffmpeg" not found`)
}

func TestRootRunsPipelineAndNormalizesExtension(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	stub := &stubPipeline{}
	installStubPipeline(t, stub)

	target := filepath.Join(t.TempDir(), "result")
	out, _, err := runCLI(t, env.configPath, "Sharry Maan", "15", "25", target)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(stub.jobs) != 1 {
		t.Fatalf("expected one run, got %d", len(stub.jobs))
	}
	job := stub.jobs[0]
	if job.OutputPath != target+".mp3" || job.ItemCount != 15 || job.ClipSeconds != 25 {
		t.Fatalf("unexpected job %#v", job)
	}
	requireContains(t, out, "Mashup created successfully: "+target+".mp3")
	requireContains(t, out, "Clips used: 15 of 15, duration 6m15s")
	if _, err := os.Stat(target + ".mp3"); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestRootReportsShortfall(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	installStubPipeline(t, &stubPipeline{available: 17})

	out, _, err := runCLI(t, env.configPath, "Artist", "20", "25", filepath.Join(t.TempDir(), "x.mp3"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Warning: downloaded fewer items than requested (17 of 20)")
}

func TestRootSurfacesPipelineError(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	installStubPipeline(t, &stubPipeline{
		err: services.Wrap(services.ErrAcquisition, "acquire", "", "no items acquired", errors.New("none")),
	})

	_, _, err := runCLI(t, env.configPath, "Nobody", "12", "25", filepath.Join(t.TempDir(), "x.mp3"))
	if err == nil {
		t.Fatal("expected failure")
	}
	requireContains(t, err.Error(), "Error: acquire: no items acquired")
}

func TestRootTreatsSubcommandNamedArtistAsMashup(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	stub := &stubPipeline{}
	installStubPipeline(t, stub)

	target := filepath.Join(t.TempDir(), "status.mp3")
	out, _, err := runCLI(t, env.configPath, "status", "12", "25", target)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(stub.jobs) != 1 || stub.jobs[0].Artist != "status" {
		t.Fatalf("expected a mashup run for artist \"status\", got %#v", stub.jobs)
	}
	requireContains(t, out, "Mashup created successfully: "+target)
}

func TestShieldArtistArgsLeavesSubcommandsAlone(t *testing.T) {
	root := newRootCommand()
	cases := []struct {
		args []string
		want []string
	}{
		{[]string{"status"}, []string{"status"}},
		{[]string{"jobs", "-n", "5"}, []string{"jobs", "-n", "5"}},
		{[]string{"Artist", "12", "25", "out"}, []string{"Artist", "12", "25", "out"}},
		{[]string{"--config", "c.toml", "logs", "12", "25", "out"}, []string{"--config", "c.toml", "--", "logs", "12", "25", "out"}},
		{[]string{"serve", "12", "x", "out"}, []string{"serve", "12", "x", "out"}},
		{[]string{"-v", "clean", "12", "25", "out"}, []string{"-v", "--", "clean", "12", "25", "out"}},
	}
	for _, tc := range cases {
		got := shieldArtistArgs(root, tc.args)
		if strings.Join(got, " ") != strings.Join(tc.want, " ") {
			t.Fatalf("shieldArtistArgs(%q) = %q, want %q", tc.args, got, tc.want)
		}
	}
}
