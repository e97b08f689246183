package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mashup/internal/acquire"
	"mashup/internal/config"
	"mashup/internal/deps"
	"mashup/internal/mashup"
	"mashup/internal/server"
	"mashup/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

var envKeys = []string{
	"PORT", "MASHUP_API_TOKEN", "NTFY_TOPIC",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
	"EMAIL_USER", "EMAIL_PASS",
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	cfg := testsupport.NewConfig(t, opts...)
	home := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
work_dir = %q
output_dir = %q
state_dir = %q
log_dir = %q
api_bind = %q

[logging]
format = "console"
level = "error"
`,
		cfg.Paths.WorkDir,
		cfg.Paths.OutputDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(shieldArtistArgs(cmd, append(flags, args...)))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// stubPipeline writes a placeholder MP3 and reports a configurable result.
type stubPipeline struct {
	jobs      []mashup.Job
	available int
	err       error
}

func (s *stubPipeline) Run(_ context.Context, job mashup.Job) (mashup.Result, error) {
	s.jobs = append(s.jobs, job)
	if s.err != nil {
		return mashup.Result{}, s.err
	}
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return mashup.Result{}, err
	}
	if err := os.WriteFile(job.OutputPath, []byte("ID3"), 0o644); err != nil {
		return mashup.Result{}, err
	}
	used := job.ItemCount
	res := mashup.Result{OutputPath: job.OutputPath, Requested: job.ItemCount}
	if s.available > 0 && s.available < used {
		used = s.available
		res.Shortfall = &acquire.Shortfall{Requested: job.ItemCount, Actual: used}
	}
	res.ItemsUsed = used
	res.Duration = time.Duration(used) * job.ClipDuration()
	return res, nil
}

func installStubPipeline(t *testing.T, stub *stubPipeline) {
	t.Helper()
	original := newPipeline
	newPipeline = func(*config.Config, deps.Tools, *slog.Logger) server.Runner {
		return stub
	}
	t.Cleanup(func() { newPipeline = original })
}
