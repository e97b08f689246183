package main

import (
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"mashup/internal/config"
	"mashup/internal/jobs"
	"mashup/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dependency, directory, and server status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Server", colorize)...)
			lines = append(lines, serverStatusLine(cfg, colorize))
			lines = append(lines, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			lines = append(lines, renderStatusLine("API bind", statusInfo, cfg.Paths.APIBind, colorize))
			lines = append(lines, jobsStatusLine(cmd, cfg, colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				kind := statusOK
				message := dep.Command
				if !dep.Available {
					kind = statusError
					if dep.Optional {
						kind = statusWarn
					}
					message = dep.Detail
				}
				lines = append(lines, renderStatusLine(dep.Name, kind, message, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			for _, check := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !check.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			if !cfg.SMTPConfigured() {
				lines = append(lines, renderStatusLine("SMTP relay", statusWarn, "not configured", colorize))
			}
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				lines = append(lines, renderStatusLine("Notifications", statusInfo, "ntfy topic not configured", colorize))
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

// serverStatusLine probes the server's lock file; a lock we can take means no
// server holds it.
func serverStatusLine(cfg *config.Config, colorize bool) string {
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return renderStatusLine("Server", statusWarn, fmt.Sprintf("lock check failed: %v", err), colorize)
	}
	if locked {
		_ = lock.Unlock()
		return renderStatusLine("Server", statusInfo, "not running", colorize)
	}
	return renderStatusLine("Server", statusOK, "running", colorize)
}

func jobsStatusLine(cmd *cobra.Command, cfg *config.Config, colorize bool) string {
	store, err := jobs.Open(cfg)
	if err != nil {
		return renderStatusLine("Jobs", statusWarn, err.Error(), colorize)
	}
	defer store.Close()

	list, err := store.List(cmd.Context(), 0)
	if err != nil {
		return renderStatusLine("Jobs", statusWarn, err.Error(), colorize)
	}
	counts := make(map[jobs.Status]int)
	for _, job := range list {
		counts[job.Status]++
	}
	message := fmt.Sprintf("%d total (%d completed, %d failed, %d active)",
		len(list), counts[jobs.StatusCompleted], counts[jobs.StatusFailed],
		counts[jobs.StatusPending]+counts[jobs.StatusRunning])
	return renderStatusLine("Jobs", statusInfo, message, colorize)
}
