package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mashup/internal/logging"
	"mashup/internal/workarea"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove abandoned work areas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			maxAge := olderThan
			if !cmd.Flags().Changed("older-than") {
				maxAge = time.Duration(cfg.Mashup.StaleAreaHours) * time.Hour
			}
			out := cmd.OutOrStdout()

			if dryRun {
				areas, err := workarea.ListAreas(cfg.Paths.WorkDir)
				if err != nil {
					return err
				}
				cutoff := time.Now().Add(-maxAge)
				count := 0
				for _, area := range areas {
					if area.ModTime.Before(cutoff) {
						fmt.Fprintf(out, "would remove %s (%d bytes)\n", area.Path, area.Size)
						count++
					}
				}
				fmt.Fprintf(out, "%d work area(s) older than %s\n", count, maxAge)
				return nil
			}

			logger, err := ctx.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result := workarea.CleanStale(cmd.Context(), cfg.Paths.WorkDir, maxAge, logging.NewComponentLogger(logger, "clean"))
			fmt.Fprintf(out, "Removed %d work area(s)\n", len(result.Removed))
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d work area(s) could not be removed: %w", len(result.Errors), result.Errors[0].Error)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Minimum age of work areas to remove (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List work areas without removing them")
	return cmd
}
