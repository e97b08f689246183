package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mashup/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines   int
		follow  bool
		jobID   int64
		request string
		level   string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the mashup log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFilePath()
			if path == "" {
				return errors.New("log directory not configured")
			}

			filter := logs.Filter{JobID: jobID, RequestID: request, Level: level}
			reader := logs.NewReader(path)
			tail, err := reader.Last(lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tail = filter.Apply(tail)
			if len(tail) == 0 && !follow {
				fmt.Fprintf(out, "No log lines in %s\n", path)
				return nil
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			err = reader.Follow(cmd.Context(), 500*time.Millisecond, func(line string) {
				if filter.Match(line) {
					fmt.Fprintln(out, line)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().Int64Var(&jobID, "job", 0, "Only show lines for this job id")
	cmd.Flags().StringVar(&request, "request", "", "Only show lines containing this request id")
	cmd.Flags().StringVar(&level, "level", "", "Only show lines at this level (debug, info, warn, error)")
	return cmd
}
