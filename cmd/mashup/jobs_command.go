package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mashup/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var (
		statusFlags []string
		limit       int
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List mashup requests handled by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var statuses []jobs.Status
			for _, value := range statusFlags {
				status, ok := jobs.ParseStatus(strings.TrimSpace(value))
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}

			store, err := jobs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open jobs store: %w", err)
			}
			defer store.Close()

			list, err := store.List(cmd.Context(), limit, statuses...)
			if err != nil {
				return err
			}
			if asJSON {
				if list == nil {
					list = []*jobs.Job{}
				}
				return printJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderJobsTable(list))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status (pending, running, completed, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderJobsTable(list []*jobs.Job) string {
	columns := []column{
		{title: "ID", numeric: true},
		{title: "Created"},
		{title: "Artist"},
		{title: "N", numeric: true},
		{title: "Y", numeric: true},
		{title: "Status"},
		{title: "Used", numeric: true},
		{title: "Detail"},
	}
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.CreatedAt.Local().Format(time.DateTime),
			job.Artist,
			strconv.Itoa(job.ItemCount),
			strconv.Itoa(job.ClipSeconds),
			string(job.Status),
			strconv.Itoa(job.ItemsUsed),
			jobDetail(job),
		})
	}
	return renderTable(columns, rows)
}

func jobDetail(job *jobs.Job) string {
	switch {
	case job.ErrorMessage != "":
		return truncate(job.ErrorMessage, 60)
	case job.Shortfall != nil:
		return fmt.Sprintf("shortfall %d/%d", job.Shortfall.Actual, job.Shortfall.Requested)
	case job.Email != "":
		return job.Email
	}
	return ""
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
