package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"mashup/internal/deps"
	"mashup/internal/mashup"
	"mashup/internal/services"
	"mashup/internal/textutil"
)

const usageText = `Usage: mashup <SingerName> <NumberOfVideos> <AudioDuration> <OutputFileName>
Example: mashup "Sharry Maan" 20 30 output.mp3
An artist named like a subcommand is fine: mashup status 20 30 output.mp3`

var errNotIntegers = errors.New("NumberOfVideos and AudioDuration must be integers.")

func newRootCommand() *cobra.Command {
	var configFlag string
	var verbose bool

	ctx := newCommandContext(&configFlag, &verbose)

	rootCmd := &cobra.Command{
		Use:           "mashup <SingerName> <NumberOfVideos> <AudioDuration> <OutputFileName>",
		Short:         "Build an audio mashup from an artist's songs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 4 {
				return errors.New(usageText)
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			if cmd == cmd.Root() && len(args) == 0 {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runMashup(cmd, ctx, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newCleanCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func runMashup(cmd *cobra.Command, ctx *commandContext, args []string) error {
	itemCount, err := strconv.Atoi(args[1])
	if err != nil {
		return errNotIntegers
	}
	clipSeconds, err := strconv.Atoi(args[2])
	if err != nil {
		return errNotIntegers
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	job := mashup.NewJob(args[0], itemCount, clipSeconds, args[3])
	bounds := mashup.Bounds{MinItems: cfg.Mashup.MinItems, MinClipSeconds: cfg.Mashup.MinClipSeconds}
	if err := bounds.Validate(job.ItemCount, job.ClipSeconds); err != nil {
		return fmt.Errorf("Error: %s", services.Message(err))
	}

	tools, err := deps.ResolveTools(cfg)
	if err != nil {
		return fmt.Errorf("Error: %s", services.Message(err))
	}

	pipeline := newPipeline(cfg, tools, logger)
	var res mashup.Result
	run := func(runCtx context.Context) error {
		var runErr error
		res, runErr = pipeline.Run(runCtx, job)
		return runErr
	}
	if shouldColorize(cmd.OutOrStdout()) && !ctx.verboseEnabled() {
		title := fmt.Sprintf("Building %s mashup...", textutil.DisplayArtist(job.Artist))
		err = spinner.New().Title(title).Context(cmd.Context()).ActionWithErr(run).Run()
	} else {
		err = run(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("Error: %s", services.Message(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mashup created successfully: %s\n", res.OutputPath)
	fmt.Fprintf(out, "Clips used: %d of %d, duration %s\n", res.ItemsUsed, res.Requested, res.Duration.Round(time.Second))
	if res.Shortfall != nil {
		fmt.Fprintf(out, "Warning: downloaded fewer items than requested (%d of %d)\n", res.Shortfall.Actual, res.Shortfall.Requested)
	}
	return nil
}
