package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mashup/internal/delivery"
	"mashup/internal/deps"
	"mashup/internal/jobs"
	"mashup/internal/logging"
	"mashup/internal/notifications"
	"mashup/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept mashup requests over HTTP and deliver results by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if value := strings.TrimSpace(bind); value != "" {
				cfg.Paths.APIBind = value
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			tools, err := deps.ResolveTools(cfg)
			if err != nil {
				return err
			}
			if !cfg.SMTPConfigured() {
				logging.WarnWithContext(logger, "smtp not configured; deliveries will fail", "smtp_unconfigured",
					logging.String(logging.FieldErrorHint, "set [smtp] host and from, or SMTP_HOST and SMTP_FROM"),
					logging.String(logging.FieldImpact, "requests return 500 after the mashup is built"),
				)
			}

			store, err := jobs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open jobs store: %w", err)
			}
			defer store.Close()

			srv, err := server.New(cfg, server.Dependencies{
				Runner:   newPipeline(cfg, tools, logger),
				Sender:   delivery.NewSMTPSender(cfg),
				Notifier: notifications.NewService(cfg),
				Store:    store,
			}, logger)
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())
			<-runCtx.Done()
			srv.Stop()
			logger.Info("mashup server shutting down")
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override the listen address (host:port)")
	return cmd
}
