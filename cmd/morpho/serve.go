package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/example/go-morpho/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP tokenization server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg, nil).
				WithShutdownTimeout(cfg.ShutdownTimeout()).
				WithLogger(slog.Default())

			return srv.Start(ctx)
		},
	}
}
