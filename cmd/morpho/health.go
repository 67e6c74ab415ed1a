package main

import (
	"context"
	"fmt"
	"time"

	"github.com/example/go-morpho/internal/server"
	"github.com/spf13/cobra"
)

const healthTimeout = 5 * time.Second

func newHealthCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check a running server's /health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if addr == "" {
				addr = cfg.Server.ListenAddr
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
			defer cancel()

			if err := server.ProbeHTTP(ctx, probeAddr(addr)); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")

			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server address (defaults to server.listen_addr)")

	return cmd
}

// probeAddr turns a wildcard listen address such as ":8080" into one a
// client can dial.
func probeAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}
