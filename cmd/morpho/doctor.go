package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/go-morpho/internal/doctor"
	"github.com/example/go-morpho/internal/server"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var smoke string
	var serverAddr string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run dictionary preflight checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dcfg := doctor.Config{
				DictionaryDir: cfg.Dictionary.Dir,
				Charset:       cfg.Dictionary.Charset,
				SmokeText:     smoke,
			}
			if serverAddr != "" {
				dcfg.ServerAddr = probeAddr(serverAddr)
				dcfg.Probe = func(addr string) error {
					ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
					defer cancel()
					return server.ProbeHTTP(ctx, addr)
				}
			}

			result := doctor.Run(dcfg, cmd.OutOrStdout())
			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().StringVar(&smoke, "smoke-text", doctor.DefaultSmokeText, "Text tokenized after load (empty to skip)")
	cmd.Flags().StringVar(&serverAddr, "server-addr", "", "Also probe a running server at this address")

	return cmd
}
