// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/propgraph/internal/server"
	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph store over HTTP",
		Long:  "Start the HTTP API (OpenAPI document at /openapi.json) and run until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.v.BindPFlag("server.listen", cmd.Flags().Lookup("listen")); err != nil {
				return sigilerr.Errorf(sigilerr.CodeCLISetupFailure, "binding listen flag: %w", err)
			}
			listen := a.v.GetString("server.listen")

			return a.withStore(cmd, func(ctx context.Context, gs store.GraphStore) error {
				srv, err := server.New(server.Config{
					ListenAddr:  listen,
					CORSOrigins: a.cfg.Server.CORSOrigins,
					Logger:      a.logger,
				}, gs)
				if err != nil {
					return err
				}

				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return srv.Start(ctx)
			})
		},
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	return cmd
}
