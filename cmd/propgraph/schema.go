// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

func newSchemaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the graph tables",
	}

	ensure := &cobra.Command{
		Use:   "ensure",
		Short: "Create the graph tables and indexes if they are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, gs store.GraphStore) error {
				if err := gs.EnsureSchema(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "schema ready (tables %s, %s)\n",
					a.cfg.Storage.NodeTable, a.cfg.Storage.RelationTable)
				return err
			})
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the graph tables, deleting all data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return sigilerr.New(sigilerr.CodeCLIConfirmMissing,
					"schema reset deletes every node and relation; pass --yes to confirm")
			}
			return a.withStore(cmd, func(ctx context.Context, gs store.GraphStore) error {
				if err := gs.ResetSchema(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "schema reset (tables %s, %s)\n",
					a.cfg.Storage.NodeTable, a.cfg.Storage.RelationTable)
				return err
			})
		},
	}
	reset.Flags().Bool("yes", false, "confirm dropping all graph data")

	cmd.AddCommand(ensure, reset)
	return cmd
}
