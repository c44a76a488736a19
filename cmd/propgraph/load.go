// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/propgraph/internal/export"
	"github.com/sigil-dev/propgraph/internal/store"
)

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Upsert the nodes and relations of a JSON or YAML graph document",
		Long: "Read a graph document (.json, .yaml or .yml) and upsert its nodes, then its relations. " +
			"Relations may name endpoints by id or by {name, label} reference.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := export.ReadDocument(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, gs store.GraphStore) error {
				if err := gs.UpsertNodes(ctx, g.Nodes); err != nil {
					return err
				}
				if err := gs.UpsertRelations(ctx, g.Relations); err != nil {
					return err
				}
				a.logger.Info("loaded graph document",
					"path", args[0], "nodes", len(g.Nodes), "relations", len(g.Relations))
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "loaded %d nodes and %d relations\n",
					len(g.Nodes), len(g.Relations))
				return err
			})
		},
	}
}
