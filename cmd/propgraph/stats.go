// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/propgraph/internal/store"
)

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show node and relation counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, gs store.GraphStore) error {
				stats, err := gs.Stats(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if format == outputJSON {
					return writeJSON(w, stats)
				}

				rows := [][]string{
					{"nodes", "", strconv.FormatInt(stats.Nodes, 10)},
				}
				for _, lc := range stats.NodesByLabel {
					rows = append(rows, []string{"nodes", lc.Label, strconv.FormatInt(lc.Count, 10)})
				}
				rows = append(rows, []string{"relations", "", strconv.FormatInt(stats.Relations, 10)})
				for _, lc := range stats.RelationsByLabel {
					rows = append(rows, []string{"relations", lc.Label, strconv.FormatInt(lc.Count, 10)})
				}
				rows = append(rows, []string{"dangling relations", "", strconv.FormatInt(stats.DanglingRelations, 10)})
				if err := renderTable(w, []string{"KIND", "LABEL", "COUNT"}, rows); err != nil {
					return err
				}
				if stats.DanglingRelations > 0 {
					_, err := fmt.Fprintln(w, dimStyle.Render("run 'propgraph prune' to remove dangling relations"))
					return err
				}
				return nil
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}
