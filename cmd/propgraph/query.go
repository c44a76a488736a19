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

func newGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "List nodes matching ids and property filters",
		Long:  "List nodes. Every flag narrows the result; with no flags every node is listed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			ids, _ := cmd.Flags().GetStringSlice("id")
			pairs, _ := cmd.Flags().GetStringArray("prop")
			props, err := parseProperties(pairs)
			if err != nil {
				return err
			}

			return a.withStore(cmd, func(ctx context.Context, gs store.GraphStore) error {
				nodes, err := gs.Get(ctx, store.NodeQuery{IDs: ids, Properties: props})
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if format == outputJSON {
					return writeJSON(w, (&export.Graph{Nodes: nodes}).Document().Nodes)
				}
				if len(nodes) == 0 {
					_, err := fmt.Fprintln(w, "no matching nodes")
					return err
				}
				rows := make([][]string, 0, len(nodes))
				for _, n := range nodes {
					rows = append(rows, []string{shortID(n.ID), n.Label, n.Name, formatProperties(n.Properties)})
				}
				return renderTable(w, []string{"ID", "LABEL", "NAME", "PROPERTIES"}, rows)
			})
		},
	}

	cmd.Flags().StringSlice("id", nil, "node id (repeatable)")
	cmd.Flags().StringArray("prop", nil, "property filter key=value (repeatable)")
	addOutputFlag(cmd)
	return cmd
}

func newTripletsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triplets",
		Short: "List source-relation-target triplets",
		Long: "List triplets whose source node matches --name, --id and --prop and whose relation " +
			"label matches --relation. --match-target also accepts triplets whose target node matches.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			names, _ := cmd.Flags().GetStringArray("name")
			ids, _ := cmd.Flags().GetStringSlice("id")
			relations, _ := cmd.Flags().GetStringArray("relation")
			matchTarget, _ := cmd.Flags().GetBool("match-target")
			pairs, _ := cmd.Flags().GetStringArray("prop")
			props, err := parseProperties(pairs)
			if err != nil {
				return err
			}

			return a.withStore(cmd, func(ctx context.Context, gs store.GraphStore) error {
				triplets, err := gs.GetTriplets(ctx, store.TripletQuery{
					EntityNames:   names,
					RelationNames: relations,
					Properties:    props,
					IDs:           ids,
					MatchTarget:   matchTarget,
				})
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if format == outputJSON {
					if triplets == nil {
						triplets = []store.Triplet{}
					}
					return writeJSON(w, triplets)
				}
				if len(triplets) == 0 {
					_, err := fmt.Fprintln(w, "no matching triplets")
					return err
				}
				rows := make([][]string, 0, len(triplets))
				for _, t := range triplets {
					rows = append(rows, []string{
						t.Source.Name,
						t.Relation.Label,
						t.Target.Name,
						formatProperties(t.Relation.Properties),
					})
				}
				return renderTable(w, []string{"SOURCE", "RELATION", "TARGET", "PROPERTIES"}, rows)
			})
		},
	}

	cmd.Flags().StringArray("name", nil, "source node name (repeatable)")
	cmd.Flags().StringSlice("id", nil, "source node id (repeatable)")
	cmd.Flags().StringArray("relation", nil, "relation label (repeatable)")
	cmd.Flags().StringArray("prop", nil, "source node property filter key=value (repeatable)")
	cmd.Flags().Bool("match-target", false, "also match the node filters against the target node")
	addOutputFlag(cmd)
	return cmd
}
