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

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete nodes and the relations left dangling",
		Long: "Delete every node matched by any of --name, --id or --prop (the filters combine with OR), " +
			"every relation left without a source or target node, and every relation labeled with --relation.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, _ := cmd.Flags().GetStringArray("name")
			ids, _ := cmd.Flags().GetStringSlice("id")
			relations, _ := cmd.Flags().GetStringArray("relation")
			pairs, _ := cmd.Flags().GetStringArray("prop")
			props, err := parseProperties(pairs)
			if err != nil {
				return err
			}
			if len(names) == 0 && len(ids) == 0 && len(relations) == 0 && len(props) == 0 {
				return sigilerr.New(sigilerr.CodeCLIInputInvalid,
					"nothing selected: pass --name, --id, --prop or --relation")
			}

			return a.withStore(cmd, func(ctx context.Context, gs store.GraphStore) error {
				res, err := gs.Delete(ctx, store.DeleteOptions{
					EntityNames:   names,
					Properties:    props,
					IDs:           ids,
					RelationNames: relations,
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d nodes and %d relations\n", res.Nodes, res.Relations)
				return err
			})
		},
	}

	cmd.Flags().StringArray("name", nil, "node name (repeatable)")
	cmd.Flags().StringSlice("id", nil, "node id (repeatable)")
	cmd.Flags().StringArray("prop", nil, "node property filter key=value (repeatable)")
	cmd.Flags().StringArray("relation", nil, "relation label to delete (repeatable)")
	return cmd
}

func newPruneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete relations whose source or target node no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, gs store.GraphStore) error {
				n, err := gs.PruneDanglingRelations(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d dangling relations\n", n)
				return err
			})
		},
	}
}
