// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/propgraph/internal/export"
	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

func newExportCmd(a *app) *cobra.Command {
	formats := make([]string, 0, len(export.Formats))
	for _, f := range export.Formats {
		formats = append(formats, string(f))
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export or visualize the whole graph",
		Long: "Render every node and relation as an interactive HTML page, Graphviz source, " +
			"an SVG or PNG image (requires the graphviz dot executable), or a JSON/YAML graph document. " +
			"Without --out the result is written to stdout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			raw, _ := cmd.Flags().GetString("format")

			var format export.Format
			if raw != "" {
				f, err := export.ParseFormat(raw)
				if err != nil {
					return err
				}
				format = f
			} else if out == "" {
				format = export.FormatHTML
			}
			if out == "" && format == export.FormatPNG {
				return sigilerr.New(sigilerr.CodeCLIInputInvalid, "png output needs --out")
			}
			// Check before opening the store so a missing renderer leaves
			// nothing behind.
			if format != "" {
				if err := export.CheckDependencies(format); err != nil {
					return err
				}
			}

			return a.withStore(cmd, func(ctx context.Context, gs store.GraphStore) error {
				g, err := export.Snapshot(ctx, gs)
				if err != nil {
					return err
				}
				if out == "" {
					return export.Render(ctx, cmd.OutOrStdout(), g, format)
				}
				if err := export.WriteFile(ctx, g, format, out); err != nil {
					return err
				}
				a.logger.Info("exported graph", "path", out, "nodes", len(g.Nodes), "relations", len(g.Relations))
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
				return err
			})
		},
	}

	cmd.Flags().StringP("format", "f", "", "export format: "+strings.Join(formats, ", ")+" (default: from --out, else html)")
	cmd.Flags().String("out", "", "output file path")
	return cmd
}
