// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// --- lipgloss styles ---

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", outputTable, "output format: table or json")
}

func outputFormat(cmd *cobra.Command) (string, error) {
	out, _ := cmd.Flags().GetString("output")
	switch out {
	case outputTable, outputJSON:
		return out, nil
	default:
		return "", sigilerr.Errorf(sigilerr.CodeCLIInputInvalid, "unknown output format %q (want table or json)", out)
	}
}

// renderTable draws rows under headers with a rounded border.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatProperties renders properties as sorted key=value pairs.
func formatProperties(p store.Properties) string {
	if len(p) == 0 {
		return dimStyle.Render("-")
	}
	parts := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		parts = append(parts, k+"="+p[k].String())
	}
	return strings.Join(parts, " ")
}

// parseProperties turns repeated key=value flags into a property filter.
// Values are matched by their text form, so "30" finds both the string
// and the number.
func parseProperties(pairs []string) (store.Properties, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := make(store.Properties, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, sigilerr.Errorf(sigilerr.CodeCLIInputInvalid, "property filter %q must be key=value", pair)
		}
		props[k] = store.String(v)
	}
	return props, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
