// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/sigil-dev/propgraph/internal/export"
	"github.com/sigil-dev/propgraph/internal/store"
)

const doctorTimeout = 10 * time.Second

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check the configuration, storage backends, database connectivity, graphviz availability and disk space.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, a)
		},
	}
}

func runDoctor(cmd *cobra.Command, a *app) error {
	w := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Config", func() string { return checkConfig(a) }},
		{"Backends", checkBackends},
		{"Database", func() string { return checkDatabase(ctx, a) }},
		{"Graphviz", checkGraphviz},
		{"Disk Space", func() string { return checkDiskSpace(a.cfg.Storage.DSN) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

func checkBinary() string {
	return fmt.Sprintf("propgraph %s (commit %s)", version, commit)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig(a *app) string {
	if cfgFile := a.v.ConfigFileUsed(); cfgFile != "" {
		return fmt.Sprintf("loaded from %s", cfgFile)
	}
	return "using defaults (no config file found)"
}

func checkBackends() string {
	return strings.Join(store.Backends(), ", ")
}

func checkDatabase(ctx context.Context, a *app) string {
	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	gs, err := a.openStore(ctx)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	defer func() { _ = gs.Close() }()

	stats, err := gs.Stats(ctx)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	msg := fmt.Sprintf("%s via %s: %d nodes, %d relations",
		a.cfg.Storage.DSN, a.cfg.Storage.Backend, stats.Nodes, stats.Relations)
	if stats.DanglingRelations > 0 {
		msg += fmt.Sprintf(" (%d dangling, run 'propgraph prune')", stats.DanglingRelations)
	}
	return msg
}

func checkGraphviz() string {
	if err := export.CheckDependencies(export.FormatSVG); err != nil {
		return "not found (svg and png export unavailable)"
	}
	return "available"
}

// checkDiskSpace reports free space on the filesystem holding the database.
func checkDiskSpace(dsn string) string {
	path := filepath.Dir(dsnPath(dsn))
	if _, err := os.Stat(path); err != nil {
		// Fall back to home directory if the database dir doesn't exist yet.
		path, _ = os.UserHomeDir()
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// dsnPath strips a file: scheme and query string from a SQLite DSN.
func dsnPath(dsn string) string {
	p, _, _ := strings.Cut(dsn, "?")
	p = strings.TrimPrefix(p, "file:")
	if p == "" || p == ":memory:" {
		return "."
	}
	return p
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
