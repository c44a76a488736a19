// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package export

import (
	"context"
	"os"
	"path/filepath"

	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// WriteFile renders g into path. An empty format is inferred from the
// extension. Output goes to a temp file in the same directory that is
// renamed over path only after rendering succeeds, so a failed export
// never leaves a partial file behind.
func WriteFile(ctx context.Context, g *Graph, format Format, path string) error {
	if format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return err
		}
		format = f
	} else if _, err := ParseFormat(string(format)); err != nil {
		return err
	}

	// Fail before touching the filesystem when a renderer is missing.
	if err := CheckDependencies(format); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeExportWriteFailure, "creating directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".propgraph-export-*.tmp")
	if err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeExportWriteFailure, "creating temporary file")
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := Render(ctx, tmp, g, format); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeExportWriteFailure, "closing temporary file")
	}
	tmp = nil

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return sigilerr.Wrapf(err, sigilerr.CodeExportWriteFailure, "renaming %s to %s", tmpPath, path)
	}
	return nil
}
