// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

const (
	groupRead fs.FileMode = 0o040
	otherRead fs.FileMode = 0o004
)

// WarnInsecurePermissions logs a warning when the config file at path is
// group- or world-readable and reports whether it warned. A DSN may carry
// credentials, so the file should be 0600. It never fails startup.
func WarnInsecurePermissions(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return false
	}

	if info.Mode().Perm()&(groupRead|otherRead) == 0 {
		return false
	}

	slog.Warn("config file has insecure permissions",
		"path", path,
		"mode", info.Mode(),
		"recommended", "0600",
	)
	return true
}
