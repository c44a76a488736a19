// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

//go:build windows

package config

import "log/slog"

// WarnInsecurePermissions never warns on Windows, where access is governed
// by ACLs rather than mode bits.
func WarnInsecurePermissions(path string) bool {
	if path != "" {
		slog.Debug("config permission check skipped on windows", "path", path)
	}
	return false
}
