// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

//go:embed propgraph.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/propgraph/propgraph.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "propgraph", "propgraph.yaml"), nil
}

// WriteDefault writes the embedded default config to path with 0600
// permissions, creating parent directories. An existing file is left alone
// and reported as not written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "checking %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "creating %s: %w", path, err)
	}
	if _, err := f.Write(DefaultConfigYAML); err != nil {
		_ = f.Close()
		return false, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "closing %s: %w", path, err)
	}
	return true, nil
}

// BootstrapConfig writes the default config to DefaultConfigPath when no
// file exists there yet and returns the path written. Failures are logged
// at debug level and yield "".
func BootstrapConfig() string {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		slog.Debug("skipping config bootstrap", "error", err)
		return ""
	}

	written, err := WriteDefault(cfgPath)
	if err != nil {
		slog.Debug("skipping config bootstrap", "path", cfgPath, "error", err)
		return ""
	}
	if !written {
		return ""
	}

	slog.Info("created default config", "path", cfgPath)
	return cfgPath
}
