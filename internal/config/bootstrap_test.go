// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/propgraph/internal/config"
)

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "propgraph.yaml")

	written, err := config.WriteDefault(path)
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfigYAML, data)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteDefault_KeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "propgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	written, err := config.WriteDefault(path)
	require.NoError(t, err)
	assert.False(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "log:\n  level: debug\n", string(data))
}

func TestBootstrapConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := config.BootstrapConfig()
	assert.Equal(t, filepath.Join(home, ".config", "propgraph", "propgraph.yaml"), path)
	assert.FileExists(t, path)

	// Second call finds the file and writes nothing.
	assert.Empty(t, config.BootstrapConfig())
}
