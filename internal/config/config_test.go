// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sigil-dev/propgraph/internal/config"
	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

func validConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			Backend:       "sqlite3",
			DSN:           "graph.db",
			NodeTable:     "nodes",
			RelationTable: "relations",
		},
		Server: config.ServerConfig{Listen: "127.0.0.1:18790"},
		Log:    config.LogConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Storage.Backend)
	assert.Equal(t, "propgraph.db", cfg.Storage.DSN)
	assert.Equal(t, "nodes", cfg.Storage.NodeTable)
	assert.Equal(t, "relations", cfg.Storage.RelationTable)
	assert.False(t, cfg.Storage.DropExistingTable)
	assert.Equal(t, "127.0.0.1:18790", cfg.Server.Listen)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_FromFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "propgraph.yaml")

	content := `
storage:
  backend: sqlite
  dsn: /tmp/graph.db
  node_table: example_nodes
  relation_table: example_relations
  drop_existing_table: true
server:
  listen: "0.0.0.0:9999"
  cors_origins: ["http://localhost:3000"]
log:
  format: json
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.True(t, cfg.Storage.DropExistingTable)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Listen)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, store.StorageConfig{
		Backend:           "sqlite",
		DSN:               "/tmp/graph.db",
		NodeTableName:     "example_nodes",
		RelationTableName: "example_relations",
		DropExistingTable: true,
	}, cfg.StoreConfig())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PROPGRAPH_STORAGE_DSN", ":memory:")
	t.Setenv("PROPGRAPH_STORAGE_DROP_EXISTING_TABLE", "true")
	t.Setenv("PROPGRAPH_SERVER_LISTEN", "10.0.0.1:8080")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.True(t, cfg.Storage.DropExistingTable)
	assert.Equal(t, "10.0.0.1:8080", cfg.Server.Listen)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, sigilerr.CodeConfigLoadReadFailure, sigilerr.CodeOf(err))
}

func TestLoad_ValidationCalledAtLoadTime(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "propgraph.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  backend: postgres\n"), 0o600))

	_, err := config.Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
	assert.True(t, sigilerr.IsInvalidInput(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr []string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "pure go backend", mutate: func(c *config.Config) { c.Storage.Backend = "sqlite" }},
		{
			name:    "unknown backend",
			mutate:  func(c *config.Config) { c.Storage.Backend = "postgres" },
			wantErr: []string{"storage.backend"},
		},
		{
			name:    "empty dsn",
			mutate:  func(c *config.Config) { c.Storage.DSN = "" },
			wantErr: []string{"storage.dsn"},
		},
		{
			name:    "table name with space",
			mutate:  func(c *config.Config) { c.Storage.NodeTable = "my nodes" },
			wantErr: []string{"storage.node_table"},
		},
		{
			name: "same table names",
			mutate: func(c *config.Config) {
				c.Storage.NodeTable = "graph"
				c.Storage.RelationTable = "graph"
			},
			wantErr: []string{"must differ"},
		},
		{
			name:    "listen without port",
			mutate:  func(c *config.Config) { c.Server.Listen = "localhost" },
			wantErr: []string{"server.listen"},
		},
		{
			name:    "port out of range",
			mutate:  func(c *config.Config) { c.Server.Listen = ":70000" },
			wantErr: []string{"between 1 and 65535"},
		},
		{
			name: "collects every problem",
			mutate: func(c *config.Config) {
				c.Storage.DSN = ""
				c.Log.Level = "loud"
				c.Log.Format = "xml"
			},
			wantErr: []string{"storage.dsn", "log.level", "log.format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			errs := cfg.Validate()
			require.Len(t, errs, len(tt.wantErr))
			for i, want := range tt.wantErr {
				assert.Contains(t, errs[i].Error(), want)
				assert.Equal(t, sigilerr.CodeConfigValidateInvalidValue, sigilerr.CodeOf(errs[i]))
			}
		})
	}
}

func TestSetupEnv_BindsPrefix(t *testing.T) {
	t.Setenv("PROPGRAPH_LOG_LEVEL", "debug")

	v := viper.New()
	config.SetDefaults(v)
	config.SetupEnv(v)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestDefaultConfigYAML_MatchesDefaults(t *testing.T) {
	var fromFile map[string]any
	require.NoError(t, yaml.Unmarshal(config.DefaultConfigYAML, &fromFile))

	path := filepath.Join(t.TempDir(), "propgraph.yaml")
	require.NoError(t, os.WriteFile(path, config.DefaultConfigYAML, 0o600))

	fileCfg, err := config.Load(path)
	require.NoError(t, err)
	defaults, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, defaults.StoreConfig(), fileCfg.StoreConfig())
	assert.Equal(t, defaults.Server.Listen, fileCfg.Server.Listen)
	assert.Contains(t, fromFile, "storage")
}
