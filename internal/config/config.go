// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// EnvPrefix is prepended to every environment override, e.g.
// PROPGRAPH_STORAGE_DSN.
const EnvPrefix = "PROPGRAPH"

// Config is the top-level propgraph configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

// StorageConfig selects the SQLite driver, database and table names.
type StorageConfig struct {
	Backend           string `mapstructure:"backend"`
	DSN               string `mapstructure:"dsn"`
	NodeTable         string `mapstructure:"node_table"`
	RelationTable     string `mapstructure:"relation_table"`
	DropExistingTable bool   `mapstructure:"drop_existing_table"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	validBackends = []string{"sqlite3", "sqlite"}
	validLevels   = []string{"debug", "info", "warn", "error"}
	validFormats  = []string{"text", "json"}

	tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)
)

// SetDefaults registers the default value of every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", store.DefaultBackend)
	v.SetDefault("storage.dsn", "propgraph.db")
	v.SetDefault("storage.node_table", store.DefaultNodeTable)
	v.SetDefault("storage.relation_table", store.DefaultRelationTable)
	v.SetDefault("storage.drop_existing_table", false)
	v.SetDefault("server.listen", "127.0.0.1:18790")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// SetupEnv binds PROPGRAPH_-prefixed environment variables to config keys.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix PROPGRAPH_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, sigilerr.Errorf(sigilerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// StoreConfig maps the storage section onto the store factory's config.
func (c *Config) StoreConfig() store.StorageConfig {
	return store.StorageConfig{
		Backend:           c.Storage.Backend,
		DSN:               c.Storage.DSN,
		NodeTableName:     c.Storage.NodeTable,
		RelationTableName: c.Storage.RelationTable,
		DropExistingTable: c.Storage.DropExistingTable,
	}
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateLog()...)

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	if !oneOf(c.Storage.Backend, validBackends) {
		errs = append(errs, invalid("storage.backend must be one of [%s], got %q",
			strings.Join(validBackends, ", "), c.Storage.Backend))
	}

	if c.Storage.DSN == "" {
		errs = append(errs, invalid("storage.dsn must not be empty"))
	}

	for key, name := range map[string]string{
		"storage.node_table":     c.Storage.NodeTable,
		"storage.relation_table": c.Storage.RelationTable,
	} {
		if !tableNamePattern.MatchString(name) {
			errs = append(errs, invalid("%s must be a plain SQL identifier, got %q", key, name))
		}
	}

	if c.Storage.NodeTable != "" && c.Storage.NodeTable == c.Storage.RelationTable {
		errs = append(errs, invalid("storage.node_table and storage.relation_table must differ, both are %q",
			c.Storage.NodeTable))
	}

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, invalid("server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, invalid("server.listen must be a valid host:port address, got %q: %v",
			c.Server.Listen, err))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, invalid("server.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, invalid("server.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateLog() []error {
	var errs []error

	if !oneOf(strings.ToLower(c.Log.Level), validLevels) {
		errs = append(errs, invalid("log.level must be one of [%s], got %q",
			strings.Join(validLevels, ", "), c.Log.Level))
	}
	if !oneOf(strings.ToLower(c.Log.Format), validFormats) {
		errs = append(errs, invalid("log.format must be one of [%s], got %q",
			strings.Join(validFormats, ", "), c.Log.Format))
	}

	return errs
}

func invalid(format string, args ...any) error {
	return sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue, "config: "+format, args...)
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
