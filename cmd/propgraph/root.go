// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sigil-dev/propgraph/internal/config"
	"github.com/sigil-dev/propgraph/internal/store"
	_ "github.com/sigil-dev/propgraph/internal/store/sqlite" // registers sqlite3 and sqlite
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// app carries the state resolved by the root command for its subcommands.
// Each root command owns its own Viper so commands built in tests do not
// leak settings into each other.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd creates the root propgraph command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "propgraph",
		Short:         "propgraph: a property graph store on SQLite",
		Long:          "propgraph stores labeled entity nodes and the relations between them in SQLite tables and answers triplet queries over them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	// Global flags; these map to viper keys in init.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	root.PersistentFlags().String("dsn", "", "database file or driver DSN (overrides storage.dsn)")
	root.PersistentFlags().String("backend", "", "storage backend: sqlite3 or sqlite (overrides storage.backend)")

	root.AddCommand(
		newVersionCmd(),
		newSchemaCmd(a),
		newLoadCmd(a),
		newGetCmd(a),
		newTripletsCmd(a),
		newDeleteCmd(a),
		newPruneCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newDoctorCmd(a),
	)

	return root
}

// init resolves configuration with the standard precedence
// (flag > env > file > defaults) and installs the process logger.
func (a *app) init(cmd *cobra.Command) error {
	v := a.v

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// SetConfigType is omitted so Viper never matches the bare
		// ./propgraph binary as a config file.
		v.SetConfigName("propgraph")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/propgraph")
		v.AddConfigPath("/etc/propgraph")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
				}
			}
		}
	}

	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"storage.dsn":     "dsn",
		"storage.backend": "backend",
		"verbose":         "verbose",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return sigilerr.Errorf(sigilerr.CodeCLISetupFailure, "binding %s flag: %w", flag, err)
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = config.NewLogger(cfg.Log, cmd.ErrOrStderr(), v.GetBool("verbose"))
	slog.SetDefault(a.logger)

	config.WarnInsecurePermissions(v.ConfigFileUsed())
	return nil
}

// openStore opens the configured graph store. Callers close it.
func (a *app) openStore(ctx context.Context) (store.GraphStore, error) {
	sc := a.cfg.StoreConfig()
	gs, err := store.Open(ctx, &sc)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("opened graph store",
		"backend", sc.Backend,
		"dsn", sc.DSN,
		"node_table", sc.NodeTableName,
		"relation_table", sc.RelationTableName,
	)
	return gs, nil
}

// withStore runs fn against a freshly opened store and closes it after.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, gs store.GraphStore) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	gs, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := gs.Close(); err != nil {
			a.logger.Warn("closing graph store", "error", err)
		}
	}()
	return fn(ctx, gs)
}
