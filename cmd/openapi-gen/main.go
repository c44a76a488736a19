// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sigil-dev/propgraph/internal/server"
	"github.com/sigil-dev/propgraph/internal/store"
	"github.com/sigil-dev/propgraph/internal/store/sqlite"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

func main() {
	outPath := "api/openapi/spec.json"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	spec, err := generateSpec(context.Background(), outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, spec, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OpenAPI spec written to %s\n", outPath)
}

// generateSpec registers every route against a throwaway in-memory store
// and extracts the OpenAPI document huma builds from the Go types. A
// .yaml or .yml outPath selects YAML, anything else JSON.
func generateSpec(ctx context.Context, outPath string) ([]byte, error) {
	gs, err := sqlite.Open(ctx, sqlite.DriverPure, store.StorageConfig{DSN: ":memory:"})
	if err != nil {
		return nil, sigilerr.Errorf(sigilerr.CodeCLISetupFailure, "opening in-memory store: %w", err)
	}
	defer func() { _ = gs.Close() }()

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, gs)
	if err != nil {
		return nil, sigilerr.Errorf(sigilerr.CodeCLISetupFailure, "creating server: %w", err)
	}

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".yaml", ".yml":
		return srv.API().OpenAPI().YAML()
	default:
		return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
	}
}
