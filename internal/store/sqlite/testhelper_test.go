// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite_test

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/propgraph/internal/store"
	"github.com/sigil-dev/propgraph/internal/store/sqlite"
)

var drivers = []string{sqlite.DriverCGO, sqlite.DriverPure}

// testDBPath returns a SQLite database path inside a per-test temp dir.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}

// openStore opens a fresh file-backed graph store with default table names.
func openStore(t *testing.T, driver string) *sqlite.GraphStore {
	t.Helper()
	return openStoreWith(t, driver, store.StorageConfig{DSN: testDBPath(t, "graph")})
}

func openStoreWith(t *testing.T, driver string, cfg store.StorageConfig) *sqlite.GraphStore {
	t.Helper()
	gs, err := sqlite.Open(context.Background(), driver, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gs.Close() })
	return gs
}

// eachDriver runs fn once per registered SQLite driver.
func eachDriver(t *testing.T, fn func(t *testing.T, gs *sqlite.GraphStore)) {
	t.Helper()
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			fn(t, openStore(t, driver))
		})
	}
}

func node(name string, props map[string]any) store.EntityNode {
	return store.NewEntityNode("", name, store.PropertiesOf(props))
}

func sortedNames(nodes []store.EntityNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	sort.Strings(out)
	return out
}

func sortedLabels(rels []store.Relation) []string {
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		out = append(out, r.Label)
	}
	sort.Strings(out)
	return out
}

// tripletKeys renders each triplet as "source-label-target".
func tripletKeys(triplets []store.Triplet) []string {
	out := make([]string, 0, len(triplets))
	for _, t := range triplets {
		out = append(out, t.Source.Name+"-"+t.Relation.Label+"-"+t.Target.Name)
	}
	return out
}
