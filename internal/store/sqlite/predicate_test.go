// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

func TestCompilePredicate(t *testing.T) {
	tests := []struct {
		name     string
		pred     store.Predicate
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "empty and matches all",
			pred:    store.And{},
			wantSQL: "1 = 1",
		},
		{
			name:    "empty or matches none",
			pred:    store.Or{},
			wantSQL: "1 = 0",
		},
		{
			name:     "id set",
			pred:     store.IDIn{"a", "b"},
			wantSQL:  "n.id IN (?, ?)",
			wantArgs: []any{"a", "b"},
		},
		{
			name:     "single child is not parenthesized",
			pred:     store.And{store.NameIn{"x"}},
			wantSQL:  "n.name IN (?)",
			wantArgs: []any{"x"},
		},
		{
			name:     "property equality",
			pred:     store.PropertyEquals{Key: "age", Value: store.Int(30)},
			wantSQL:  `n.id IN (SELECT owner_id FROM "nodes_properties" WHERE key = ? AND value = ?)`,
			wantArgs: []any{"age", "30"},
		},
		{
			name:     "null property",
			pred:     store.PropertyEquals{Key: "gone", Value: store.Null()},
			wantSQL:  `n.id IN (SELECT owner_id FROM "nodes_properties" WHERE key = ? AND value IS NULL)`,
			wantArgs: []any{"gone"},
		},
		{
			name:     "node match ands families in order",
			pred:     store.NodeMatch([]string{"i"}, []string{"n1"}, store.Properties{"b": store.Bool(true)}),
			wantSQL:  `(n.id IN (?)) AND (n.name IN (?)) AND (n.id IN (SELECT owner_id FROM "nodes_properties" WHERE key = ? AND value = ?))`,
			wantArgs: []any{"i", "n1", "b", "true"},
		},
		{
			name:     "node deletion ors families",
			pred:     store.NodeDeletion([]string{"n1"}, []string{"i"}, nil),
			wantSQL:  "(n.name IN (?)) OR (n.id IN (?))",
			wantArgs: []any{"n1", "i"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := compilePredicate(tt.pred, "n", "nodes_properties")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCompilePredicate_LargeSetUsesJSON(t *testing.T) {
	ids := make([]string, maxInlineParams+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}

	sql, args, err := compilePredicate(store.SourceIn(ids), "r", "relations_properties")
	require.NoError(t, err)
	assert.Equal(t, "r.source_id IN (SELECT value FROM json_each(?))", sql)
	require.Len(t, args, 1)
	assert.True(t, strings.HasPrefix(args[0].(string), `["id-0","id-1"`))
}

func TestCompilePredicate_EmptyKey(t *testing.T) {
	_, _, err := compilePredicate(store.PropertyEquals{Key: ""}, "n", "nodes_properties")
	require.Error(t, err)
	assert.True(t, sigilerr.IsInvalidInput(err))
}

func TestDSNFor(t *testing.T) {
	tests := []struct {
		driver string
		dsn    string
		want   string
	}{
		{DriverCGO, "graph.db", "graph.db?_journal_mode=WAL&_busy_timeout=5000"},
		{DriverPure, "graph.db", "graph.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
		{DriverCGO, "file:graph.db?mode=ro", "file:graph.db?mode=ro"},
	}

	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, dsnFor(tt.driver, tt.dsn))
		})
	}
}

func TestNewTables(t *testing.T) {
	tb, err := newTables("people", "knows")
	require.NoError(t, err)
	assert.Equal(t, []string{"people", "knows", "people_properties", "knows_properties"}, tb.all())

	_, err = newTables("people", "people")
	require.Error(t, err)
	assert.Equal(t, sigilerr.CodeStoreConfigInvalid, sigilerr.CodeOf(err))

	_, err = newTables(strings.Repeat("x", 64), "knows")
	require.Error(t, err)
}
