// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

func TestEntityNode_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		node      store.EntityNode
		wantLabel string
		wantErr   bool
	}{
		{name: "default label", node: store.EntityNode{Name: "alice"}, wantLabel: store.DefaultNodeLabel},
		{name: "explicit label", node: store.EntityNode{Name: "alice", Label: "person"}, wantLabel: "person"},
		{name: "matching id", node: store.EntityNode{ID: store.NodeID("person", "alice"), Name: "alice", Label: "person"}, wantLabel: "person"},
		{name: "empty name", node: store.EntityNode{Label: "person"}, wantErr: true},
		{name: "mismatched id", node: store.EntityNode{ID: "deadbeef", Name: "alice"}, wantErr: true},
		{name: "empty property key", node: store.EntityNode{Name: "alice", Properties: store.Properties{"": store.Int(1)}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.node
			err := n.Normalize()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, sigilerr.CodeStoreNodeUpsertInvalid, sigilerr.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, n.Label)
			assert.Equal(t, store.NodeID(tt.wantLabel, n.Name), n.ID)
		})
	}
}

func TestRelation_Normalize(t *testing.T) {
	r := store.Relation{Label: "knows", SourceID: "a", TargetID: "b"}
	require.NoError(t, r.Normalize())
	assert.Equal(t, store.RelationID("knows", "a", "b"), r.ID)

	for _, bad := range []store.Relation{
		{SourceID: "a", TargetID: "b"},
		{Label: "knows", TargetID: "b"},
		{Label: "knows", SourceID: "a"},
		{ID: "other", Label: "knows", SourceID: "a", TargetID: "b"},
	} {
		err := bad.Normalize()
		require.Error(t, err)
		assert.True(t, sigilerr.IsInvalidInput(err))
	}
}

func TestNewEntityNode(t *testing.T) {
	n := store.NewEntityNode("", "alice", nil)
	assert.Equal(t, store.DefaultNodeLabel, n.Label)
	assert.Equal(t, store.NodeID("entity", "alice"), n.ID)
	assert.Equal(t, store.NodeID("", "alice"), n.ID)
}

func TestValidateFilter(t *testing.T) {
	require.NoError(t, store.ValidateFilter(nil))
	require.NoError(t, store.ValidateFilter(store.Properties{"k": store.Null()}))

	err := store.ValidateFilter(store.Properties{"": store.String("x")})
	require.Error(t, err)
	assert.Equal(t, sigilerr.CodeStoreQueryInvalid, sigilerr.CodeOf(err))
}
