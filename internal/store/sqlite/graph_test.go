// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/propgraph/internal/store"
	"github.com/sigil-dev/propgraph/internal/store/sqlite"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

func TestGraphStore_TripletScenario(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()
		e1 := node("e1", map[string]any{"p1": "v1"})
		e2 := node("e2", nil)

		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{e1, e2}))
		require.NoError(t, gs.UpsertRelations(ctx, []store.Relation{
			store.NewRelation("r", e1.ID, e2.ID, nil),
		}))

		got, err := gs.GetTriplets(ctx, store.TripletQuery{EntityNames: []string{"e1"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "e1", got[0].Source.Name)
		assert.Equal(t, "r", got[0].Relation.Label)
		assert.Equal(t, "e2", got[0].Target.Name)
		assert.Equal(t, "v1", got[0].Source.Properties["p1"].String())

		got, err = gs.GetTriplets(ctx, store.TripletQuery{EntityNames: []string{"e3"}})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = gs.GetTriplets(ctx, store.TripletQuery{
			Properties: store.Properties{"p1": store.String("v1")},
		})
		require.NoError(t, err)
		assert.Len(t, got, 1)

		_, err = gs.Delete(ctx, store.DeleteOptions{EntityNames: []string{"e1"}})
		require.NoError(t, err)

		got, err = gs.GetTriplets(ctx, store.TripletQuery{EntityNames: []string{"e1"}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGraphStore_UpsertNodes_Idempotent(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()

		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{
			store.NewEntityNode("person", "alice", store.Properties{"age": store.Int(30)}),
		}))
		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{
			store.NewEntityNode("person", "alice", store.Properties{"age": store.Int(31), "city": store.String("Oslo")}),
		}))

		nodes, err := gs.Get(ctx, store.NodeQuery{})
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, store.NodeID("person", "alice"), nodes[0].ID)
		assert.True(t, nodes[0].Properties.Equal(store.Properties{
			"age":  store.Int(31),
			"city": store.String("Oslo"),
		}))

		// Stale property index rows must not match.
		nodes, err = gs.Get(ctx, store.NodeQuery{Properties: store.Properties{"age": store.Int(30)}})
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})
}

func TestGraphStore_UpsertRelations_Idempotent(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()
		a, b := node("a", nil), node("b", nil)
		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{a, b}))

		for _, weight := range []float64{1, 2.5} {
			require.NoError(t, gs.UpsertRelations(ctx, []store.Relation{
				store.NewRelation("knows", a.ID, b.ID, store.Properties{"weight": store.Number(weight)}),
			}))
		}

		rels, err := gs.GetRelations(ctx, store.RelationQuery{})
		require.NoError(t, err)
		require.Len(t, rels, 1)
		assert.Equal(t, store.RelationID("knows", a.ID, b.ID), rels[0].ID)
		assert.True(t, rels[0].Properties["weight"].Equal(store.Number(2.5)))
	})
}

func TestGraphStore_UpsertNodes_BatchIsAtomic(t *testing.T) {
	tests := []struct {
		name  string
		batch []store.EntityNode
	}{
		{
			name:  "empty name",
			batch: []store.EntityNode{node("ok", nil), {Label: "person"}},
		},
		{
			name: "mismatched id",
			batch: []store.EntityNode{
				node("ok", nil),
				{ID: store.NodeID("person", "bob"), Name: "alice", Label: "person"},
			},
		},
		{
			name:  "empty property key",
			batch: []store.EntityNode{node("ok", nil), node("bad", map[string]any{"": "x"})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
				ctx := context.Background()

				err := gs.UpsertNodes(ctx, tt.batch)
				require.Error(t, err)
				assert.True(t, sigilerr.HasCode(err, sigilerr.CodeStoreNodeUpsertInvalid), "got code %q", sigilerr.CodeOf(err))
				assert.True(t, sigilerr.IsInvalidInput(err))

				nodes, err := gs.Get(ctx, store.NodeQuery{})
				require.NoError(t, err)
				assert.Empty(t, nodes)
			})
		})
	}
}

func TestGraphStore_UpsertRelations_Invalid(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()

		err := gs.UpsertRelations(ctx, []store.Relation{
			store.NewRelation("knows", "a", "b", nil),
			{Label: "knows", SourceID: "a"},
		})
		require.Error(t, err)
		assert.True(t, sigilerr.HasCode(err, sigilerr.CodeStoreRelationUpsertInvalid))

		rels, err := gs.GetRelations(ctx, store.RelationQuery{})
		require.NoError(t, err)
		assert.Empty(t, rels)
	})
}

func TestGraphStore_Get(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()
		alice := store.NewEntityNode("person", "alice", store.Properties{
			"age":    store.Int(30),
			"active": store.Bool(true),
			"team":   store.String("core"),
		})
		bob := store.NewEntityNode("person", "bob", store.Properties{
			"age":  store.Number(41.5),
			"team": store.String("core"),
			"note": store.Null(),
		})
		carol := store.NewEntityNode("", "carol", nil)
		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{carol, bob, alice}))

		tests := []struct {
			name  string
			query store.NodeQuery
			want  []string
		}{
			{"empty query returns all", store.NodeQuery{}, []string{"alice", "bob", "carol"}},
			{"empty id slice is absent", store.NodeQuery{IDs: []string{}}, []string{"alice", "bob", "carol"}},
			{"ids", store.NodeQuery{IDs: []string{alice.ID, carol.ID}}, []string{"alice", "carol"}},
			{"ids with unknown", store.NodeQuery{IDs: []string{bob.ID, "missing"}}, []string{"bob"}},
			{"string property", store.NodeQuery{Properties: store.Properties{"team": store.String("core")}}, []string{"alice", "bob"}},
			{"number property", store.NodeQuery{Properties: store.Properties{"age": store.Int(30)}}, []string{"alice"}},
			{"number matches its text", store.NodeQuery{Properties: store.Properties{"age": store.String("41.5")}}, []string{"bob"}},
			{"bool property", store.NodeQuery{Properties: store.Properties{"active": store.Bool(true)}}, []string{"alice"}},
			{"properties are ANDed", store.NodeQuery{Properties: store.Properties{
				"team": store.String("core"),
				"age":  store.Int(30),
			}}, []string{"alice"}},
			{"ids and properties are ANDed", store.NodeQuery{
				IDs:        []string{bob.ID},
				Properties: store.Properties{"age": store.Int(30)},
			}, []string{}},
			{"no partial match", store.NodeQuery{Properties: store.Properties{"team": store.String("cor")}}, []string{}},
			{"null matches stored null", store.NodeQuery{Properties: store.Properties{"note": store.Null()}}, []string{"bob"}},
			{"null does not match absent key", store.NodeQuery{Properties: store.Properties{"team": store.Null()}}, []string{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := gs.Get(ctx, tt.query)
				require.NoError(t, err)
				assert.Equal(t, tt.want, sortedNames(got))
			})
		}
	})
}

func TestGraphStore_Get_LargeIDSet(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()

		var (
			batch []store.EntityNode
			ids   []string
		)
		for i := range 150 {
			n := node(fmt.Sprintf("n%03d", i), map[string]any{"i": i})
			batch = append(batch, n)
			if i%2 == 0 {
				ids = append(ids, n.ID)
			}
		}
		require.NoError(t, gs.UpsertNodes(ctx, batch))

		got, err := gs.Get(ctx, store.NodeQuery{IDs: ids})
		require.NoError(t, err)
		assert.Len(t, got, 75)
	})
}

func TestGraphStore_Get_EmptyPropertyKey(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		_, err := gs.Get(context.Background(), store.NodeQuery{Properties: store.Properties{"": store.String("x")}})
		require.Error(t, err)
		assert.True(t, sigilerr.IsInvalidInput(err))
	})
}

func TestGraphStore_Delete(t *testing.T) {
	type fixture struct {
		a, b, c store.EntityNode
	}
	seed := func(t *testing.T, gs *sqlite.GraphStore) fixture {
		t.Helper()
		ctx := context.Background()
		f := fixture{
			a: node("a", map[string]any{"kind": "x", "tier": 1}),
			b: node("b", map[string]any{"kind": "x", "tier": 2}),
			c: node("c", map[string]any{"kind": "y"}),
		}
		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{f.a, f.b, f.c}))
		require.NoError(t, gs.UpsertRelations(ctx, []store.Relation{
			store.NewRelation("ab", f.a.ID, f.b.ID, nil),
			store.NewRelation("bc", f.b.ID, f.c.ID, nil),
			store.NewRelation("ca", f.c.ID, f.a.ID, nil),
		}))
		return f
	}

	tests := []struct {
		name          string
		ghost         bool
		opts          func(f fixture) store.DeleteOptions
		want          store.DeleteResult
		wantNodes     []string
		wantRelations []string
	}{
		{
			name:          "no families is a no-op",
			opts:          func(fixture) store.DeleteOptions { return store.DeleteOptions{} },
			wantNodes:     []string{"a", "b", "c"},
			wantRelations: []string{"ab", "bc", "ca"},
		},
		{
			name: "property matching nothing is a no-op",
			opts: func(fixture) store.DeleteOptions {
				return store.DeleteOptions{Properties: store.Properties{"kind": store.String("z")}}
			},
			wantNodes:     []string{"a", "b", "c"},
			wantRelations: []string{"ab", "bc", "ca"},
		},
		{
			name: "by name cascades source and target",
			opts: func(fixture) store.DeleteOptions {
				return store.DeleteOptions{EntityNames: []string{"a"}}
			},
			want:          store.DeleteResult{Nodes: 1, Relations: 2},
			wantNodes:     []string{"b", "c"},
			wantRelations: []string{"bc"},
		},
		{
			name:  "cascade removes relations that were already dangling",
			ghost: true,
			opts: func(f fixture) store.DeleteOptions {
				return store.DeleteOptions{IDs: []string{f.c.ID}}
			},
			want:          store.DeleteResult{Nodes: 1, Relations: 3},
			wantNodes:     []string{"a", "b"},
			wantRelations: []string{"ab"},
		},
		{
			name:  "node selection matching nothing still removes dangling relations",
			ghost: true,
			opts: func(fixture) store.DeleteOptions {
				return store.DeleteOptions{EntityNames: []string{"nobody"}}
			},
			want:          store.DeleteResult{Relations: 1},
			wantNodes:     []string{"a", "b", "c"},
			wantRelations: []string{"ab", "bc", "ca"},
		},
		{
			name: "by id",
			opts: func(f fixture) store.DeleteOptions {
				return store.DeleteOptions{IDs: []string{f.c.ID}}
			},
			want:          store.DeleteResult{Nodes: 1, Relations: 2},
			wantNodes:     []string{"a", "b"},
			wantRelations: []string{"ab"},
		},
		{
			name: "properties are ANDed within the family",
			opts: func(fixture) store.DeleteOptions {
				return store.DeleteOptions{Properties: store.Properties{"kind": store.String("x"), "tier": store.Int(2)}}
			},
			want:          store.DeleteResult{Nodes: 1, Relations: 2},
			wantNodes:     []string{"a", "c"},
			wantRelations: []string{"ca"},
		},
		{
			name: "families are ORed",
			opts: func(fixture) store.DeleteOptions {
				return store.DeleteOptions{
					EntityNames: []string{"a"},
					Properties:  store.Properties{"kind": store.String("y")},
				}
			},
			want:          store.DeleteResult{Nodes: 2, Relations: 3},
			wantNodes:     []string{"b"},
			wantRelations: []string{},
		},
		{
			name: "relation names only",
			opts: func(fixture) store.DeleteOptions {
				return store.DeleteOptions{RelationNames: []string{"bc"}}
			},
			want:          store.DeleteResult{Relations: 1},
			wantNodes:     []string{"a", "b", "c"},
			wantRelations: []string{"ab", "ca"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
				ctx := context.Background()
				f := seed(t, gs)
				if tt.ghost {
					// Points at a node id that was never stored.
					require.NoError(t, gs.UpsertRelations(ctx, []store.Relation{
						store.NewRelation("ghost", f.b.ID, store.NodeID("", "ghost"), nil),
					}))
				}

				res, err := gs.Delete(ctx, tt.opts(f))
				require.NoError(t, err)
				assert.Equal(t, tt.want, res)

				nodes, err := gs.Get(ctx, store.NodeQuery{})
				require.NoError(t, err)
				assert.Equal(t, tt.wantNodes, sortedNames(nodes))

				rels, err := gs.GetRelations(ctx, store.RelationQuery{})
				require.NoError(t, err)
				assert.Equal(t, tt.wantRelations, sortedLabels(rels))
			})
		})
	}
}

func TestGraphStore_Delete_RemovesPropertyIndex(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()
		a := node("a", map[string]any{"k": "v"})
		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{a}))
		_, err := gs.Delete(ctx, store.DeleteOptions{EntityNames: []string{"a"}})
		require.NoError(t, err)

		// Re-adding without the property must not resurrect the old index row.
		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{node("a", nil)}))
		got, err := gs.Get(ctx, store.NodeQuery{Properties: store.Properties{"k": store.String("v")}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGraphStore_GetTriplets(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()
		a := node("a", map[string]any{"team": "core"})
		b := node("b", nil)
		c := node("c", map[string]any{"team": "core"})
		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{a, b, c}))
		require.NoError(t, gs.UpsertRelations(ctx, []store.Relation{
			store.NewRelation("knows", a.ID, b.ID, nil),
			store.NewRelation("likes", a.ID, c.ID, nil),
			store.NewRelation("knows", b.ID, c.ID, nil),
			store.NewRelation("knows", a.ID, "ghost", nil),
		}))

		tests := []struct {
			name  string
			query store.TripletQuery
			want  []string
		}{
			{"no filters returns materializable triplets", store.TripletQuery{}, []string{"a-knows-b", "a-likes-c", "b-knows-c"}},
			{"source name", store.TripletQuery{EntityNames: []string{"b"}}, []string{"b-knows-c"}},
			{"relation name", store.TripletQuery{RelationNames: []string{"likes"}}, []string{"a-likes-c"}},
			{"name and relation", store.TripletQuery{EntityNames: []string{"a"}, RelationNames: []string{"knows"}}, []string{"a-knows-b"}},
			{"source id", store.TripletQuery{IDs: []string{a.ID}}, []string{"a-knows-b", "a-likes-c"}},
			{"source property", store.TripletQuery{Properties: store.Properties{"team": store.String("core")}}, []string{"a-knows-b", "a-likes-c"}},
			{"target is not matched by default", store.TripletQuery{EntityNames: []string{"c"}}, []string{}},
			{"match target", store.TripletQuery{EntityNames: []string{"c"}, MatchTarget: true}, []string{"a-likes-c", "b-knows-c"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := gs.GetTriplets(ctx, tt.query)
				require.NoError(t, err)
				assert.ElementsMatch(t, tt.want, tripletKeys(got))
			})
		}
	})
}

func TestGraphStore_DeleteRelations(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()
		a, b, c := node("a", nil), node("b", nil), node("c", nil)
		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{a, b, c}))
		require.NoError(t, gs.UpsertRelations(ctx, []store.Relation{
			store.NewRelation("knows", a.ID, b.ID, store.Properties{"since": store.Int(2020)}),
			store.NewRelation("likes", b.ID, c.ID, nil),
			store.NewRelation("knows", c.ID, a.ID, nil),
		}))

		n, err := gs.DeleteRelations(ctx, store.RelationDeleteOptions{})
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = gs.DeleteRelations(ctx, store.RelationDeleteOptions{Properties: store.Properties{"since": store.Int(2020)}})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = gs.DeleteRelations(ctx, store.RelationDeleteOptions{EndpointIDs: []string{c.ID}})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		rels, err := gs.GetRelations(ctx, store.RelationQuery{})
		require.NoError(t, err)
		assert.Empty(t, rels)

		nodes, err := gs.Get(ctx, store.NodeQuery{})
		require.NoError(t, err)
		assert.Len(t, nodes, 3)
	})
}

func TestGraphStore_GetRelations(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()
		a, b := node("a", nil), node("b", nil)
		ab := store.NewRelation("knows", a.ID, b.ID, store.Properties{"w": store.Int(1)})
		ba := store.NewRelation("knows", b.ID, a.ID, nil)
		aa := store.NewRelation("self", a.ID, a.ID, nil)
		require.NoError(t, gs.UpsertRelations(ctx, []store.Relation{ab, ba, aa}))

		got, err := gs.GetRelations(ctx, store.RelationQuery{Labels: []string{"knows"}, SourceIDs: []string{a.ID}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, ab.ID, got[0].ID)

		got, err = gs.GetRelations(ctx, store.RelationQuery{TargetIDs: []string{a.ID}})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = gs.GetRelations(ctx, store.RelationQuery{Properties: store.Properties{"w": store.String("1")}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, ab.ID, got[0].ID)
	})
}

func TestGraphStore_PruneDanglingRelations(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()
		a, b := node("a", nil), node("b", nil)
		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{a, b}))
		require.NoError(t, gs.UpsertRelations(ctx, []store.Relation{
			store.NewRelation("knows", a.ID, b.ID, nil),
			store.NewRelation("knows", a.ID, "ghost", nil),
			store.NewRelation("knows", "ghost", b.ID, nil),
		}))

		st, err := gs.Stats(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, st.DanglingRelations)

		n, err := gs.PruneDanglingRelations(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		rels, err := gs.GetRelations(ctx, store.RelationQuery{})
		require.NoError(t, err)
		require.Len(t, rels, 1)
		assert.Equal(t, store.RelationID("knows", a.ID, b.ID), rels[0].ID)

		n, err = gs.PruneDanglingRelations(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestGraphStore_Stats(t *testing.T) {
	eachDriver(t, func(t *testing.T, gs *sqlite.GraphStore) {
		ctx := context.Background()

		st, err := gs.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, st.Nodes)
		assert.Empty(t, st.NodesByLabel)

		a := store.NewEntityNode("person", "a", nil)
		b := store.NewEntityNode("person", "b", nil)
		c := store.NewEntityNode("place", "c", nil)
		require.NoError(t, gs.UpsertNodes(ctx, []store.EntityNode{a, b, c}))
		require.NoError(t, gs.UpsertRelations(ctx, []store.Relation{
			store.NewRelation("lives_in", a.ID, c.ID, nil),
			store.NewRelation("knows", a.ID, b.ID, nil),
		}))

		st, err = gs.Stats(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, st.Nodes)
		assert.EqualValues(t, 2, st.Relations)
		assert.Zero(t, st.DanglingRelations)
		assert.Equal(t, []store.LabelCount{{Label: "person", Count: 2}, {Label: "place", Count: 1}}, st.NodesByLabel)
		assert.Equal(t, []store.LabelCount{{Label: "knows", Count: 1}, {Label: "lives_in", Count: 1}}, st.RelationsByLabel)
	})
}
