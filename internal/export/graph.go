// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package export renders graph snapshots as documents, Graphviz sources,
// rendered images and interactive HTML pages. It reads through
// store.GraphReader only and never writes to the store.
package export

import (
	"context"

	"github.com/sigil-dev/propgraph/internal/store"
)

// Graph is a point-in-time copy of every node and relation in a store.
type Graph struct {
	Nodes     []store.EntityNode
	Relations []store.Relation
}

// Snapshot reads the full contents of r.
func Snapshot(ctx context.Context, r store.GraphReader) (*Graph, error) {
	nodes, err := r.Get(ctx, store.NodeQuery{})
	if err != nil {
		return nil, err
	}
	relations, err := r.GetRelations(ctx, store.RelationQuery{})
	if err != nil {
		return nil, err
	}
	return &Graph{Nodes: nodes, Relations: relations}, nil
}

// resolved returns the relations whose endpoints are both present in g,
// the same rule triplet assembly applies.
func (g *Graph) resolved() []store.Relation {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}

	out := make([]store.Relation, 0, len(g.Relations))
	for _, r := range g.Relations {
		_, src := ids[r.SourceID]
		_, tgt := ids[r.TargetID]
		if src && tgt {
			out = append(out, r)
		}
	}
	return out
}
