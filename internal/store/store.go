// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import "context"

// GraphReader is the read side of a graph store. Export and visualization
// consumers depend only on this.
type GraphReader interface {
	Get(ctx context.Context, q NodeQuery) ([]EntityNode, error)
	GetRelations(ctx context.Context, q RelationQuery) ([]Relation, error)
	GetTriplets(ctx context.Context, q TripletQuery) ([]Triplet, error)
	Stats(ctx context.Context) (*Stats, error)
}

// GraphStore persists entity nodes and the relations between them.
type GraphStore interface {
	GraphReader

	// Schema management.
	EnsureSchema(ctx context.Context) error
	ResetSchema(ctx context.Context) error

	// Writes. Each call is one transaction.
	UpsertNodes(ctx context.Context, nodes []EntityNode) error
	UpsertRelations(ctx context.Context, relations []Relation) error

	// Delete removes the selected nodes, then every relation left with a
	// missing endpoint.
	Delete(ctx context.Context, opts DeleteOptions) (DeleteResult, error)
	DeleteRelations(ctx context.Context, opts RelationDeleteOptions) (int64, error)
	PruneDanglingRelations(ctx context.Context) (int64, error)

	Close() error
}
