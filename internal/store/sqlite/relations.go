// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// UpsertRelations inserts or replaces relations keyed by their derived id.
// Endpoints are not checked; a relation may be written before its nodes.
func (s *GraphStore) UpsertRelations(ctx context.Context, relations []store.Relation) error {
	if len(relations) == 0 {
		return nil
	}

	batch := make([]store.Relation, len(relations))
	for i, r := range relations {
		if err := r.Normalize(); err != nil {
			return err
		}
		batch[i] = r
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeStoreRelationUpsertFailure, "beginning relation transaction")
	}
	defer s.rollback(ctx, tx, "UpsertRelations")

	upsert := `INSERT INTO ` + quote(s.tables.relations) + ` (id, label, source_id, target_id, properties)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	label = excluded.label,
	source_id = excluded.source_id,
	target_id = excluded.target_id,
	properties = excluded.properties`

	for _, r := range batch {
		props, err := encodeProperties(r.Properties)
		if err != nil {
			return sigilerr.Wrap(err, sigilerr.CodeStoreRelationUpsertFailure, "encoding relation properties", sigilerr.FieldRelationID(r.ID))
		}
		if _, err := tx.ExecContext(ctx, upsert, r.ID, r.Label, r.SourceID, r.TargetID, props); err != nil {
			return sigilerr.Wrap(err, sigilerr.CodeStoreRelationUpsertFailure, "upserting relation", sigilerr.FieldRelationID(r.ID))
		}
		if err := replaceProperties(ctx, tx, s.tables.relationProps, r.ID, r.Properties); err != nil {
			return sigilerr.Wrap(err, sigilerr.CodeStoreRelationUpsertFailure, "indexing relation properties", sigilerr.FieldRelationID(r.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeStoreRelationUpsertFailure, "committing %d relations", len(batch))
	}
	s.logger.DebugContext(ctx, "relations upserted", "count", len(batch), "table", s.tables.relations)
	return nil
}

// GetRelations returns relations matching every family set in q, ordered by id.
func (s *GraphStore) GetRelations(ctx context.Context, q store.RelationQuery) ([]store.Relation, error) {
	if err := store.ValidateFilter(q.Properties); err != nil {
		return nil, err
	}

	where, args, err := compilePredicate(store.RelationMatch(q), "r", s.tables.relationProps)
	if err != nil {
		return nil, err
	}

	query := "SELECT r.id, r.label, r.source_id, r.target_id, r.properties FROM " +
		quote(s.tables.relations) + " AS r WHERE " + where + " ORDER BY r.id"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "querying relations")
	}
	defer func() { _ = rows.Close() }()

	relations := []store.Relation{}
	for rows.Next() {
		var (
			r     store.Relation
			props string
		)
		if err := rows.Scan(&r.ID, &r.Label, &r.SourceID, &r.TargetID, &props); err != nil {
			return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "scanning relation")
		}
		if r.Properties, err = decodeProperties(props); err != nil {
			return nil, sigilerr.Wrap(err, sigilerr.CodeStoreQueryFailure, "decoding relation properties", sigilerr.FieldRelationID(r.ID))
		}
		relations = append(relations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "iterating relations")
	}
	return relations, nil
}

// DeleteRelations removes relations matching any family set in opts and
// reports how many were deleted.
func (s *GraphStore) DeleteRelations(ctx context.Context, opts store.RelationDeleteOptions) (int64, error) {
	if err := store.ValidateFilter(opts.Properties); err != nil {
		return 0, err
	}

	pred := store.RelationDeletion(opts)
	if store.MatchesNone(pred) {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "beginning relation delete transaction")
	}
	defer s.rollback(ctx, tx, "DeleteRelations")

	n, err := s.deleteRelations(ctx, tx, pred)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "committing relation delete")
	}
	s.logger.DebugContext(ctx, "relations deleted", "count", n, "table", s.tables.relations)
	return n, nil
}

// PruneDanglingRelations removes relations whose source or target node is
// not stored.
func (s *GraphStore) PruneDanglingRelations(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "beginning prune transaction")
	}
	defer s.rollback(ctx, tx, "PruneDanglingRelations")

	ids, err := collectIDs(ctx, tx, "SELECT r.id FROM "+quote(s.tables.relations)+" AS r WHERE "+s.danglingClause(), nil)
	if err != nil {
		return 0, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "selecting dangling relations")
	}

	n, err := s.deleteRelations(ctx, tx, store.IDIn(ids))
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "committing prune")
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "pruned dangling relations", "count", n, "table", s.tables.relations)
	}
	return n, nil
}

// danglingClause matches relations aliased r with a missing endpoint.
func (s *GraphStore) danglingClause() string {
	nodes := quote(s.tables.nodes)
	return "NOT EXISTS (SELECT 1 FROM " + nodes + " AS src WHERE src.id = r.source_id)" +
		" OR NOT EXISTS (SELECT 1 FROM " + nodes + " AS tgt WHERE tgt.id = r.target_id)"
}

// deleteRelations removes the relations selected by pred, with their
// property-index rows, inside tx.
func (s *GraphStore) deleteRelations(ctx context.Context, tx *sql.Tx, pred store.Predicate) (int64, error) {
	if store.MatchesNone(pred) {
		return 0, nil
	}

	where, args, err := compilePredicate(pred, "r", s.tables.relationProps)
	if err != nil {
		return 0, err
	}
	ids, err := collectIDs(ctx, tx, "SELECT r.id FROM "+quote(s.tables.relations)+" AS r WHERE "+where, args)
	if err != nil {
		return 0, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "selecting relations to delete")
	}

	if _, err := deleteByIDs(ctx, tx, s.tables.relationProps, "owner_id", ids); err != nil {
		return 0, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "deleting relation properties")
	}
	n, err := deleteByIDs(ctx, tx, s.tables.relations, "id", ids)
	if err != nil {
		return 0, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "deleting relations")
	}
	return n, nil
}
