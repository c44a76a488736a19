// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// UpsertNodes inserts or replaces nodes keyed by their derived id. The
// batch is validated up front and written in one transaction.
func (s *GraphStore) UpsertNodes(ctx context.Context, nodes []store.EntityNode) error {
	if len(nodes) == 0 {
		return nil
	}

	batch := make([]store.EntityNode, len(nodes))
	for i, n := range nodes {
		if err := n.Normalize(); err != nil {
			return err
		}
		batch[i] = n
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeStoreNodeUpsertFailure, "beginning node transaction")
	}
	defer s.rollback(ctx, tx, "UpsertNodes")

	upsert := `INSERT INTO ` + quote(s.tables.nodes) + ` (id, name, label, properties)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	label = excluded.label,
	properties = excluded.properties`

	for _, n := range batch {
		props, err := encodeProperties(n.Properties)
		if err != nil {
			return sigilerr.Wrap(err, sigilerr.CodeStoreNodeUpsertFailure, "encoding node properties", sigilerr.FieldNodeID(n.ID))
		}
		if _, err := tx.ExecContext(ctx, upsert, n.ID, n.Name, n.Label, props); err != nil {
			return sigilerr.Wrap(err, sigilerr.CodeStoreNodeUpsertFailure, "upserting node", sigilerr.FieldNodeID(n.ID))
		}
		if err := replaceProperties(ctx, tx, s.tables.nodeProps, n.ID, n.Properties); err != nil {
			return sigilerr.Wrap(err, sigilerr.CodeStoreNodeUpsertFailure, "indexing node properties", sigilerr.FieldNodeID(n.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeStoreNodeUpsertFailure, "committing %d nodes", len(batch))
	}
	s.logger.DebugContext(ctx, "nodes upserted", "count", len(batch), "table", s.tables.nodes)
	return nil
}

// Get returns the nodes whose id is in q.IDs and whose properties match
// every entry of q.Properties. An empty query returns every node.
func (s *GraphStore) Get(ctx context.Context, q store.NodeQuery) ([]store.EntityNode, error) {
	if err := store.ValidateFilter(q.Properties); err != nil {
		return nil, err
	}
	return s.selectNodes(ctx, s.db, store.NodeMatch(q.IDs, nil, q.Properties))
}

func (s *GraphStore) selectNodes(ctx context.Context, q queryer, pred store.Predicate) ([]store.EntityNode, error) {
	where, args, err := compilePredicate(pred, "n", s.tables.nodeProps)
	if err != nil {
		return nil, err
	}

	query := "SELECT n.id, n.name, n.label, n.properties FROM " + quote(s.tables.nodes) +
		" AS n WHERE " + where + " ORDER BY n.id"
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "querying nodes")
	}
	defer func() { _ = rows.Close() }()

	nodes := []store.EntityNode{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "iterating nodes")
	}
	return nodes, nil
}

func scanNode(rows *sql.Rows) (store.EntityNode, error) {
	var (
		n     store.EntityNode
		props string
	)
	if err := rows.Scan(&n.ID, &n.Name, &n.Label, &props); err != nil {
		return n, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "scanning node")
	}
	p, err := decodeProperties(props)
	if err != nil {
		return n, sigilerr.Wrap(err, sigilerr.CodeStoreQueryFailure, "decoding node properties", sigilerr.FieldNodeID(n.ID))
	}
	n.Properties = p
	return n, nil
}

// Delete removes the nodes selected by opts, then every relation whose
// source or target no longer resolves to a stored node, plus any relation
// labeled with one of opts.RelationNames. The dangling check covers the
// whole relation table, not only rows touching this call's nodes.
// Everything happens in one transaction. Options with no family set
// delete nothing.
func (s *GraphStore) Delete(ctx context.Context, opts store.DeleteOptions) (store.DeleteResult, error) {
	var res store.DeleteResult
	if err := store.ValidateFilter(opts.Properties); err != nil {
		return res, err
	}

	nodePred := store.NodeDeletion(opts.EntityNames, opts.IDs, opts.Properties)
	if store.MatchesNone(nodePred) && len(opts.RelationNames) == 0 {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "beginning delete transaction")
	}
	defer s.rollback(ctx, tx, "Delete")

	relPred := store.Or{}
	if !store.MatchesNone(nodePred) {
		where, args, err := compilePredicate(nodePred, "n", s.tables.nodeProps)
		if err != nil {
			return res, err
		}
		nodeIDs, err := collectIDs(ctx, tx, "SELECT n.id FROM "+quote(s.tables.nodes)+" AS n WHERE "+where, args)
		if err != nil {
			return res, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "selecting nodes to delete")
		}
		if _, err := deleteByIDs(ctx, tx, s.tables.nodeProps, "owner_id", nodeIDs); err != nil {
			return res, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "deleting node properties")
		}
		if res.Nodes, err = deleteByIDs(ctx, tx, s.tables.nodes, "id", nodeIDs); err != nil {
			return res, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "deleting nodes")
		}

		// Nodes are gone at this point, so dangling is judged against the
		// post-delete node table.
		dangling, err := collectIDs(ctx, tx, "SELECT r.id FROM "+quote(s.tables.relations)+" AS r WHERE "+s.danglingClause(), nil)
		if err != nil {
			return res, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "selecting dangling relations")
		}
		if len(dangling) > 0 {
			relPred = append(relPred, store.IDIn(dangling))
		}
	}
	if len(opts.RelationNames) > 0 {
		relPred = append(relPred, store.LabelIn(opts.RelationNames))
	}
	if res.Relations, err = s.deleteRelations(ctx, tx, relPred); err != nil {
		return res, err
	}

	if err := tx.Commit(); err != nil {
		return store.DeleteResult{}, sigilerr.Wrapf(err, sigilerr.CodeStoreDeleteFailure, "committing delete")
	}
	s.logger.DebugContext(ctx, "nodes deleted",
		"count", res.Nodes,
		"relations", res.Relations,
		"table", s.tables.nodes,
	)
	return res, nil
}
