// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"strings"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// GetTriplets returns one triplet per relation whose source node matches
// the node filters in q (or, with q.MatchTarget, whose target does) and
// whose label is in q.RelationNames when given. Relations with a missing
// endpoint produce no triplet.
func (s *GraphStore) GetTriplets(ctx context.Context, q store.TripletQuery) ([]store.Triplet, error) {
	if err := store.ValidateFilter(q.Properties); err != nil {
		return nil, err
	}

	var (
		clauses []string
		args    []any
	)

	nodePred := store.NodeMatch(q.IDs, q.EntityNames, q.Properties)
	if !store.MatchesAll(nodePred) {
		src, srcArgs, err := compilePredicate(nodePred, "s", s.tables.nodeProps)
		if err != nil {
			return nil, err
		}
		if q.MatchTarget {
			tgt, tgtArgs, err := compilePredicate(nodePred, "t", s.tables.nodeProps)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, "(("+src+") OR ("+tgt+"))")
			args = append(append(args, srcArgs...), tgtArgs...)
		} else {
			clauses = append(clauses, "("+src+")")
			args = append(args, srcArgs...)
		}
	}

	if len(q.RelationNames) > 0 {
		label, labelArgs, err := compilePredicate(store.LabelIn(q.RelationNames), "r", s.tables.relationProps)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, "("+label+")")
		args = append(args, labelArgs...)
	}

	var b strings.Builder
	b.WriteString(`SELECT s.id, s.name, s.label, s.properties,
	r.id, r.label, r.source_id, r.target_id, r.properties,
	t.id, t.name, t.label, t.properties
FROM `)
	b.WriteString(quote(s.tables.relations))
	b.WriteString(" AS r\nJOIN ")
	b.WriteString(quote(s.tables.nodes))
	b.WriteString(" AS s ON s.id = r.source_id\nJOIN ")
	b.WriteString(quote(s.tables.nodes))
	b.WriteString(" AS t ON t.id = r.target_id")
	if len(clauses) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}
	b.WriteString("\nORDER BY r.id")

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "querying triplets")
	}
	defer func() { _ = rows.Close() }()

	triplets := []store.Triplet{}
	for rows.Next() {
		var t store.Triplet
		var srcProps, relProps, tgtProps string
		if err := rows.Scan(
			&t.Source.ID, &t.Source.Name, &t.Source.Label, &srcProps,
			&t.Relation.ID, &t.Relation.Label, &t.Relation.SourceID, &t.Relation.TargetID, &relProps,
			&t.Target.ID, &t.Target.Name, &t.Target.Label, &tgtProps,
		); err != nil {
			return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "scanning triplet")
		}
		if t.Source.Properties, err = decodeProperties(srcProps); err != nil {
			return nil, sigilerr.Wrap(err, sigilerr.CodeStoreQueryFailure, "decoding source properties", sigilerr.FieldNodeID(t.Source.ID))
		}
		if t.Relation.Properties, err = decodeProperties(relProps); err != nil {
			return nil, sigilerr.Wrap(err, sigilerr.CodeStoreQueryFailure, "decoding relation properties", sigilerr.FieldRelationID(t.Relation.ID))
		}
		if t.Target.Properties, err = decodeProperties(tgtProps); err != nil {
			return nil, sigilerr.Wrap(err, sigilerr.CodeStoreQueryFailure, "decoding target properties", sigilerr.FieldNodeID(t.Target.ID))
		}
		triplets = append(triplets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "iterating triplets")
	}
	return triplets, nil
}

// Stats counts nodes and relations, overall and by label.
func (s *GraphStore) Stats(ctx context.Context) (*store.Stats, error) {
	nodes := quote(s.tables.nodes)
	relations := quote(s.tables.relations)

	st := &store.Stats{}
	counts := []struct {
		dst   *int64
		query string
	}{
		{&st.Nodes, "SELECT COUNT(*) FROM " + nodes},
		{&st.Relations, "SELECT COUNT(*) FROM " + relations},
		{&st.DanglingRelations, "SELECT COUNT(*) FROM " + relations + " AS r WHERE " + s.danglingClause()},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "counting graph rows")
		}
	}

	var err error
	if st.NodesByLabel, err = s.countByLabel(ctx, nodes); err != nil {
		return nil, err
	}
	if st.RelationsByLabel, err = s.countByLabel(ctx, relations); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *GraphStore) countByLabel(ctx context.Context, table string) ([]store.LabelCount, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT label, COUNT(*) FROM "+table+" GROUP BY label ORDER BY label")
	if err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "counting labels of %s", table)
	}
	defer func() { _ = rows.Close() }()

	counts := []store.LabelCount{}
	for rows.Next() {
		var lc store.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "scanning label count")
		}
		counts = append(counts, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreQueryFailure, "iterating label counts")
	}
	return counts, nil
}
