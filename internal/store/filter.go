// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

// Predicate is a backend-neutral row selection condition over the node or
// relation table. Backends translate predicates into their query language.
type Predicate interface {
	predicate()
}

// IDIn matches rows whose id is one of the listed values.
type IDIn []string

// NameIn matches nodes whose name is one of the listed values.
type NameIn []string

// LabelIn matches rows whose label is one of the listed values.
type LabelIn []string

// SourceIn matches relations whose source_id is one of the listed values.
type SourceIn []string

// TargetIn matches relations whose target_id is one of the listed values.
type TargetIn []string

// PropertyEquals matches rows whose property Key has the normalized text
// of Value. A null Value matches only rows that store Key as null; rows
// without Key never match.
type PropertyEquals struct {
	Key   string
	Value Value
}

// And matches rows satisfying every child. An empty And matches every row.
type And []Predicate

// Or matches rows satisfying at least one child. An empty Or matches no row.
type Or []Predicate

func (IDIn) predicate()           {}
func (NameIn) predicate()         {}
func (LabelIn) predicate()        {}
func (SourceIn) predicate()       {}
func (TargetIn) predicate()       {}
func (PropertyEquals) predicate() {}
func (And) predicate()            {}
func (Or) predicate()             {}

// MatchesAll reports whether p is the unconstrained predicate.
func MatchesAll(p Predicate) bool {
	and, ok := p.(And)
	return ok && len(and) == 0
}

// MatchesNone reports whether p can select nothing.
func MatchesNone(p Predicate) bool {
	or, ok := p.(Or)
	return ok && len(or) == 0
}

// NodeMatch builds the conjunctive node filter used by reads: id in ids,
// name in names, and every property equality. Absent families are skipped.
func NodeMatch(ids, names []string, props Properties) Predicate {
	and := And{}
	if len(ids) > 0 {
		and = append(and, IDIn(ids))
	}
	if len(names) > 0 {
		and = append(and, NameIn(names))
	}
	return append(and, propertyConjunction(props)...)
}

// NodeDeletion builds the node selection used by deletes. Name, id and
// property families are independent criteria combined with OR; the
// property family itself requires every pair to match.
func NodeDeletion(names, ids []string, props Properties) Predicate {
	or := Or{}
	if len(names) > 0 {
		or = append(or, NameIn(names))
	}
	if len(ids) > 0 {
		or = append(or, IDIn(ids))
	}
	if len(props) > 0 {
		or = append(or, And(propertyConjunction(props)))
	}
	return or
}

// RelationMatch builds the conjunctive relation filter for q.
func RelationMatch(q RelationQuery) Predicate {
	and := And{}
	if len(q.IDs) > 0 {
		and = append(and, IDIn(q.IDs))
	}
	if len(q.Labels) > 0 {
		and = append(and, LabelIn(q.Labels))
	}
	if len(q.SourceIDs) > 0 {
		and = append(and, SourceIn(q.SourceIDs))
	}
	if len(q.TargetIDs) > 0 {
		and = append(and, TargetIn(q.TargetIDs))
	}
	return append(and, propertyConjunction(q.Properties)...)
}

// RelationDeletion builds the disjunctive relation selection for opts.
func RelationDeletion(opts RelationDeleteOptions) Predicate {
	or := Or{}
	if len(opts.IDs) > 0 {
		or = append(or, IDIn(opts.IDs))
	}
	if len(opts.Labels) > 0 {
		or = append(or, LabelIn(opts.Labels))
	}
	if len(opts.EndpointIDs) > 0 {
		or = append(or, SourceIn(opts.EndpointIDs), TargetIn(opts.EndpointIDs))
	}
	if len(opts.Properties) > 0 {
		or = append(or, And(propertyConjunction(opts.Properties)))
	}
	return or
}

// propertyConjunction returns one PropertyEquals per key, in key order so
// the generated query text is stable.
func propertyConjunction(props Properties) []Predicate {
	if len(props) == 0 {
		return nil
	}
	preds := make([]Predicate, 0, len(props))
	for _, k := range props.Keys() {
		preds = append(preds, PropertyEquals{Key: k, Value: props[k]})
	}
	return preds
}
