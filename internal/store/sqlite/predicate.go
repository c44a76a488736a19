// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"fmt"
	"strings"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// maxInlineParams is the largest IN set bound as individual parameters.
// Larger sets are bound as one JSON array and expanded with json_each.
const maxInlineParams = 64

// compiler translates a store.Predicate into a WHERE fragment over one
// table alias. Arguments accumulate in the order placeholders appear.
type compiler struct {
	alias string
	props string
	args  []any
}

// compilePredicate renders p against alias. propsTable is the property
// index table of the aliased table.
func compilePredicate(p store.Predicate, alias, propsTable string) (string, []any, error) {
	c := &compiler{alias: alias, props: quote(propsTable)}
	where, err := c.compile(p)
	if err != nil {
		return "", nil, err
	}
	return where, c.args, nil
}

func (c *compiler) compile(p store.Predicate) (string, error) {
	switch p := p.(type) {
	case store.IDIn:
		return c.in("id", p)
	case store.NameIn:
		return c.in("name", p)
	case store.LabelIn:
		return c.in("label", p)
	case store.SourceIn:
		return c.in("source_id", p)
	case store.TargetIn:
		return c.in("target_id", p)
	case store.PropertyEquals:
		return c.property(p)
	case store.And:
		return c.join(p, " AND ", "1 = 1")
	case store.Or:
		return c.join(p, " OR ", "1 = 0")
	case nil:
		return "1 = 1", nil
	default:
		return "", sigilerr.Errorf(sigilerr.CodeStoreQueryInvalid, "unsupported predicate %T", p)
	}
}

func (c *compiler) column(name string) string {
	return c.alias + "." + name
}

func (c *compiler) in(column string, values []string) (string, error) {
	if len(values) == 0 {
		return "1 = 0", nil
	}

	if len(values) > maxInlineParams {
		arg, err := jsonArray(values)
		if err != nil {
			return "", sigilerr.Wrapf(err, sigilerr.CodeStoreQueryInvalid, "encoding %s set", column)
		}
		c.args = append(c.args, arg)
		return c.column(column) + " IN (SELECT value FROM json_each(?))", nil
	}

	for _, v := range values {
		c.args = append(c.args, v)
	}
	return c.column(column) + " IN (" + placeholders(len(values)) + ")", nil
}

func (c *compiler) property(p store.PropertyEquals) (string, error) {
	if p.Key == "" {
		return "", sigilerr.New(sigilerr.CodeStoreQueryInvalid, "property filter key must not be empty")
	}

	text, ok := p.Value.Text()
	if !ok {
		// Null is indexed as a NULL value; an absent key has no row.
		c.args = append(c.args, p.Key)
		return fmt.Sprintf("%s IN (SELECT owner_id FROM %s WHERE key = ? AND value IS NULL)",
			c.column("id"), c.props), nil
	}

	c.args = append(c.args, p.Key, text)
	return fmt.Sprintf("%s IN (SELECT owner_id FROM %s WHERE key = ? AND value = ?)",
		c.column("id"), c.props), nil
}

func (c *compiler) join(children []store.Predicate, op, empty string) (string, error) {
	if len(children) == 0 {
		return empty, nil
	}
	if len(children) == 1 {
		return c.compile(children[0])
	}

	parts := make([]string, 0, len(children))
	for _, child := range children {
		part, err := c.compile(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+part+")")
	}
	return strings.Join(parts, op), nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
