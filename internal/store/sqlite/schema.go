// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"fmt"
	"regexp"

	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// identPattern restricts configurable table names to plain SQL identifiers.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// propertiesSuffix names the property-index table kept beside each graph table.
const propertiesSuffix = "_properties"

// Schema templates. %[1]s is the quoted table name, %[2]s the bare name
// used to build index names.

const schemaNodes = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	label      TEXT NOT NULL,
	properties TEXT NOT NULL DEFAULT '{}' CHECK (json_valid(properties))
)`

const schemaRelations = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id         TEXT PRIMARY KEY,
	label      TEXT NOT NULL,
	source_id  TEXT NOT NULL,
	target_id  TEXT NOT NULL,
	properties TEXT NOT NULL DEFAULT '{}' CHECK (json_valid(properties))
)`

// A NULL value records a property that is present with a null value.
const schemaProperties = `
CREATE TABLE IF NOT EXISTS %[1]s (
	owner_id TEXT NOT NULL,
	key      TEXT NOT NULL,
	value    TEXT,
	PRIMARY KEY (owner_id, key)
) WITHOUT ROWID`

const (
	indexNodesName         = `CREATE INDEX IF NOT EXISTS "idx_%[2]s_name" ON %[1]s(name)`
	indexNodesLabel        = `CREATE INDEX IF NOT EXISTS "idx_%[2]s_label" ON %[1]s(label)`
	indexRelationsSource   = `CREATE INDEX IF NOT EXISTS "idx_%[2]s_source_id" ON %[1]s(source_id)`
	indexRelationsTarget   = `CREATE INDEX IF NOT EXISTS "idx_%[2]s_target_id" ON %[1]s(target_id)`
	indexRelationsLabel    = `CREATE INDEX IF NOT EXISTS "idx_%[2]s_label" ON %[1]s(label)`
	indexPropertiesKeyVals = `CREATE INDEX IF NOT EXISTS "idx_%[2]s_key_value" ON %[1]s(key, value)`
)

// tables holds the four table names a graph store owns.
type tables struct {
	nodes         string
	relations     string
	nodeProps     string
	relationProps string
}

func newTables(nodeTable, relationTable string) (tables, error) {
	t := tables{
		nodes:         nodeTable,
		relations:     relationTable,
		nodeProps:     nodeTable + propertiesSuffix,
		relationProps: relationTable + propertiesSuffix,
	}

	for _, name := range []string{nodeTable, relationTable} {
		if !identPattern.MatchString(name) {
			return tables{}, sigilerr.New(sigilerr.CodeStoreConfigInvalid,
				"table name is not a valid SQL identifier",
				sigilerr.FieldTable(name),
			)
		}
	}

	seen := make(map[string]struct{}, 4)
	for _, name := range t.all() {
		if _, dup := seen[name]; dup {
			return tables{}, sigilerr.New(sigilerr.CodeStoreConfigInvalid,
				"node and relation tables must have distinct names",
				sigilerr.FieldTable(name),
			)
		}
		seen[name] = struct{}{}
	}
	return t, nil
}

func (t tables) all() []string {
	return []string{t.nodes, t.relations, t.nodeProps, t.relationProps}
}

// quote renders an identifier already checked against identPattern.
func quote(name string) string {
	return `"` + name + `"`
}

func render(tmpl, table string) string {
	return fmt.Sprintf(tmpl, quote(table), table)
}

func (t tables) schemaStatements() []string {
	return []string{
		render(schemaNodes, t.nodes),
		render(schemaRelations, t.relations),
		render(schemaProperties, t.nodeProps),
		render(schemaProperties, t.relationProps),
		render(indexNodesName, t.nodes),
		render(indexNodesLabel, t.nodes),
		render(indexRelationsSource, t.relations),
		render(indexRelationsTarget, t.relations),
		render(indexRelationsLabel, t.relations),
		render(indexPropertiesKeyVals, t.nodeProps),
		render(indexPropertiesKeyVals, t.relationProps),
	}
}

// EnsureSchema creates the graph tables and their indexes if absent.
func (s *GraphStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.tables.schemaStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return sigilerr.Wrapf(err, sigilerr.CodeStoreSchemaFailure, "creating graph schema")
		}
	}
	return nil
}

// ResetSchema drops every graph table and recreates it empty.
func (s *GraphStore) ResetSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeStoreSchemaFailure, "beginning schema reset")
	}
	defer s.rollback(ctx, tx, "ResetSchema")

	for _, name := range s.tables.all() {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(name)); err != nil {
			return sigilerr.Wrap(err, sigilerr.CodeStoreSchemaFailure, "dropping graph table", sigilerr.FieldTable(name))
		}
	}
	for _, stmt := range s.tables.schemaStatements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return sigilerr.Wrapf(err, sigilerr.CodeStoreSchemaFailure, "recreating graph schema")
		}
	}

	if err := tx.Commit(); err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeStoreSchemaFailure, "committing schema reset")
	}
	s.logger.InfoContext(ctx, "graph schema reset",
		"node_table", s.tables.nodes,
		"relation_table", s.tables.relations,
	)
	return nil
}
