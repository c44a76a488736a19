// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

const (
	DefaultBackend       = "sqlite3"
	DefaultNodeTable     = "nodes"
	DefaultRelationTable = "relations"
)

// StorageConfig controls which backend the store factory uses and how it
// connects. It is read once when a store is opened.
type StorageConfig struct {
	Backend           string // "sqlite3" (cgo) or "sqlite" (pure Go); empty uses "sqlite3".
	DSN               string // Database file path or driver DSN.
	NodeTableName     string
	RelationTableName string
	DropExistingTable bool // Drop and recreate both tables on open.
}

// WithDefaults returns a copy of c with empty table names and backend filled in.
func (c StorageConfig) WithDefaults() StorageConfig {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.NodeTableName == "" {
		c.NodeTableName = DefaultNodeTable
	}
	if c.RelationTableName == "" {
		c.RelationTableName = DefaultRelationTable
	}
	return c
}
