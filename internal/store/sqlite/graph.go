// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// Driver names registered with database/sql.
const (
	DriverCGO  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

const memoryDSN = ":memory:"

// Compile-time interface check.
var _ store.GraphStore = (*GraphStore)(nil)

// GraphStore implements store.GraphStore on SQLite. Nodes and relations
// live in two tables with their properties held as JSON documents; each
// table has a property-index side table used by filters.
type GraphStore struct {
	db     *sql.DB
	driver string
	tables tables
	logger *slog.Logger
}

// Option configures a GraphStore.
type Option func(*GraphStore)

// WithLogger sets the logger used for write batches and rollback failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *GraphStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open connects to the SQLite database named by cfg.DSN through driver and
// prepares the schema. With cfg.DropExistingTable the tables are dropped
// and recreated; otherwise they are created only if absent.
func Open(ctx context.Context, driver string, cfg store.StorageConfig, opts ...Option) (*GraphStore, error) {
	cfg = cfg.WithDefaults()

	if driver != DriverCGO && driver != DriverPure {
		return nil, sigilerr.New(sigilerr.CodeStoreBackendUnsupported,
			"unknown sqlite driver", sigilerr.FieldBackend(driver))
	}
	if cfg.DSN == "" {
		return nil, sigilerr.New(sigilerr.CodeStoreConfigInvalid, "storage dsn must not be empty")
	}
	t, err := newTables(cfg.NodeTableName, cfg.RelationTableName)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsnFor(driver, cfg.DSN))
	if err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeStoreConnectionFailure, "opening sqlite db", sigilerr.FieldBackend(driver))
	}
	if isMemory(cfg.DSN) {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, sigilerr.Wrap(err, sigilerr.CodeStoreConnectionFailure, "pinging sqlite db", sigilerr.FieldBackend(driver))
	}

	s := &GraphStore{db: db, driver: driver, tables: t, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.DropExistingTable {
		err = s.ResetSchema(ctx)
	} else {
		err = s.EnsureSchema(ctx)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// dsnFor appends WAL and busy-timeout settings in the driver's own DSN
// syntax. A DSN that already carries a query string is used as given.
func dsnFor(driver, dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	if driver == DriverPure {
		return dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	return dsn + "?_journal_mode=WAL&_busy_timeout=5000"
}

func isMemory(dsn string) bool {
	return dsn == memoryDSN || strings.HasPrefix(dsn, memoryDSN+"?") || strings.Contains(dsn, "mode=memory")
}

// Driver reports the database/sql driver name in use.
func (s *GraphStore) Driver() string { return s.driver }

// Close closes the underlying database connection.
func (s *GraphStore) Close() error {
	return s.db.Close()
}

// rollback is deferred after BeginTx. It is a no-op once the transaction
// has committed.
func (s *GraphStore) rollback(ctx context.Context, tx *sql.Tx, op string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.ErrorContext(ctx, op+" rollback failed", "error", err)
	}
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// collectIDs runs a single-column query and returns every value. Rows are
// closed before returning so the connection can be reused in the same tx.
func collectIDs(ctx context.Context, q queryer, query string, args []any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func encodeProperties(p store.Properties) (string, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeProperties(raw string) (store.Properties, error) {
	if raw == "" || raw == "{}" {
		return store.Properties{}, nil
	}
	var p store.Properties
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	return p, nil
}

// replaceProperties rewrites the property-index rows for one owner.
func replaceProperties(ctx context.Context, tx *sql.Tx, table, ownerID string, p store.Properties) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+quote(table)+" WHERE owner_id = ?", ownerID); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}

	insert := "INSERT INTO " + quote(table) + " (owner_id, key, value) VALUES (?, ?, ?)"
	for _, k := range p.Keys() {
		var value any
		if text, ok := p[k].Text(); ok {
			value = text
		}
		if _, err := tx.ExecContext(ctx, insert, ownerID, k, value); err != nil {
			return err
		}
	}
	return nil
}

// deleteByIDs removes rows of table whose column value is in ids, binding
// the set as one JSON array.
func deleteByIDs(ctx context.Context, q queryer, table, column string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	arg, err := jsonArray(ids)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx,
		"DELETE FROM "+quote(table)+" WHERE "+column+" IN (SELECT value FROM json_each(?))", arg)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func jsonArray(values []string) (string, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
