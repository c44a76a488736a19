// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"

	"github.com/sigil-dev/propgraph/internal/store"
)

func init() {
	store.RegisterBackend(DriverCGO, newGraphStore(DriverCGO))
	store.RegisterBackend(DriverPure, newGraphStore(DriverPure))
}

func newGraphStore(driver string) store.GraphStoreFactory {
	return func(ctx context.Context, cfg store.StorageConfig) (store.GraphStore, error) {
		return Open(ctx, driver, cfg)
	}
}
