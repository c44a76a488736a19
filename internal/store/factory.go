// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"context"
	"sort"
	"sync"

	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// GraphStoreFactory opens a graph store for the given configuration.
// The configuration has defaults applied before the factory is called.
type GraphStoreFactory func(ctx context.Context, cfg StorageConfig) (GraphStore, error)

var (
	graphFactories = map[string]GraphStoreFactory{}
	factoriesMu    sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f GraphStoreFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	graphFactories[name] = f
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(graphFactories))
	for name := range graphFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the graph store selected by cfg.Backend.
func Open(ctx context.Context, cfg *StorageConfig) (GraphStore, error) {
	resolved := cfg.WithDefaults()

	factoriesMu.RLock()
	factory, ok := graphFactories[resolved.Backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, sigilerr.Errorf(sigilerr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", resolved.Backend)
	}

	return factory(ctx, resolved)
}
