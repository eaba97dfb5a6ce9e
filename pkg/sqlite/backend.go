// Package sqlite provides the public API for the SQLite taxa store.
// It exposes the factory for creating backends while keeping the
// implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/taxa/internal/sqlite"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// Backend is a taxa store with an attach and detach lifecycle.
type Backend interface {
	types.Store
	Attach(config types.Config) error
	Detach() error
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".taxa",
//	})
//	defer backend.Detach()
func NewBackend() Backend {
	return sqlite.NewBackend()
}
