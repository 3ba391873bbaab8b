package store

import (
	"context"

	"worldforge/internal/world"
)

// Store archives named world snapshots.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	// SaveWorld inserts or replaces the snapshot stored under name.
	SaveWorld(ctx context.Context, name string, m *world.WorldModel) error
	// LoadWorld returns nil and no error when name is not archived.
	LoadWorld(ctx context.Context, name string) (*world.WorldModel, error)
	ListWorlds(ctx context.Context) ([]WorldSummary, error)
	// DeleteWorld reports whether a snapshot was removed.
	DeleteWorld(ctx context.Context, name string) (bool, error)
}
