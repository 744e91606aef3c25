// Package registry lazily constructs and caches per-room-code Room objects,
// each backed by its own SQLite database file. A room is woken on first
// reference and kept resident for the lifetime of the process.
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"roomforge/internal/room"
	"roomforge/internal/store"
	"roomforge/logging"
)

// Config parameterizes the registry: where room databases live and how
// rooms are configured.
type Config struct {
	DBDir     string
	Publisher logging.Publisher

	// SnapshotEveryTicks and CatchupStepCap pass through to every woken
	// room; zero values take the room defaults.
	SnapshotEveryTicks int
	CatchupStepCap     int
}

// Registry is the process-wide set of resident rooms, keyed by sanitized
// room code.
type Registry struct {
	mu    sync.Mutex
	cfg   Config
	rooms map[string]*room.Room
}

// New returns an empty registry.
func New(cfg Config) *Registry {
	return &Registry{cfg: cfg, rooms: make(map[string]*room.Room)}
}

// Get returns the resident Room for code, waking it (opening its database
// and constructing the controller) on first reference.
func (reg *Registry) Get(ctx context.Context, code string) (*room.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.rooms[code]; ok {
		return r, nil
	}

	path := filepath.Join(reg.cfg.DBDir, code+".sqlite")
	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("registry: open store for room %s: %w", code, err)
	}

	r, err := room.New(ctx, code, st, room.Config{
		Publisher:          reg.cfg.Publisher,
		SnapshotEveryTicks: reg.cfg.SnapshotEveryTicks,
		CatchupStepCap:     reg.cfg.CatchupStepCap,
	}, time.Now())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("registry: wake room %s: %w", code, err)
	}

	reg.rooms[code] = r
	return r, nil
}

// Len reports how many rooms are currently resident, for diagnostics.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}
