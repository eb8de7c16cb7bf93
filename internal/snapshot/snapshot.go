// Package snapshot holds the computed batch output for serving and,
// optionally, records run history to Postgres. The analytics core itself is
// stateless; everything here is serving-layer plumbing around its output.
package snapshot

import (
	"context"
	"time"

	"github.com/google/uuid"

	"niis/internal/pipeline"
)

// Snapshot is one completed batch run.
type Snapshot struct {
	RunID      uuid.UUID             `json:"run_id"`
	ComputedAt time.Time             `json:"computed_at"`
	Batch      *pipeline.BatchResult `json:"batch"`
}

// New wraps a batch result with a fresh run identity.
func New(batch *pipeline.BatchResult) *Snapshot {
	return &Snapshot{
		RunID:      uuid.New(),
		ComputedAt: time.Now().UTC(),
		Batch:      batch,
	}
}

// Store serves the latest snapshot to the HTTP layer.
type Store interface {
	Put(ctx context.Context, snap *Snapshot) error
	Latest(ctx context.Context) (*Snapshot, error)
}

// Recorder persists an audit trail of runs. Recording failures are logged by
// callers, never fatal; serving continues from memory.
type Recorder interface {
	Record(ctx context.Context, snap *Snapshot) error
}
