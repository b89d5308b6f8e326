package storage

import (
	"context"

	"ringba-rpc-monitor/models"
)

// SnapshotStore is a keyed store of run snapshots, at most one per time
// slot. Put overwrites any existing snapshot for the slot; Get returns
// found=false for an empty slot. No retry lives here; failures are reported
// to the orchestrator.
type SnapshotStore interface {
	Put(ctx context.Context, snap models.Snapshot) error
	Get(ctx context.Context, timeSlot string) (models.Snapshot, bool, error)
	Close() error
}
