package ports

import "context"

// SnapshotStore persists the most recent full snapshot per weave so the
// client can warm-start when the remote service is unreachable. Writes
// are best-effort: the cache store logs and continues when persistence
// fails.
type SnapshotStore interface {
	// Save stores the snapshot for a weave, replacing any previous one.
	// The aggregated view is stored under its own reserved key.
	Save(ctx context.Context, weaveID string, snapshot *RawWeave) error

	// Load returns the stored snapshot for a weave, or a not-found error
	Load(ctx context.Context, weaveID string) (*RawWeave, error)

	// Close releases any resources held by the store
	Close() error
}
