// Package badgerstore persists the most recent full snapshot per weave
// in an embedded BadgerDB, letting the client warm-start with stale but
// usable data when the remote service is unreachable.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"weaveclient/application/ports"
	pkgerrors "weaveclient/pkg/errors"
)

// Key prefix for snapshot entries
const prefixSnapshot = "s:"

// SnapshotStore is a BadgerDB-backed implementation of the snapshot
// persistence port
type SnapshotStore struct {
	db     *badger.DB
	logger *zap.Logger
	mu     sync.Mutex
	closed bool
}

// Open opens or creates the snapshot database at the given path
func Open(path string, logger *zap.Logger) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	return &SnapshotStore{db: db, logger: logger}, nil
}

// Save stores the snapshot for a weave, replacing any previous one
func (s *SnapshotStore) Save(ctx context.Context, weaveID string, snapshot *ports.RawWeave) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot == nil {
		return pkgerrors.NewValidationError("snapshot cannot be nil")
	}

	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.NewInternalError("encoding snapshot", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(weaveID), encoded)
	})
	if err != nil {
		return fmt.Errorf("writing snapshot for %s: %w", weaveID, err)
	}

	s.logger.Debug("snapshot persisted",
		zap.String("weaveID", weaveID),
		zap.Int("bytes", len(encoded)),
	)
	return nil
}

// Load returns the stored snapshot for a weave
func (s *SnapshotStore) Load(ctx context.Context, weaveID string) (*ports.RawWeave, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snapshot ports.RawWeave
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(weaveID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snapshot)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, pkgerrors.NewNotFoundError("snapshot")
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot for %s: %w", weaveID, err)
	}
	return &snapshot, nil
}

// Close releases the underlying database
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func snapshotKey(weaveID string) []byte {
	return []byte(prefixSnapshot + weaveID)
}
