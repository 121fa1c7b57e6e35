// Package store holds the client-side weave cache: the canonical
// node/edge/cluster maps, the active weave identity, selection and
// camera-focus state, and the merge machinery that applies full
// snapshots and partial segments without losing previously known state.
//
// A CacheStore is an explicit instance owned by the composition root,
// never a package-level singleton, so independent caches can coexist
// (one per view, one per test).
package store

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"weaveclient/application/ports"
	"weaveclient/domain/core/aggregates"
	"weaveclient/domain/core/valueobjects"
	pkgerrors "weaveclient/pkg/errors"
)

// aggregateSnapshotKey is the reserved snapshot-store key for the
// read-only cross-weave view.
const aggregateSnapshotKey = "__aggregate__"

// WeaveSummary is the listing entry for an available weave
type WeaveSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Domain    string `json:"domain,omitempty"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// CacheStore is the reactive container for the cached weave projection.
// All state transitions are atomic with respect to the in-memory state;
// asynchronous boundaries exist only around remote calls. Every remote
// call captures a request generation at invocation time and applies its
// result only while that generation is still current, so the newest
// request deterministically wins over a slower, older one.
type CacheStore struct {
	service   ports.WeaveService
	snapshots ports.SnapshotStore
	logger    *zap.Logger
	validate  *validator.Validate

	mu                sync.RWMutex
	weave             *aggregates.Weave
	available         []WeaveSummary
	activeWeaveID     string
	readOnly          bool
	loading           bool
	errMsg            string
	clusteringEnabled bool
	clusterRecords    []aggregates.Cluster
	lastSnapshot      *ports.RawWeave
	selectedNodes     map[string]struct{}
	selectedEdges     map[string]struct{}
	focusTarget       *valueobjects.FocusTarget
	focusNonce        uint64
	lastViewport      *valueobjects.ViewportSample
	generation        uint64
}

// Option configures a CacheStore
type Option func(*CacheStore)

// WithSnapshotStore enables best-effort offline snapshot persistence
func WithSnapshotStore(snapshots ports.SnapshotStore) Option {
	return func(s *CacheStore) {
		s.snapshots = snapshots
	}
}

// WithClusteringDisabled starts the store with cluster derivation off
func WithClusteringDisabled() Option {
	return func(s *CacheStore) {
		s.clusteringEnabled = false
	}
}

// NewCacheStore creates a cache store bound to a remote weave service
func NewCacheStore(service ports.WeaveService, logger *zap.Logger, opts ...Option) *CacheStore {
	s := &CacheStore{
		service:           service,
		logger:            logger,
		validate:          validator.New(),
		clusteringEnabled: true,
		selectedNodes:     make(map[string]struct{}),
		selectedEdges:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the store against a weave. A non-empty weaveID
// fetches that weave fully and enters editable mode; an empty weaveID
// fetches (or reuses) the listing of available weaves and falls back to
// the read-only aggregated cross-weave view. Selection is reset either
// way. On failure the error is recorded on Err and returned.
func (s *CacheStore) Initialize(ctx context.Context, weaveID string) error {
	gen := s.beginRequest()

	if weaveID == "" {
		if err := s.ensureListing(ctx); err != nil {
			cached := s.loadPersistedSnapshot(ctx, aggregateSnapshotKey)
			if cached == nil {
				return s.failRequest(gen, err)
			}
			s.logger.Warn("remote unreachable, warm-starting aggregated view from persisted snapshot",
				zap.Error(err),
			)
			// The listing stays unfetched, so the next refresh
			// retries it.
			s.applyFullSnapshot(gen, cached, "", true, true)
			return nil
		}

		raw, err := s.service.GetAggregatedWeave(ctx)
		if err != nil {
			if cached := s.loadPersistedSnapshot(ctx, aggregateSnapshotKey); cached != nil {
				s.logger.Warn("remote unreachable, warm-starting aggregated view from persisted snapshot",
					zap.Error(err),
				)
				raw = cached
			} else {
				return s.failRequest(gen, err)
			}
		}
		if !s.applyFullSnapshot(gen, raw, "", true, true) {
			return nil
		}
		s.persistSnapshot(ctx, aggregateSnapshotKey, raw)
		return nil
	}

	raw, err := s.service.GetWeaveByID(ctx, weaveID)
	if err != nil {
		if cached := s.loadPersistedSnapshot(ctx, weaveID); cached != nil {
			s.logger.Warn("remote unreachable, warm-starting weave from persisted snapshot",
				zap.String("weaveID", weaveID),
				zap.Error(err),
			)
			raw = cached
		} else {
			return s.failRequest(gen, err)
		}
	}
	if !s.applyFullSnapshot(gen, raw, weaveID, false, true) {
		return nil
	}
	s.persistSnapshot(ctx, weaveID, raw)
	return nil
}

// Refresh repeats initialization against the currently active weave, or
// the read-only aggregated view when none is active
func (s *CacheStore) Refresh(ctx context.Context) error {
	s.mu.RLock()
	weaveID := s.activeWeaveID
	s.mu.RUnlock()
	return s.Initialize(ctx, weaveID)
}

// SetActiveWeave switches to a different weave (or the aggregated view
// for an empty id). Weaves are isolated caches: switching fully discards
// the prior cache before loading the new target.
func (s *CacheStore) SetActiveWeave(ctx context.Context, weaveID string) error {
	s.mu.Lock()
	s.weave = nil
	s.clusterRecords = nil
	s.lastSnapshot = nil
	s.selectedNodes = make(map[string]struct{})
	s.selectedEdges = make(map[string]struct{})
	s.focusTarget = nil
	s.lastViewport = nil
	// The prior id is gone with its cache; a failed load must not leave
	// the store claiming the old weave is active and editable.
	s.activeWeaveID = ""
	s.readOnly = false
	s.mu.Unlock()

	return s.Initialize(ctx, weaveID)
}

// SetClusteringEnabled toggles cluster derivation. Re-enabling reapplies
// the held full snapshot, or re-derives from the communities retained on
// the weave when the cache was built by segment merges alone; either way
// the toggle is instantaneous and independent of the network.
func (s *CacheStore) SetClusteringEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clusteringEnabled == enabled {
		return
	}
	s.clusteringEnabled = enabled

	if s.lastSnapshot != nil {
		s.applySnapshotLocked(s.lastSnapshot)
		return
	}
	// No full snapshot held (the cache was built by segment merges);
	// re-derive from the communities retained on the weave itself.
	s.reclusterLocked()
}

// ClusteringEnabled reports whether cluster derivation is on
func (s *CacheStore) ClusteringEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clusteringEnabled
}

// ensureListing fetches the weave listing unless one is already cached
func (s *CacheStore) ensureListing(ctx context.Context) error {
	s.mu.RLock()
	cached := s.available != nil
	s.mu.RUnlock()
	if cached {
		return nil
	}

	raws, err := s.service.ListWeaves(ctx)
	if err != nil {
		return err
	}

	summaries := make([]WeaveSummary, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		summaries = append(summaries, WeaveSummary{
			ID:        raw.ID,
			Name:      raw.Name,
			Domain:    raw.Domain,
			NodeCount: len(raw.Nodes),
			EdgeCount: len(raw.Edges),
		})
	}

	s.mu.Lock()
	s.available = summaries
	s.mu.Unlock()
	return nil
}

// EnsureEditable enforces the mutation precondition, distinguishing the
// two read-only causes for the caller
func (s *CacheStore) EnsureEditable() error {
	return s.ensureEditable()
}

func (s *CacheStore) ensureEditable() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeWeaveID == "" {
		if s.readOnly {
			return pkgerrors.NewReadOnlyError("aggregated view is read-only")
		}
		return pkgerrors.NewReadOnlyError("no weave selected")
	}
	return nil
}

// beginRequest marks the store loading and returns the generation the
// caller must present when applying its result
func (s *CacheStore) beginRequest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.loading = true
	s.errMsg = ""
	return s.generation
}

// failRequest records a request failure if the generation is still
// current, then returns the error for call-site handling. Outcomes of
// superseded requests are dropped silently.
func (s *CacheStore) failRequest(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("dropping stale request failure",
			zap.Uint64("generation", gen),
			zap.Error(err),
		)
		return nil
	}

	s.loading = false
	s.errMsg = err.Error()
	return err
}

// applyFullSnapshot installs a snapshot if the generation is still
// current. Returns false when the request was superseded. Selection is
// reset only on (re)initialization; mutations keep it and rely on the
// post-merge prune.
func (s *CacheStore) applyFullSnapshot(gen uint64, raw *ports.RawWeave, weaveID string, readOnly, resetSelection bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("dropping stale snapshot", zap.Uint64("generation", gen))
		return false
	}

	s.activeWeaveID = weaveID
	s.readOnly = readOnly
	if resetSelection {
		s.selectedNodes = make(map[string]struct{})
		s.selectedEdges = make(map[string]struct{})
		s.focusTarget = nil
	}
	s.applySnapshotLocked(raw)
	s.loading = false
	s.errMsg = ""

	s.logger.Info("weave snapshot applied",
		zap.String("weaveID", weaveID),
		zap.Bool("readOnly", readOnly),
		zap.Int("nodes", s.weave.NodeCount()),
		zap.Int("edges", s.weave.EdgeCount()),
		zap.Int("clusters", len(s.clusterRecords)),
	)
	return true
}

// persistSnapshot writes a snapshot to the offline store, best effort
func (s *CacheStore) persistSnapshot(ctx context.Context, key string, raw *ports.RawWeave) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, key, raw); err != nil {
		s.logger.Warn("failed to persist weave snapshot",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// loadPersistedSnapshot reads a snapshot from the offline store, or nil
func (s *CacheStore) loadPersistedSnapshot(ctx context.Context, key string) *ports.RawWeave {
	if s.snapshots == nil {
		return nil
	}
	raw, err := s.snapshots.Load(ctx, key)
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			s.logger.Warn("failed to load persisted snapshot",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return nil
	}
	return raw
}
