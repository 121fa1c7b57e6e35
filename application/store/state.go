package store

import (
	"sort"

	"weaveclient/domain/core/aggregates"
	"weaveclient/domain/core/entities"
	"weaveclient/domain/core/valueobjects"
)

// Read-side accessors. Everything returned here is a copy or an
// immutable snapshot: consumers must never mutate returned nodes or
// edges, and the store never mutates entries in place, so reference
// equality is a valid change check for consumers that hold on to maps.

// ActiveWeaveID returns the active weave id, empty in aggregate mode
func (s *CacheStore) ActiveWeaveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeWeaveID
}

// ReadOnly reports whether mutations are currently forbidden
func (s *CacheStore) ReadOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readOnly || s.activeWeaveID == ""
}

// Loading reports whether a remote call is in flight
func (s *CacheStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last surfaced error message, empty when healthy
func (s *CacheStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// WeaveName returns the cached weave's name, empty when nothing loaded
func (s *CacheStore) WeaveName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.weave == nil {
		return ""
	}
	return s.weave.Name()
}

// Nodes returns a copy of the cached node map
func (s *CacheStore) Nodes() map[string]*entities.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.weave == nil {
		return map[string]*entities.Node{}
	}
	return s.weave.Nodes()
}

// Edges returns a copy of the cached edge map
func (s *CacheStore) Edges() map[string]*entities.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.weave == nil {
		return map[string]*entities.Edge{}
	}
	return s.weave.Edges()
}

// Node retrieves a cached node by id
func (s *CacheStore) Node(id string) (*entities.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.weave == nil {
		return nil, false
	}
	return s.weave.Node(id)
}

// Edge retrieves a cached edge by its key
func (s *CacheStore) Edge(id string) (*entities.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.weave == nil {
		return nil, false
	}
	return s.weave.Edge(id)
}

// Clusters returns a copy of the derived cluster records
func (s *CacheStore) Clusters() []aggregates.Cluster {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]aggregates.Cluster, len(s.clusterRecords))
	copy(records, s.clusterRecords)
	return records
}

// AvailableWeaves returns the cached listing of weaves, nil before the
// first listing fetch
func (s *CacheStore) AvailableWeaves() []WeaveSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.available == nil {
		return nil
	}
	listing := make([]WeaveSummary, len(s.available))
	copy(listing, s.available)
	return listing
}

// SelectedNodeIDs returns the node selection, sorted for stable output
func (s *CacheStore) SelectedNodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.selectedNodes)
}

// SelectedEdgeIDs returns the edge selection, sorted for stable output
func (s *CacheStore) SelectedEdgeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.selectedEdges)
}

// StateSnapshot is a consistent view of the whole store for consumers
// that want one atomic read, e.g. the renderer bridge
type StateSnapshot struct {
	WeaveID       string                    `json:"weave_id,omitempty"`
	WeaveName     string                    `json:"weave_name,omitempty"`
	ReadOnly      bool                      `json:"read_only"`
	Loading       bool                      `json:"loading"`
	Error         string                    `json:"error,omitempty"`
	Nodes         map[string]*entities.Node `json:"nodes"`
	Edges         map[string]*entities.Edge `json:"edges"`
	Clusters      []aggregates.Cluster      `json:"clusters,omitempty"`
	SelectedNodes []string                  `json:"selected_nodes,omitempty"`
	SelectedEdges []string                  `json:"selected_edges,omitempty"`
	FocusTarget   *valueobjects.FocusTarget `json:"focus_target,omitempty"`
}

// Snapshot captures the current state atomically
func (s *CacheStore) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := StateSnapshot{
		WeaveID:       s.activeWeaveID,
		ReadOnly:      s.readOnly || s.activeWeaveID == "",
		Loading:       s.loading,
		Error:         s.errMsg,
		Nodes:         map[string]*entities.Node{},
		Edges:         map[string]*entities.Edge{},
		SelectedNodes: sortedKeys(s.selectedNodes),
		SelectedEdges: sortedKeys(s.selectedEdges),
	}

	if s.weave != nil {
		snapshot.WeaveName = s.weave.Name()
		snapshot.Nodes = s.weave.Nodes()
		snapshot.Edges = s.weave.Edges()
	}
	if len(s.clusterRecords) > 0 {
		records := make([]aggregates.Cluster, len(s.clusterRecords))
		copy(records, s.clusterRecords)
		snapshot.Clusters = records
	}
	if s.focusTarget != nil {
		target := *s.focusTarget
		snapshot.FocusTarget = &target
	}
	return snapshot
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
