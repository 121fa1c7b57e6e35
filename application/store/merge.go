package store

import (
	"context"

	"go.uber.org/zap"

	"weaveclient/application/clusters"
	"weaveclient/application/ports"
	"weaveclient/application/transform"
	"weaveclient/domain/core/aggregates"
	"weaveclient/domain/core/entities"
	pkgerrors "weaveclient/pkg/errors"
)

// LoadSegment merges a partial slice of the active weave into the cache.
// Valid only in editable mode with a concrete weave id; in read-only
// aggregate mode it transparently falls back to a full refresh. On
// success, nodes and edges are merged by id without discarding unrelated
// cached entities, and cluster records are rebuilt only if the segment
// carried community data. On failure the error is recorded and rethrown
// so composed callers can react, e.g. retry with a smaller viewport.
func (s *CacheStore) LoadSegment(ctx context.Context, opts ports.SegmentOptions) error {
	s.mu.RLock()
	weaveID := s.activeWeaveID
	readOnly := s.readOnly
	s.mu.RUnlock()

	if readOnly || weaveID == "" {
		return s.Refresh(ctx)
	}

	if err := s.validate.Struct(opts); err != nil {
		return pkgerrors.NewValidationError("invalid segment options").WithCause(err)
	}

	gen := s.beginRequest()

	segment, err := s.service.GetWeaveSegment(ctx, weaveID, opts)
	if err != nil {
		return s.failRequest(gen, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("dropping stale segment", zap.Uint64("generation", gen))
		return nil
	}

	s.mergeSegmentLocked(weaveID, segment)
	s.loading = false
	s.errMsg = ""

	s.logger.Debug("weave segment merged",
		zap.String("weaveID", weaveID),
		zap.Int("segmentNodes", len(segment.Nodes)),
		zap.Int("segmentEdges", len(segment.Edges)),
		zap.Int("cachedNodes", s.weave.NodeCount()),
		zap.Int("cachedEdges", s.weave.EdgeCount()),
	)
	return nil
}

// applySnapshotLocked rebuilds the cache wholesale from a full snapshot.
// Sticky fields still carry over from the previous cache: a snapshot
// that omits a node's position must not erase a known one. Callers hold
// the write lock.
func (s *CacheStore) applySnapshotLocked(raw *ports.RawWeave) {
	var records []aggregates.Cluster
	var lookup map[string]string
	if s.clusteringEnabled && len(raw.Communities) > 0 {
		records = clusters.BuildClusterRecords(raw.Communities)
		lookup = clusters.Lookup(records)
	}

	nodes := make(map[string]*entities.Node, len(raw.Nodes))
	for _, rawNode := range raw.Nodes {
		if rawNode.ID == "" {
			continue
		}
		node := transform.NodeFromRaw(rawNode, lookup, s.previousNode(rawNode.ID))
		if !s.clusteringEnabled {
			node.ClusterID = ""
		}
		nodes[node.ID] = node
	}

	edges := make(map[string]*entities.Edge, len(raw.Edges))
	for _, rawEdge := range raw.Edges {
		key := transform.EdgeKey(rawEdge)
		edge := transform.EdgeFromRaw(rawEdge, s.previousEdge(key))
		if _, ok := nodes[edge.Source]; !ok {
			continue
		}
		if _, ok := nodes[edge.Target]; !ok {
			continue
		}
		edges[edge.ID] = edge
	}

	createdAt, updatedAt := raw.CreatedAt, raw.UpdatedAt
	s.weave = aggregates.ReconstructWeave(
		raw.ID, raw.Name, raw.Domain,
		nodes, edges,
		raw.Communities, raw.Metrics,
		createdAt, updatedAt,
	)
	s.clusterRecords = records
	s.lastSnapshot = raw
	s.pruneSelectionLocked()
}

// mergeSegmentLocked merges a partial segment into the existing maps.
// Previously cached entities outside the segment are preserved. Callers
// hold the write lock.
func (s *CacheStore) mergeSegmentLocked(weaveID string, segment *ports.Segment) {
	// First load by segment: synthesize a placeholder wrapper so the
	// merge has somewhere to land.
	if s.weave == nil {
		s.weave = aggregates.NewWeave(weaveID, weaveID, "")
	}

	// Communities are retained on the weave even while clustering is
	// off, so a later re-enable can re-derive without a fetch.
	var lookup map[string]string
	if len(segment.Communities) > 0 {
		s.weave.SetCommunities(segment.Communities)
		if s.clusteringEnabled {
			s.clusterRecords = clusters.BuildClusterRecords(segment.Communities)
			lookup = clusters.Lookup(s.clusterRecords)
		}
	}

	nodes := s.weave.Nodes()
	for _, rawNode := range segment.Nodes {
		if rawNode.ID == "" {
			continue
		}
		node := transform.NodeFromRaw(rawNode, lookup, nodes[rawNode.ID])
		if !s.clusteringEnabled {
			node.ClusterID = ""
		}
		nodes[node.ID] = node
	}

	edges := s.weave.Edges()
	for _, rawEdge := range segment.Edges {
		key := transform.EdgeKey(rawEdge)
		edge := transform.EdgeFromRaw(rawEdge, edges[key])
		if _, ok := nodes[edge.Source]; !ok {
			continue
		}
		if _, ok := nodes[edge.Target]; !ok {
			continue
		}
		edges[edge.ID] = edge
	}

	s.weave.ReplaceEntities(nodes, edges)
	s.pruneSelectionLocked()
}

// reclusterLocked re-derives cluster state from the communities retained
// on the cached weave, without a snapshot and without the network. Nodes
// are replaced, never mutated in place, so previously returned maps stay
// valid. Callers hold the write lock.
func (s *CacheStore) reclusterLocked() {
	if s.weave == nil {
		s.clusterRecords = nil
		return
	}

	var records []aggregates.Cluster
	var lookup map[string]string
	if s.clusteringEnabled && len(s.weave.Communities()) > 0 {
		records = clusters.BuildClusterRecords(s.weave.Communities())
		lookup = clusters.Lookup(records)
	}

	nodes := s.weave.Nodes()
	for id, node := range nodes {
		cluster := lookup[id]
		if node.ClusterID == cluster {
			continue
		}
		updated := node.Clone()
		updated.ClusterID = cluster
		nodes[id] = updated
	}

	s.weave.ReplaceEntities(nodes, s.weave.Edges())
	s.clusterRecords = records
}

// pruneSelectionLocked drops selected ids that no longer resolve to a
// cached entity. A dangling selection reference is otherwise observable
// as a render error in the UI. Callers hold the write lock.
func (s *CacheStore) pruneSelectionLocked() {
	if s.weave == nil {
		s.selectedNodes = make(map[string]struct{})
		s.selectedEdges = make(map[string]struct{})
		return
	}

	for id := range s.selectedNodes {
		if !s.weave.HasNode(id) {
			delete(s.selectedNodes, id)
		}
	}
	for id := range s.selectedEdges {
		if _, ok := s.weave.Edge(id); !ok {
			delete(s.selectedEdges, id)
		}
	}
}

func (s *CacheStore) previousNode(id string) *entities.Node {
	if s.weave == nil {
		return nil
	}
	node, _ := s.weave.Node(id)
	return node
}

func (s *CacheStore) previousEdge(key string) *entities.Edge {
	if s.weave == nil {
		return nil
	}
	edge, _ := s.weave.Edge(key)
	return edge
}
