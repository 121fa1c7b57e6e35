package store

import (
	"context"

	"go.uber.org/zap"

	"weaveclient/application/ports"
	"weaveclient/application/transform"
	"weaveclient/domain/core/entities"
	pkgerrors "weaveclient/pkg/errors"
)

// Every mutation issues exactly one remote call that returns the entire
// updated weave plus the specific entity touched, then performs a full
// snapshot application rather than a local patch, and resolves the
// entity from the freshly rebuilt cache. A response whose snapshot and
// touched entity disagree signals client/server desynchronization and is
// surfaced as a distinct DESYNC error: the right reaction is a forced
// refresh, not a silent retry.

// CreateNode creates a node in the active weave
func (s *CacheStore) CreateNode(ctx context.Context, input ports.NodeInput) (*entities.Node, error) {
	if err := s.ensureEditable(); err != nil {
		return nil, err
	}
	weaveID := s.ActiveWeaveID()
	gen := s.beginRequest()

	res, err := s.service.CreateNode(ctx, weaveID, input)
	if err != nil {
		return nil, s.resultError(gen, err)
	}
	return s.resolveNodeMutation(ctx, gen, weaveID, res)
}

// UpdateNode updates a node in the active weave
func (s *CacheStore) UpdateNode(ctx context.Context, nodeID string, input ports.NodeInput) (*entities.Node, error) {
	if err := s.ensureEditable(); err != nil {
		return nil, err
	}
	weaveID := s.ActiveWeaveID()
	gen := s.beginRequest()

	res, err := s.service.UpdateNode(ctx, weaveID, nodeID, input)
	if err != nil {
		return nil, s.resultError(gen, err)
	}
	return s.resolveNodeMutation(ctx, gen, weaveID, res)
}

// DeleteNode removes a node from the active weave and returns the ids
// of edges the service removed with it
func (s *CacheStore) DeleteNode(ctx context.Context, nodeID string) ([]string, error) {
	if err := s.ensureEditable(); err != nil {
		return nil, err
	}
	weaveID := s.ActiveWeaveID()
	gen := s.beginRequest()

	res, err := s.service.DeleteNode(ctx, weaveID, nodeID)
	if err != nil {
		return nil, s.resultError(gen, err)
	}
	if res.Weave == nil {
		return nil, s.resultError(gen, pkgerrors.NewDesyncError("delete node response carried no snapshot"))
	}

	// The snapshot must no longer contain the node it claims to have
	// removed.
	for _, rawNode := range res.Weave.Nodes {
		if rawNode.ID == nodeID {
			return nil, s.resultError(gen, pkgerrors.NewDesyncError("deleted node still present in snapshot"))
		}
	}

	if s.applyFullSnapshot(gen, res.Weave, weaveID, false, false) {
		s.persistSnapshot(ctx, weaveID, res.Weave)
	}

	s.logger.Info("node deleted",
		zap.String("weaveID", weaveID),
		zap.String("nodeID", nodeID),
		zap.Int("removedEdges", len(res.RemovedEdgeIDs)),
	)
	return res.RemovedEdgeIDs, nil
}

// CreateEdge creates an edge in the active weave
func (s *CacheStore) CreateEdge(ctx context.Context, input ports.EdgeInput) (*entities.Edge, error) {
	if err := s.ensureEditable(); err != nil {
		return nil, err
	}
	weaveID := s.ActiveWeaveID()
	gen := s.beginRequest()

	res, err := s.service.CreateEdge(ctx, weaveID, input)
	if err != nil {
		return nil, s.resultError(gen, err)
	}
	return s.resolveEdgeMutation(ctx, gen, weaveID, res)
}

// UpdateEdge updates an edge in the active weave
func (s *CacheStore) UpdateEdge(ctx context.Context, edgeID string, input ports.EdgeInput) (*entities.Edge, error) {
	if err := s.ensureEditable(); err != nil {
		return nil, err
	}
	weaveID := s.ActiveWeaveID()
	gen := s.beginRequest()

	res, err := s.service.UpdateEdge(ctx, weaveID, edgeID, input)
	if err != nil {
		return nil, s.resultError(gen, err)
	}
	return s.resolveEdgeMutation(ctx, gen, weaveID, res)
}

// DeleteEdge removes an edge from the active weave
func (s *CacheStore) DeleteEdge(ctx context.Context, edgeID string) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	weaveID := s.ActiveWeaveID()
	gen := s.beginRequest()

	res, err := s.service.DeleteEdge(ctx, weaveID, edgeID)
	if err != nil {
		return s.resultError(gen, err)
	}
	if res.Weave == nil {
		return s.resultError(gen, pkgerrors.NewDesyncError("delete edge response carried no snapshot"))
	}

	if s.applyFullSnapshot(gen, res.Weave, weaveID, false, false) {
		s.persistSnapshot(ctx, weaveID, res.Weave)
	}

	s.logger.Info("edge deleted",
		zap.String("weaveID", weaveID),
		zap.String("edgeID", edgeID),
	)
	return nil
}

// resolveNodeMutation applies the returned snapshot and resolves the
// touched node from the rebuilt cache
func (s *CacheStore) resolveNodeMutation(ctx context.Context, gen uint64, weaveID string, res *ports.NodeMutationResult) (*entities.Node, error) {
	if res.Weave == nil || res.Node == nil || res.Node.ID == "" {
		return nil, s.resultError(gen, pkgerrors.NewDesyncError("node mutation response incomplete"))
	}

	// Verify the snapshot actually contains the entity the same
	// response claims to have touched.
	found := false
	for _, rawNode := range res.Weave.Nodes {
		if rawNode.ID == res.Node.ID {
			found = true
			break
		}
	}
	if !found {
		return nil, s.resultError(gen, pkgerrors.NewDesyncError("node missing from snapshot after mutation"))
	}

	if s.applyFullSnapshot(gen, res.Weave, weaveID, false, false) {
		s.persistSnapshot(ctx, weaveID, res.Weave)
		s.mu.RLock()
		node, ok := s.weave.Node(res.Node.ID)
		s.mu.RUnlock()
		if !ok {
			return nil, s.recordError(pkgerrors.NewDesyncError("node not found in cache after mutation"))
		}
		return node, nil
	}

	// The request was superseded by a newer one; the cache was not
	// touched, but the caller still gets the entity the service
	// confirmed.
	return transform.NodeFromRaw(*res.Node, nil, nil), nil
}

// resolveEdgeMutation applies the returned snapshot and resolves the
// touched edge from the rebuilt cache
func (s *CacheStore) resolveEdgeMutation(ctx context.Context, gen uint64, weaveID string, res *ports.EdgeMutationResult) (*entities.Edge, error) {
	if res.Weave == nil || res.Edge == nil {
		return nil, s.resultError(gen, pkgerrors.NewDesyncError("edge mutation response incomplete"))
	}

	key := transform.EdgeKey(*res.Edge)
	found := false
	for _, rawEdge := range res.Weave.Edges {
		if transform.EdgeKey(rawEdge) == key {
			found = true
			break
		}
	}
	if !found {
		return nil, s.resultError(gen, pkgerrors.NewDesyncError("edge missing from snapshot after mutation"))
	}

	if s.applyFullSnapshot(gen, res.Weave, weaveID, false, false) {
		s.persistSnapshot(ctx, weaveID, res.Weave)
		s.mu.RLock()
		edge, ok := s.weave.Edge(key)
		s.mu.RUnlock()
		if !ok {
			return nil, s.recordError(pkgerrors.NewDesyncError("edge not found in cache after mutation"))
		}
		return edge, nil
	}

	return transform.EdgeFromRaw(*res.Edge, nil), nil
}

// resultError records a mutation failure if the request is still current
// and returns the error either way, so the caller can react even when a
// newer request already owns the store state
func (s *CacheStore) resultError(gen uint64, err error) error {
	_ = s.failRequest(gen, err)
	return err
}

// recordError surfaces an error on the store state and returns it
func (s *CacheStore) recordError(err error) error {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
	return err
}
