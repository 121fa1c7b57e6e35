package store

import (
	"time"

	"go.uber.org/zap"

	"weaveclient/domain/core/valueobjects"
)

const (
	// focusRadiusFloor is the minimum radius a focus target may carry,
	// so focusing a single node still frames a usable volume.
	focusRadiusFloor = 20.0

	// focusPadding scales the bounding radius of a selection for visual
	// breathing room around the framed nodes.
	focusPadding = 1.6
)

// SelectNodes replaces the node selection. Ids are deduplicated and
// filtered to currently cached nodes, so the selection is always a
// subset of the cache.
func (s *CacheStore) SelectNodes(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if s.weave != nil && s.weave.HasNode(id) {
			selected[id] = struct{}{}
		}
	}
	s.selectedNodes = selected
}

// SelectEdges replaces the edge selection, deduplicated and filtered to
// currently cached edges
func (s *CacheStore) SelectEdges(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if s.weave == nil {
			continue
		}
		if _, ok := s.weave.Edge(id); ok {
			selected[id] = struct{}{}
		}
	}
	s.selectedEdges = selected
}

// ClearSelection empties both selection sets
func (s *CacheStore) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedNodes = make(map[string]struct{})
	s.selectedEdges = make(map[string]struct{})
}

// FocusOnSelection computes a camera-focus target from the current
// selection. The working node set is the selected nodes when non-empty,
// otherwise the endpoint nodes of the selected edges, otherwise an
// arbitrary single cached node. The target centers on the arithmetic
// mean of the resolved positions with a radius covering the farthest
// node, padded and floored. Returns nil when the cache holds no nodes.
func (s *CacheStore) FocusOnSelection() *valueobjects.FocusTarget {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.weave == nil || s.weave.NodeCount() == 0 {
		return nil
	}

	ids := s.resolveFocusNodeIDsLocked()
	if len(ids) == 0 {
		return nil
	}

	positions := make([]valueobjects.Position, 0, len(ids))
	for _, id := range ids {
		node, ok := s.weave.Node(id)
		if !ok {
			continue
		}
		// Nodes the layout has not placed yet sit at the origin.
		var pos valueobjects.Position
		if node.Position != nil {
			pos = *node.Position
		}
		positions = append(positions, pos)
	}
	if len(positions) == 0 {
		return nil
	}

	center := valueobjects.Centroid(positions)
	radius := valueobjects.MaxDistance(center, positions) * focusPadding
	if radius < focusRadiusFloor {
		radius = focusRadiusFloor
	}

	return s.issueFocusLocked(center, radius)
}

// RequestFocus issues a focus target for an ad hoc point, independent of
// any selection. The radius is floored but not padded.
func (s *CacheStore) RequestFocus(center valueobjects.Position, radius float64) *valueobjects.FocusTarget {
	s.mu.Lock()
	defer s.mu.Unlock()

	if radius < focusRadiusFloor {
		radius = focusRadiusFloor
	}
	return s.issueFocusLocked(center, radius)
}

// AcknowledgeFocus clears the pending focus target, but only when the
// nonce still matches the current target. A stale acknowledgment from a
// previous render cycle leaves a newer target untouched. Reports whether
// the target was consumed.
func (s *CacheStore) AcknowledgeFocus(nonce uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.focusTarget == nil || s.focusTarget.Nonce != nonce {
		return false
	}
	s.focusTarget = nil
	return true
}

// FocusTarget returns the pending focus target, or nil
func (s *CacheStore) FocusTarget() *valueobjects.FocusTarget {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.focusTarget == nil {
		return nil
	}
	target := *s.focusTarget
	return &target
}

// resolveFocusNodeIDsLocked picks the node ids a focus computation
// should frame. Callers hold the lock.
func (s *CacheStore) resolveFocusNodeIDsLocked() []string {
	if len(s.selectedNodes) > 0 {
		ids := make([]string, 0, len(s.selectedNodes))
		for id := range s.selectedNodes {
			ids = append(ids, id)
		}
		return ids
	}

	if len(s.selectedEdges) > 0 {
		seen := make(map[string]struct{})
		var ids []string
		for edgeID := range s.selectedEdges {
			edge, ok := s.weave.Edge(edgeID)
			if !ok {
				continue
			}
			for _, endpoint := range []string{edge.Source, edge.Target} {
				if _, dup := seen[endpoint]; dup {
					continue
				}
				if s.weave.HasNode(endpoint) {
					seen[endpoint] = struct{}{}
					ids = append(ids, endpoint)
				}
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}

	// Graceful fallback: any single cached node.
	for id := range s.weave.Nodes() {
		return []string{id}
	}
	return nil
}

func (s *CacheStore) issueFocusLocked(center valueobjects.Position, radius float64) *valueobjects.FocusTarget {
	s.focusNonce++
	target := valueobjects.FocusTarget{
		Center:   center,
		Radius:   radius,
		Nonce:    s.focusNonce,
		IssuedAt: time.Now(),
	}
	s.focusTarget = &target

	s.logger.Debug("focus target issued",
		zap.Uint64("nonce", target.Nonce),
		zap.Float64("radius", target.Radius),
	)

	issued := target
	return &issued
}
