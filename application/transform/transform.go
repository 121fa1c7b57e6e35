// Package transform is the single normalization boundary between the
// remote service's raw payloads and the canonical entity shapes held by
// the cache. The service has emitted several key spellings for the same
// field over time; every spelling is resolved here, so the rest of the
// client only ever sees the canonical shape.
//
// All functions are pure, side-effect free, and safe to call redundantly.
package transform

import (
	"math"

	"weaveclient/application/ports"
	"weaveclient/domain/core/entities"
	"weaveclient/domain/core/valueobjects"
)

// NodeFromRaw normalizes a raw node payload. Sticky fields (position,
// cluster assignment) fall back to the previous cached version when the
// payload omits them, because segment loads do not always carry layout
// or community data. previous may be nil for a first sighting.
func NodeFromRaw(raw ports.RawNode, clusterLookup map[string]string, previous *entities.Node) *entities.Node {
	node := &entities.Node{
		ID:         raw.ID,
		Importance: entities.DefaultImportance,
	}

	var prevType, prevTitle, prevSummary, prevItemID, prevCluster string
	var prevPosition *valueobjects.Position
	var prevMetadata map[string]interface{}
	if previous != nil {
		prevType = previous.Type
		prevTitle = previous.Title
		prevSummary = previous.Summary
		prevItemID = previous.ItemID
		prevCluster = previous.ClusterID
		prevPosition = previous.Position
		prevMetadata = previous.Metadata
		if isFinite(previous.Importance) && previous.Importance > 0 {
			node.Importance = previous.Importance
		}
	}

	node.Type = valueobjects.StickyString(firstNonEmpty(raw.Type, raw.Kind), prevType)
	node.Title = valueobjects.StickyString(firstNonEmpty(raw.Title, raw.Label), prevTitle)
	node.Summary = valueobjects.StickyString(raw.Summary, prevSummary)
	node.ItemID = valueobjects.StickyString(firstNonEmpty(raw.ItemID, raw.RefID), prevItemID)

	if imp := firstFinite(raw.Importance, raw.Weight); imp != nil {
		node.Importance = *imp
	}

	// Position precedence: explicit field, then a position embedded in
	// metadata, then the previous cached value.
	incoming := positionFromRaw(raw.Position)
	if incoming == nil {
		incoming = positionFromMetadata(raw.Metadata)
	}
	node.Position = valueobjects.StickyPtr(incoming, prevPosition)

	if cluster, ok := clusterLookup[raw.ID]; ok {
		node.ClusterID = cluster
	} else {
		node.ClusterID = prevCluster
	}

	if len(raw.Metadata) > 0 {
		node.Metadata = entities.CopyMetadata(raw.Metadata)
	} else {
		node.Metadata = entities.CopyMetadata(prevMetadata)
	}

	return node
}

// EdgeFromRaw normalizes a raw edge payload. The de-duplication key is
// the explicit id when the service supplies one, otherwise derived from
// the endpoints and type. previous may be nil for a first sighting.
func EdgeFromRaw(raw ports.RawEdge, previous *entities.Edge) *entities.Edge {
	edge := &entities.Edge{
		Weight: entities.DefaultEdgeWeight,
	}

	var prevSource, prevTarget, prevType, prevNote, prevCreatedBy string
	var prevMetadata map[string]interface{}
	if previous != nil {
		prevSource = previous.Source
		prevTarget = previous.Target
		prevType = previous.Type
		prevNote = previous.Note
		prevCreatedBy = previous.CreatedBy
		prevMetadata = previous.Metadata
		if isFinite(previous.Weight) && previous.Weight > 0 {
			edge.Weight = previous.Weight
		}
	}

	edge.Source = valueobjects.StickyString(firstNonEmpty(raw.Source, raw.From), prevSource)
	edge.Target = valueobjects.StickyString(firstNonEmpty(raw.Target, raw.To), prevTarget)

	edge.Type = valueobjects.StickyString(firstNonEmpty(raw.Type, raw.Relation), prevType)
	if edge.Type == "" {
		edge.Type = entities.EdgeTypeRelated
	}

	if raw.ID != "" {
		edge.ID = raw.ID
	} else {
		edge.ID = entities.DeriveEdgeID(edge.Source, edge.Target, edge.Type)
	}

	if raw.Weight != nil && isFinite(*raw.Weight) {
		edge.Weight = *raw.Weight
	}

	edge.Note = valueobjects.StickyString(raw.Note, prevNote)
	edge.CreatedBy = valueobjects.StickyString(raw.CreatedBy, prevCreatedBy)

	if len(raw.Metadata) > 0 {
		edge.Metadata = entities.CopyMetadata(raw.Metadata)
	} else {
		edge.Metadata = entities.CopyMetadata(prevMetadata)
	}

	return edge
}

// EdgeKey returns the de-duplication key a raw edge will be cached under
// once normalized, without building the full entity.
func EdgeKey(raw ports.RawEdge) string {
	if raw.ID != "" {
		return raw.ID
	}
	source := firstNonEmpty(raw.Source, raw.From)
	target := firstNonEmpty(raw.Target, raw.To)
	return entities.DeriveEdgeID(source, target, firstNonEmpty(raw.Type, raw.Relation))
}

func positionFromRaw(raw *ports.RawPosition) *valueobjects.Position {
	if raw == nil {
		return nil
	}
	z := 0.0
	if raw.Z != nil {
		z = *raw.Z
	}
	pos := valueobjects.NewPosition(raw.X, raw.Y, z)
	return &pos
}

// positionFromMetadata extracts a position the service tucked into the
// metadata map, a shape some endpoints still produce.
func positionFromMetadata(metadata map[string]interface{}) *valueobjects.Position {
	embedded, ok := metadata["position"].(map[string]interface{})
	if !ok {
		return nil
	}

	x, okX := asFloat(embedded["x"])
	y, okY := asFloat(embedded["y"])
	if !okX || !okY {
		return nil
	}

	z, _ := asFloat(embedded["z"])
	pos := valueobjects.NewPosition(x, y, z)
	return &pos
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstFinite(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil && isFinite(*v) {
			return v
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
