package entities

import (
	"weaveclient/domain/core/valueobjects"
)

// DefaultImportance is the weighting applied to nodes whose payload does
// not carry a usable importance scalar.
const DefaultImportance = 1.0

// Node is the canonical client-side projection of a knowledge unit in a
// weave. Instances held by the cache store must be treated as immutable
// snapshots by consumers; every cache update replaces whole entries
// rather than mutating them in place.
type Node struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Title      string                 `json:"title"`
	Importance float64                `json:"importance"`
	Summary    string                 `json:"summary,omitempty"`
	ItemID     string                 `json:"item_id,omitempty"`
	Position   *valueobjects.Position `json:"position,omitempty"`
	ClusterID  string                 `json:"cluster_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the node. The metadata map is copied so
// that cache entries never alias consumer-held maps.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	clone := *n
	if n.Position != nil {
		pos := *n.Position
		clone.Position = &pos
	}
	clone.Metadata = CopyMetadata(n.Metadata)
	return &clone
}

// CopyMetadata returns a shallow copy of a metadata map, or nil for an
// empty input. Values are shared; top-level keys are not.
func CopyMetadata(metadata map[string]interface{}) map[string]interface{} {
	if len(metadata) == 0 {
		return nil
	}
	copied := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		copied[k] = v
	}
	return copied
}
