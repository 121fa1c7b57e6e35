package entities

// EdgeTypeRelated is the default relationship type for edges whose
// payload does not carry one.
const EdgeTypeRelated = "related"

// DefaultEdgeWeight is applied when a payload's weight is absent or not
// a finite number.
const DefaultEdgeWeight = 1.0

// Edge is the canonical client-side projection of a typed relationship
// between two nodes. The ID is the de-duplication key across overlapping
// segment merges: explicit when the service supplies one, otherwise
// derived deterministically from the endpoints and type.
type Edge struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	Target    string                 `json:"target"`
	Type      string                 `json:"type"`
	Weight    float64                `json:"weight"`
	Note      string                 `json:"note,omitempty"`
	CreatedBy string                 `json:"created_by,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// DeriveEdgeID builds the deterministic identity for an edge without an
// explicit server-assigned id. Two segments describing the same
// relationship always derive the same key, so merging cannot produce two
// live edges for one relationship.
func DeriveEdgeID(source, target, edgeType string) string {
	if edgeType == "" {
		edgeType = EdgeTypeRelated
	}
	return source + "->" + target + ":" + edgeType
}

// Clone returns a deep copy of the edge with an unshared metadata map
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}

	clone := *e
	clone.Metadata = CopyMetadata(e.Metadata)
	return &clone
}
