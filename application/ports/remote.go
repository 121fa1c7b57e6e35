package ports

import (
	"context"
	"time"

	"weaveclient/domain/core/valueobjects"
)

// Raw payload types mirror what the remote service actually sends.
// Historically the service has emitted several key spellings for the
// same field (label vs title, from vs source); the raw types carry all
// spellings and the transform layer is the single place that resolves
// them into the canonical shape. Nothing outside the transform layer
// should read these fields directly.

// RawPosition is a position as it arrives on the wire. Z is a pointer
// because 2D layouts omit it entirely.
type RawPosition struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z *float64 `json:"z,omitempty"`
}

// RawNode is a node payload prior to normalization
type RawNode struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type,omitempty"`
	Kind       string                 `json:"kind,omitempty"`
	Title      string                 `json:"title,omitempty"`
	Label      string                 `json:"label,omitempty"`
	Importance *float64               `json:"importance,omitempty"`
	Weight     *float64               `json:"weight,omitempty"`
	Summary    string                 `json:"summary,omitempty"`
	ItemID     string                 `json:"item_id,omitempty"`
	RefID      string                 `json:"ref_id,omitempty"`
	Position   *RawPosition           `json:"position,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// RawEdge is an edge payload prior to normalization
type RawEdge struct {
	ID        string                 `json:"id,omitempty"`
	Source    string                 `json:"source,omitempty"`
	From      string                 `json:"from,omitempty"`
	Target    string                 `json:"target,omitempty"`
	To        string                 `json:"to,omitempty"`
	Type      string                 `json:"type,omitempty"`
	Relation  string                 `json:"relation,omitempty"`
	Weight    *float64               `json:"weight,omitempty"`
	Note      string                 `json:"note,omitempty"`
	CreatedBy string                 `json:"created_by,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// RawWeave is a full weave snapshot as returned by the service
type RawWeave struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Domain      string                 `json:"domain,omitempty"`
	Nodes       []RawNode              `json:"nodes"`
	Edges       []RawEdge              `json:"edges"`
	Communities [][]string             `json:"communities,omitempty"`
	Metrics     map[string]interface{} `json:"metrics,omitempty"`
	CreatedAt   time.Time              `json:"created_at,omitempty"`
	UpdatedAt   time.Time              `json:"updated_at,omitempty"`
}

// Segment is a partial, spatially or type-bounded slice of a weave.
// Communities is nil when the segment does not carry community data, in
// which case previously derived clusters stay untouched.
type Segment struct {
	Nodes       []RawNode              `json:"nodes"`
	Edges       []RawEdge              `json:"edges"`
	Communities [][]string             `json:"communities,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// SegmentBounds restricts a segment request to a spatial window
type SegmentBounds struct {
	Center valueobjects.Position `json:"center"`
	Radius float64               `json:"radius" validate:"gt=0"`
}

// SegmentOptions parametrize a partial load
type SegmentOptions struct {
	Types   []string       `json:"types,omitempty"`
	Cluster string         `json:"cluster,omitempty"`
	Limit   int            `json:"limit,omitempty" validate:"gte=0"`
	Depth   int            `json:"depth,omitempty" validate:"gte=0"`
	Bounds  *SegmentBounds `json:"bounds,omitempty"`
}

// NodeInput carries client-supplied node fields for create and update
// operations. For updates, zero-valued fields are left unchanged by the
// service.
type NodeInput struct {
	Type       string                 `json:"type,omitempty"`
	Title      string                 `json:"title" validate:"required"`
	Importance *float64               `json:"importance,omitempty" validate:"omitempty,gt=0"`
	Summary    string                 `json:"summary,omitempty"`
	ItemID     string                 `json:"item_id,omitempty"`
	Position   *valueobjects.Position `json:"position,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// EdgeInput carries client-supplied edge fields for create and update
// operations
type EdgeInput struct {
	Source   string                 `json:"source" validate:"required"`
	Target   string                 `json:"target" validate:"required,nefield=Source"`
	Type     string                 `json:"type,omitempty"`
	Weight   *float64               `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Note     string                 `json:"note,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NodeMutationResult is the service's answer to a node create or update:
// the entire updated weave plus the specific node touched
type NodeMutationResult struct {
	Weave *RawWeave `json:"weave"`
	Node  *RawNode  `json:"node"`
}

// NodeDeletionResult is the service's answer to a node delete. The node
// itself is omitted; the ids of edges removed alongside it are listed.
type NodeDeletionResult struct {
	Weave          *RawWeave `json:"weave"`
	RemovedEdgeIDs []string  `json:"removed_edge_ids,omitempty"`
}

// EdgeMutationResult is the service's answer to an edge create or update
type EdgeMutationResult struct {
	Weave *RawWeave `json:"weave"`
	Edge  *RawEdge  `json:"edge"`
}

// EdgeDeletionResult is the service's answer to an edge delete
type EdgeDeletionResult struct {
	Weave *RawWeave `json:"weave"`
}

// WeaveService is the fixed request/response contract with the remote
// service that owns the canonical data. The transport behind it is an
// external collaborator; implementations must be safe for concurrent use.
type WeaveService interface {
	// ListWeaves returns summaries of every weave available to the client
	ListWeaves(ctx context.Context) ([]*RawWeave, error)

	// GetWeaveByID returns a full snapshot of a single weave
	GetWeaveByID(ctx context.Context, id string) (*RawWeave, error)

	// GetAggregatedWeave returns the read-only cross-weave merged view
	GetAggregatedWeave(ctx context.Context) (*RawWeave, error)

	// GetWeaveSegment returns a partial slice of a weave
	GetWeaveSegment(ctx context.Context, id string, opts SegmentOptions) (*Segment, error)

	// CreateNode adds a node and returns the updated weave plus the node
	CreateNode(ctx context.Context, weaveID string, input NodeInput) (*NodeMutationResult, error)

	// UpdateNode modifies a node and returns the updated weave plus the node
	UpdateNode(ctx context.Context, weaveID, nodeID string, input NodeInput) (*NodeMutationResult, error)

	// DeleteNode removes a node and returns the updated weave plus the
	// ids of edges deleted with it
	DeleteNode(ctx context.Context, weaveID, nodeID string) (*NodeDeletionResult, error)

	// CreateEdge adds an edge and returns the updated weave plus the edge
	CreateEdge(ctx context.Context, weaveID string, input EdgeInput) (*EdgeMutationResult, error)

	// UpdateEdge modifies an edge and returns the updated weave plus the edge
	UpdateEdge(ctx context.Context, weaveID, edgeID string, input EdgeInput) (*EdgeMutationResult, error)

	// DeleteEdge removes an edge and returns the updated weave
	DeleteEdge(ctx context.Context, weaveID, edgeID string) (*EdgeDeletionResult, error)
}
