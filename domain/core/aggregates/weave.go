package aggregates

import (
	"time"

	"weaveclient/domain/core/entities"
)

// Weave is the client-side cached projection of a knowledge graph owned
// by the remote service. The client never holds authoritative state: a
// weave is rebuilt from full snapshots and extended by partial segment
// merges, and is editable only when it carries a single concrete id.
// An empty id means the projection is an aggregated cross-weave view,
// which is inherently read-only.
type Weave struct {
	id          string
	name        string
	domain      string
	nodes       map[string]*entities.Node
	edges       map[string]*entities.Edge
	communities [][]string
	metrics     map[string]interface{}
	createdAt   time.Time
	updatedAt   time.Time
}

// NewWeave creates an empty weave projection
func NewWeave(id, name, domain string) *Weave {
	now := time.Now()
	return &Weave{
		id:        id,
		name:      name,
		domain:    domain,
		nodes:     make(map[string]*entities.Node),
		edges:     make(map[string]*entities.Edge),
		createdAt: now,
		updatedAt: now,
	}
}

// ReconstructWeave recreates a weave projection from snapshot data. The
// node and edge maps are adopted as-is; callers hand over ownership.
func ReconstructWeave(
	id string,
	name string,
	domain string,
	nodes map[string]*entities.Node,
	edges map[string]*entities.Edge,
	communities [][]string,
	metrics map[string]interface{},
	createdAt time.Time,
	updatedAt time.Time,
) *Weave {
	if nodes == nil {
		nodes = make(map[string]*entities.Node)
	}
	if edges == nil {
		edges = make(map[string]*entities.Edge)
	}
	return &Weave{
		id:          id,
		name:        name,
		domain:      domain,
		nodes:       nodes,
		edges:       edges,
		communities: communities,
		metrics:     metrics,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the weave's identifier, empty for the aggregated view
func (w *Weave) ID() string {
	return w.id
}

// Name returns the weave's name
func (w *Weave) Name() string {
	return w.name
}

// Domain returns the weave's domain tag
func (w *Weave) Domain() string {
	return w.domain
}

// Nodes returns a copy of the node map to maintain encapsulation
func (w *Weave) Nodes() map[string]*entities.Node {
	nodes := make(map[string]*entities.Node, len(w.nodes))
	for k, v := range w.nodes {
		nodes[k] = v
	}
	return nodes
}

// Edges returns a copy of the edge map to maintain encapsulation
func (w *Weave) Edges() map[string]*entities.Edge {
	edges := make(map[string]*entities.Edge, len(w.edges))
	for k, v := range w.edges {
		edges[k] = v
	}
	return edges
}

// Node retrieves a node by id
func (w *Weave) Node(id string) (*entities.Node, bool) {
	node, ok := w.nodes[id]
	return node, ok
}

// Edge retrieves an edge by its de-duplication key
func (w *Weave) Edge(id string) (*entities.Edge, bool) {
	edge, ok := w.edges[id]
	return edge, ok
}

// HasNode checks node membership without returning the node
func (w *Weave) HasNode(id string) bool {
	_, ok := w.nodes[id]
	return ok
}

// NodeCount returns the number of cached nodes
func (w *Weave) NodeCount() int {
	return len(w.nodes)
}

// EdgeCount returns the number of cached edges
func (w *Weave) EdgeCount() int {
	return len(w.edges)
}

// Communities returns the raw community lists the snapshot carried.
// These are the source data for cluster derivation, kept so clustering
// can be re-derived without a network round trip.
func (w *Weave) Communities() [][]string {
	return w.communities
}

// Metrics returns weave-level metrics supplied by the service
func (w *Weave) Metrics() map[string]interface{} {
	return w.metrics
}

// CreatedAt returns when the weave was created
func (w *Weave) CreatedAt() time.Time {
	return w.createdAt
}

// UpdatedAt returns when the weave was last modified
func (w *Weave) UpdatedAt() time.Time {
	return w.updatedAt
}

// ReplaceEntities swaps in new node and edge maps wholesale. Merges
// build fresh maps and hand them over, which keeps previously returned
// maps valid as immutable snapshots for consumers.
func (w *Weave) ReplaceEntities(nodes map[string]*entities.Node, edges map[string]*entities.Edge) {
	if nodes == nil {
		nodes = make(map[string]*entities.Node)
	}
	if edges == nil {
		edges = make(map[string]*entities.Edge)
	}
	w.nodes = nodes
	w.edges = edges
	w.updatedAt = time.Now()
}

// SetCommunities replaces the raw community lists
func (w *Weave) SetCommunities(communities [][]string) {
	w.communities = communities
}

// Cluster is a derived grouping of node ids, projected from a community
// the service computed. Cluster ids are synthetic, assigned by the
// enumeration order of the community list.
type Cluster struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}
