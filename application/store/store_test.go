package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weaveclient/application/ports"
	pkgerrors "weaveclient/pkg/errors"
)

// fakeService is an in-memory WeaveService double with per-method call
// counters, so tests can assert which remote operations a store action
// actually performed.
type fakeService struct {
	mu    sync.Mutex
	calls map[string]int

	weaves     []*ports.RawWeave
	weaveByID  map[string]*ports.RawWeave
	aggregated *ports.RawWeave
	err        error

	segmentFn    func(ctx context.Context, id string, opts ports.SegmentOptions) (*ports.Segment, error)
	createNodeFn func(ctx context.Context, weaveID string, input ports.NodeInput) (*ports.NodeMutationResult, error)
	updateNodeFn func(ctx context.Context, weaveID, nodeID string, input ports.NodeInput) (*ports.NodeMutationResult, error)
	deleteNodeFn func(ctx context.Context, weaveID, nodeID string) (*ports.NodeDeletionResult, error)
	createEdgeFn func(ctx context.Context, weaveID string, input ports.EdgeInput) (*ports.EdgeMutationResult, error)
	updateEdgeFn func(ctx context.Context, weaveID, edgeID string, input ports.EdgeInput) (*ports.EdgeMutationResult, error)
	deleteEdgeFn func(ctx context.Context, weaveID, edgeID string) (*ports.EdgeDeletionResult, error)
}

func (f *fakeService) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeService) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeService) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeService) ListWeaves(ctx context.Context) ([]*ports.RawWeave, error) {
	f.record("ListWeaves")
	if f.err != nil {
		return nil, f.err
	}
	return f.weaves, nil
}

func (f *fakeService) GetWeaveByID(ctx context.Context, id string) (*ports.RawWeave, error) {
	f.record("GetWeaveByID")
	if f.err != nil {
		return nil, f.err
	}
	if raw, ok := f.weaveByID[id]; ok {
		return raw, nil
	}
	return nil, pkgerrors.NewNotFoundError("weave")
}

func (f *fakeService) GetAggregatedWeave(ctx context.Context) (*ports.RawWeave, error) {
	f.record("GetAggregatedWeave")
	if f.err != nil {
		return nil, f.err
	}
	if f.aggregated == nil {
		return nil, errors.New("no aggregated weave stubbed")
	}
	return f.aggregated, nil
}

func (f *fakeService) GetWeaveSegment(ctx context.Context, id string, opts ports.SegmentOptions) (*ports.Segment, error) {
	f.record("GetWeaveSegment")
	if f.segmentFn == nil {
		return nil, errors.New("no segment stubbed")
	}
	return f.segmentFn(ctx, id, opts)
}

func (f *fakeService) CreateNode(ctx context.Context, weaveID string, input ports.NodeInput) (*ports.NodeMutationResult, error) {
	f.record("CreateNode")
	if f.createNodeFn == nil {
		return nil, errors.New("no create node stubbed")
	}
	return f.createNodeFn(ctx, weaveID, input)
}

func (f *fakeService) UpdateNode(ctx context.Context, weaveID, nodeID string, input ports.NodeInput) (*ports.NodeMutationResult, error) {
	f.record("UpdateNode")
	if f.updateNodeFn == nil {
		return nil, errors.New("no update node stubbed")
	}
	return f.updateNodeFn(ctx, weaveID, nodeID, input)
}

func (f *fakeService) DeleteNode(ctx context.Context, weaveID, nodeID string) (*ports.NodeDeletionResult, error) {
	f.record("DeleteNode")
	if f.deleteNodeFn == nil {
		return nil, errors.New("no delete node stubbed")
	}
	return f.deleteNodeFn(ctx, weaveID, nodeID)
}

func (f *fakeService) CreateEdge(ctx context.Context, weaveID string, input ports.EdgeInput) (*ports.EdgeMutationResult, error) {
	f.record("CreateEdge")
	if f.createEdgeFn == nil {
		return nil, errors.New("no create edge stubbed")
	}
	return f.createEdgeFn(ctx, weaveID, input)
}

func (f *fakeService) UpdateEdge(ctx context.Context, weaveID, edgeID string, input ports.EdgeInput) (*ports.EdgeMutationResult, error) {
	f.record("UpdateEdge")
	if f.updateEdgeFn == nil {
		return nil, errors.New("no update edge stubbed")
	}
	return f.updateEdgeFn(ctx, weaveID, edgeID, input)
}

func (f *fakeService) DeleteEdge(ctx context.Context, weaveID, edgeID string) (*ports.EdgeDeletionResult, error) {
	f.record("DeleteEdge")
	if f.deleteEdgeFn == nil {
		return nil, errors.New("no delete edge stubbed")
	}
	return f.deleteEdgeFn(ctx, weaveID, edgeID)
}

// fakeSnapshots is an in-memory SnapshotStore double
type fakeSnapshots struct {
	mu   sync.Mutex
	data map[string]*ports.RawWeave
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{data: make(map[string]*ports.RawWeave)}
}

func (f *fakeSnapshots) Save(ctx context.Context, weaveID string, snapshot *ports.RawWeave) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[weaveID] = snapshot
	return nil
}

func (f *fakeSnapshots) Load(ctx context.Context, weaveID string) (*ports.RawWeave, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if raw, ok := f.data[weaveID]; ok {
		return raw, nil
	}
	return nil, pkgerrors.NewNotFoundError("snapshot")
}

func (f *fakeSnapshots) Close() error { return nil }

func rawNode(id string, x, y float64) ports.RawNode {
	return ports.RawNode{
		ID:       id,
		Type:     "concept",
		Title:    "Node " + id,
		Position: &ports.RawPosition{X: x, Y: y},
	}
}

func rawEdge(source, target string) ports.RawEdge {
	return ports.RawEdge{Source: source, Target: target}
}

// testWeave is a two-node, one-edge snapshot used across tests
func testWeave(id string) *ports.RawWeave {
	return &ports.RawWeave{
		ID:   id,
		Name: "Weave " + id,
		Nodes: []ports.RawNode{
			rawNode("a", 0, 0),
			rawNode("b", 10, 0),
		},
		Edges:       []ports.RawEdge{rawEdge("a", "b")},
		Communities: [][]string{{"a", "b"}},
	}
}

func newTestStore(t *testing.T, svc *fakeService, opts ...Option) *CacheStore {
	t.Helper()
	return NewCacheStore(svc, zap.NewNop(), opts...)
}

func TestInitialize_EditableWeave(t *testing.T) {
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{"w1": testWeave("w1")}}
	s := newTestStore(t, svc)

	require.NoError(t, s.Initialize(context.Background(), "w1"))

	assert.Equal(t, "w1", s.ActiveWeaveID())
	assert.False(t, s.ReadOnly())
	assert.False(t, s.Loading())
	assert.Empty(t, s.Err())
	assert.Equal(t, "Weave w1", s.WeaveName())
	assert.Len(t, s.Nodes(), 2)
	assert.Len(t, s.Edges(), 1)

	_, ok := s.Edge("a->b:related")
	assert.True(t, ok)

	clustersByID := s.Clusters()
	require.Len(t, clustersByID, 1)
	assert.Equal(t, "cluster-0", clustersByID[0].ID)

	node, ok := s.Node("a")
	require.True(t, ok)
	assert.Equal(t, "cluster-0", node.ClusterID)
}

func TestInitialize_AggregateIsReadOnly(t *testing.T) {
	svc := &fakeService{
		weaves:     []*ports.RawWeave{testWeave("w1"), testWeave("w2")},
		aggregated: testWeave(""),
	}
	s := newTestStore(t, svc)

	require.NoError(t, s.Initialize(context.Background(), ""))

	assert.Empty(t, s.ActiveWeaveID())
	assert.True(t, s.ReadOnly())
	assert.Len(t, s.AvailableWeaves(), 2)
	assert.Equal(t, 1, svc.count("ListWeaves"))
	assert.Equal(t, 1, svc.count("GetAggregatedWeave"))

	// The listing is cached across re-initializations.
	require.NoError(t, s.Initialize(context.Background(), ""))
	assert.Equal(t, 1, svc.count("ListWeaves"))
	assert.Equal(t, 2, svc.count("GetAggregatedWeave"))
}

func TestInitialize_FailureRecordedOnState(t *testing.T) {
	svc := &fakeService{err: errors.New("connection refused")}
	s := newTestStore(t, svc)

	err := s.Initialize(context.Background(), "w1")

	require.Error(t, err)
	assert.False(t, s.Loading())
	assert.Contains(t, s.Err(), "connection refused")
}

func TestInitialize_ResetsSelection(t *testing.T) {
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{"w1": testWeave("w1")}}
	s := newTestStore(t, svc)

	require.NoError(t, s.Initialize(context.Background(), "w1"))
	s.SelectNodes([]string{"a"})
	require.NotEmpty(t, s.SelectedNodeIDs())

	require.NoError(t, s.Initialize(context.Background(), "w1"))
	assert.Empty(t, s.SelectedNodeIDs())
}

func TestRefresh_UsesActiveWeave(t *testing.T) {
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{"w1": testWeave("w1")}}
	s := newTestStore(t, svc)

	require.NoError(t, s.Initialize(context.Background(), "w1"))
	require.NoError(t, s.Refresh(context.Background()))

	assert.Equal(t, 2, svc.count("GetWeaveByID"))
	assert.Equal(t, "w1", s.ActiveWeaveID())
}

func TestSetActiveWeave_DiscardsPriorCache(t *testing.T) {
	w2 := &ports.RawWeave{
		ID:    "w2",
		Name:  "Weave w2",
		Nodes: []ports.RawNode{rawNode("x", 5, 5)},
	}
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{
		"w1": testWeave("w1"),
		"w2": w2,
	}}
	s := newTestStore(t, svc)

	require.NoError(t, s.Initialize(context.Background(), "w1"))
	s.SelectNodes([]string{"a"})

	require.NoError(t, s.SetActiveWeave(context.Background(), "w2"))

	assert.Equal(t, "w2", s.ActiveWeaveID())
	assert.Empty(t, s.SelectedNodeIDs())
	assert.Len(t, s.Nodes(), 1)
	_, hadOld := s.Node("a")
	assert.False(t, hadOld)

	// Positions from the old weave must not bleed into the new one via
	// the sticky fallback.
	node, ok := s.Node("x")
	require.True(t, ok)
	require.NotNil(t, node.Position)
	assert.Equal(t, 5.0, node.Position.X)
}

func TestSetActiveWeave_FailedSwitchLeavesNoActiveWeave(t *testing.T) {
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{"w1": testWeave("w1")}}
	s := newTestStore(t, svc)
	require.NoError(t, s.Initialize(context.Background(), "w1"))

	err := s.SetActiveWeave(context.Background(), "missing")
	require.Error(t, err)

	// The old weave is gone with its cache; the store must not report it
	// as active and editable over an empty projection.
	assert.Empty(t, s.ActiveWeaveID())
	assert.True(t, s.ReadOnly())
	assert.Empty(t, s.Nodes())

	editErr := s.EnsureEditable()
	require.Error(t, editErr)
	assert.Contains(t, editErr.Error(), "no weave selected")
}

func TestSetClusteringEnabled_ReappliesWithoutNetwork(t *testing.T) {
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{"w1": testWeave("w1")}}
	s := newTestStore(t, svc)

	require.NoError(t, s.Initialize(context.Background(), "w1"))
	callsAfterInit := svc.totalCalls()

	s.SetClusteringEnabled(false)
	assert.Empty(t, s.Clusters())
	node, _ := s.Node("a")
	assert.Empty(t, node.ClusterID)

	s.SetClusteringEnabled(true)
	require.Len(t, s.Clusters(), 1)
	node, _ = s.Node("a")
	assert.Equal(t, "cluster-0", node.ClusterID)

	assert.Equal(t, callsAfterInit, svc.totalCalls())
}

func TestSetClusteringEnabled_SegmentOnlyCache(t *testing.T) {
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{"w1": testWeave("w1")}}
	s := newTestStore(t, svc)
	require.NoError(t, s.Initialize(context.Background(), "w1"))

	// Rebuild the cache purely from a segment so no full snapshot is held.
	s.mu.Lock()
	s.weave = nil
	s.lastSnapshot = nil
	s.clusterRecords = nil
	s.mu.Unlock()

	stubSegment(svc, &ports.Segment{
		Nodes:       []ports.RawNode{rawNode("a", 0, 0), rawNode("b", 10, 0)},
		Communities: [][]string{{"a", "b"}},
	})
	require.NoError(t, s.LoadSegment(context.Background(), ports.SegmentOptions{}))

	node, ok := s.Node("a")
	require.True(t, ok)
	require.Equal(t, "cluster-0", node.ClusterID)

	s.SetClusteringEnabled(false)
	assert.Empty(t, s.Clusters())
	node, _ = s.Node("a")
	assert.Empty(t, node.ClusterID)

	s.SetClusteringEnabled(true)
	require.Len(t, s.Clusters(), 1)
	node, _ = s.Node("a")
	assert.Equal(t, "cluster-0", node.ClusterID)

	assert.Equal(t, 1, svc.count("GetWeaveSegment"))
}

func TestSetClusteringEnabled_SegmentMergedWhileDisabled(t *testing.T) {
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{"w1": testWeave("w1")}}
	s := newTestStore(t, svc, WithClusteringDisabled())
	require.NoError(t, s.Initialize(context.Background(), "w1"))

	s.mu.Lock()
	s.weave = nil
	s.lastSnapshot = nil
	s.mu.Unlock()

	stubSegment(svc, &ports.Segment{
		Nodes:       []ports.RawNode{rawNode("a", 0, 0)},
		Communities: [][]string{{"a"}},
	})
	require.NoError(t, s.LoadSegment(context.Background(), ports.SegmentOptions{}))

	node, ok := s.Node("a")
	require.True(t, ok)
	assert.Empty(t, node.ClusterID)
	assert.Empty(t, s.Clusters())

	// The segment's communities were retained, so re-enabling can
	// re-derive without a fetch.
	s.SetClusteringEnabled(true)
	require.Len(t, s.Clusters(), 1)
	node, _ = s.Node("a")
	assert.Equal(t, "cluster-0", node.ClusterID)
}

func TestWithClusteringDisabled_StartsOff(t *testing.T) {
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{"w1": testWeave("w1")}}
	s := newTestStore(t, svc, WithClusteringDisabled())

	require.NoError(t, s.Initialize(context.Background(), "w1"))

	assert.False(t, s.ClusteringEnabled())
	assert.Empty(t, s.Clusters())
}

func TestEnsureEditable_DistinguishesCauses(t *testing.T) {
	svc := &fakeService{
		weaves:     []*ports.RawWeave{},
		aggregated: testWeave(""),
	}
	s := newTestStore(t, svc)

	// Nothing loaded at all.
	err := s.EnsureEditable()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsReadOnly(err))
	assert.Contains(t, err.Error(), "no weave selected")

	// Aggregated view active.
	require.NoError(t, s.Initialize(context.Background(), ""))
	err = s.EnsureEditable()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsReadOnly(err))
	assert.Contains(t, err.Error(), "aggregated view is read-only")
}

func TestInitialize_WarmStartFromSnapshot(t *testing.T) {
	snapshots := newFakeSnapshots()
	require.NoError(t, snapshots.Save(context.Background(), "w1", testWeave("w1")))

	svc := &fakeService{err: errors.New("connection refused")}
	s := newTestStore(t, svc, WithSnapshotStore(snapshots))

	require.NoError(t, s.Initialize(context.Background(), "w1"))

	assert.Equal(t, "w1", s.ActiveWeaveID())
	assert.Len(t, s.Nodes(), 2)
	assert.Empty(t, s.Err())
}

func TestInitialize_WarmStartAggregate(t *testing.T) {
	snapshots := newFakeSnapshots()
	require.NoError(t, snapshots.Save(context.Background(), "__aggregate__", testWeave("")))

	// Listing succeeds, the aggregate fetch itself fails.
	svc := &fakeService{weaves: []*ports.RawWeave{}}
	s := newTestStore(t, svc, WithSnapshotStore(snapshots))

	require.NoError(t, s.Initialize(context.Background(), ""))
	assert.True(t, s.ReadOnly())
	assert.Len(t, s.Nodes(), 2)
}

func TestInitialize_WarmStartAggregateFullyOffline(t *testing.T) {
	snapshots := newFakeSnapshots()
	require.NoError(t, snapshots.Save(context.Background(), "__aggregate__", testWeave("")))

	// Cold start with every remote call failing, listing included.
	svc := &fakeService{err: errors.New("connection refused")}
	s := newTestStore(t, svc, WithSnapshotStore(snapshots))

	require.NoError(t, s.Initialize(context.Background(), ""))

	assert.True(t, s.ReadOnly())
	assert.Len(t, s.Nodes(), 2)
	assert.Empty(t, s.Err())
	// The listing stays unfetched so a later refresh retries it.
	assert.Nil(t, s.AvailableWeaves())
}

func TestInitialize_PersistsSnapshotOnSuccess(t *testing.T) {
	snapshots := newFakeSnapshots()
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{"w1": testWeave("w1")}}
	s := newTestStore(t, svc, WithSnapshotStore(snapshots))

	require.NoError(t, s.Initialize(context.Background(), "w1"))

	saved, err := snapshots.Load(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "w1", saved.ID)
}

func TestSnapshot_AtomicView(t *testing.T) {
	svc := &fakeService{weaveByID: map[string]*ports.RawWeave{"w1": testWeave("w1")}}
	s := newTestStore(t, svc)

	require.NoError(t, s.Initialize(context.Background(), "w1"))
	s.SelectNodes([]string{"b", "a"})

	snap := s.Snapshot()
	assert.Equal(t, "w1", snap.WeaveID)
	assert.Equal(t, "Weave w1", snap.WeaveName)
	assert.False(t, snap.ReadOnly)
	assert.Len(t, snap.Nodes, 2)
	assert.Len(t, snap.Edges, 1)
	assert.Equal(t, []string{"a", "b"}, snap.SelectedNodes)
	require.Len(t, snap.Clusters, 1)
}
