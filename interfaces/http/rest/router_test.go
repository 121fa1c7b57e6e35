package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weaveclient/application/ports"
	"weaveclient/application/services"
	"weaveclient/application/store"
)

// bridgeService is a canned WeaveService backing the bridge under test
type bridgeService struct {
	weave *ports.RawWeave
}

func (b *bridgeService) ListWeaves(ctx context.Context) ([]*ports.RawWeave, error) {
	return []*ports.RawWeave{b.weave}, nil
}

func (b *bridgeService) GetWeaveByID(ctx context.Context, id string) (*ports.RawWeave, error) {
	return b.weave, nil
}

func (b *bridgeService) GetAggregatedWeave(ctx context.Context) (*ports.RawWeave, error) {
	return b.weave, nil
}

func (b *bridgeService) GetWeaveSegment(ctx context.Context, id string, opts ports.SegmentOptions) (*ports.Segment, error) {
	return &ports.Segment{}, nil
}

func (b *bridgeService) CreateNode(ctx context.Context, weaveID string, input ports.NodeInput) (*ports.NodeMutationResult, error) {
	node := ports.RawNode{ID: "created", Title: input.Title}
	weave := *b.weave
	weave.Nodes = append(append([]ports.RawNode{}, b.weave.Nodes...), node)
	return &ports.NodeMutationResult{Weave: &weave, Node: &node}, nil
}

func (b *bridgeService) UpdateNode(ctx context.Context, weaveID, nodeID string, input ports.NodeInput) (*ports.NodeMutationResult, error) {
	return nil, errors.New("not implemented")
}

func (b *bridgeService) DeleteNode(ctx context.Context, weaveID, nodeID string) (*ports.NodeDeletionResult, error) {
	return nil, errors.New("not implemented")
}

func (b *bridgeService) CreateEdge(ctx context.Context, weaveID string, input ports.EdgeInput) (*ports.EdgeMutationResult, error) {
	return nil, errors.New("not implemented")
}

func (b *bridgeService) UpdateEdge(ctx context.Context, weaveID, edgeID string, input ports.EdgeInput) (*ports.EdgeMutationResult, error) {
	return nil, errors.New("not implemented")
}

func (b *bridgeService) DeleteEdge(ctx context.Context, weaveID, edgeID string) (*ports.EdgeDeletionResult, error) {
	return nil, errors.New("not implemented")
}

func newBridge(t *testing.T, weaveID string) http.Handler {
	t.Helper()

	svc := &bridgeService{weave: &ports.RawWeave{
		ID:   "w1",
		Name: "Research",
		Nodes: []ports.RawNode{
			{ID: "a", Title: "A", Position: &ports.RawPosition{X: 0, Y: 0}},
			{ID: "b", Title: "B", Position: &ports.RawPosition{X: 10, Y: 0}},
		},
		Edges: []ports.RawEdge{{Source: "a", Target: "b"}},
	}}

	logger := zap.NewNop()
	cacheStore := store.NewCacheStore(svc, logger)
	require.NoError(t, cacheStore.Initialize(context.Background(), weaveID))
	editor := services.NewWeaveEditor(cacheStore, logger)

	return NewRouter(cacheStore, editor, logger, false).Setup()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestHealth(t *testing.T) {
	bridge := newBridge(t, "w1")

	rec := doJSON(t, bridge, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	decodeData(t, rec, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "w1", health["weave_id"])
}

func TestGetState(t *testing.T) {
	bridge := newBridge(t, "w1")

	rec := doJSON(t, bridge, http.MethodGet, "/api/v1/state", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var state store.StateSnapshot
	decodeData(t, rec, &state)
	assert.Equal(t, "w1", state.WeaveID)
	assert.False(t, state.ReadOnly)
	assert.Len(t, state.Nodes, 2)
	assert.Len(t, state.Edges, 1)
}

func TestSelectionRoundTrip(t *testing.T) {
	bridge := newBridge(t, "w1")

	rec := doJSON(t, bridge, http.MethodPost, "/api/v1/selection/nodes", map[string][]string{
		"ids": {"a", "ghost"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]string
	decodeData(t, rec, &body)
	assert.Equal(t, []string{"a"}, body["selected_nodes"])
}

func TestFocusProtocol(t *testing.T) {
	bridge := newBridge(t, "w1")

	// Nothing pending yet.
	rec := doJSON(t, bridge, http.MethodGet, "/api/v1/focus", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Select both nodes and focus the selection.
	doJSON(t, bridge, http.MethodPost, "/api/v1/selection/nodes", map[string][]string{"ids": {"a", "b"}})
	rec = doJSON(t, bridge, http.MethodPost, "/api/v1/focus/selection", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var target struct {
		Center struct{ X, Y, Z float64 } `json:"center"`
		Radius float64                   `json:"radius"`
		Nonce  uint64                    `json:"nonce"`
	}
	decodeData(t, rec, &target)
	assert.Equal(t, 5.0, target.Center.X)
	assert.Equal(t, 20.0, target.Radius)

	// Acknowledge consumes it.
	rec = doJSON(t, bridge, http.MethodPost, "/api/v1/focus/ack", map[string]uint64{"nonce": target.Nonce})
	require.Equal(t, http.StatusOK, rec.Code)
	var ack map[string]bool
	decodeData(t, rec, &ack)
	assert.True(t, ack["consumed"])

	rec = doJSON(t, bridge, http.MethodGet, "/api/v1/focus", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateNodeThroughBridge(t *testing.T) {
	bridge := newBridge(t, "w1")

	rec := doJSON(t, bridge, http.MethodPost, "/api/v1/nodes/", map[string]string{"title": "New"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var node struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &node)
	assert.Equal(t, "created", node.ID)
}

func TestMutationRejectedInAggregateMode(t *testing.T) {
	bridge := newBridge(t, "")

	rec := doJSON(t, bridge, http.MethodPost, "/api/v1/nodes/", map[string]string{"title": "New"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var envelope struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "READ_ONLY", envelope.Error.Code)
}

func TestInvalidBodyRejected(t *testing.T) {
	bridge := newBridge(t, "w1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/selection/nodes", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	bridge.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
