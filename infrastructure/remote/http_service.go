// Package remote implements the WeaveService contract over the remote
// service's REST API. The transport carries a circuit breaker so a
// failing service sheds load quickly instead of piling up requests; no
// retries happen here, retry policy belongs to the calling layer.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"weaveclient/application/ports"
	pkgerrors "weaveclient/pkg/errors"
)

// responseEnvelope is the service's standard JSON envelope
type responseEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *errorInfo      `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPWeaveService talks to the remote weave service over REST. Each
// instance carries a stable client id so the service can correlate the
// requests of one cache session in its logs.
type HTTPWeaveService struct {
	baseURL  string
	clientID string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewHTTPWeaveService creates a REST client for the weave service
func NewHTTPWeaveService(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPWeaveService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weave-service",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &HTTPWeaveService{
		baseURL:  baseURL,
		clientID: uuid.NewString(),
		client:   &http.Client{Timeout: timeout},
		breaker:  breaker,
		logger:   logger,
	}
}

// ListWeaves returns summaries of every weave available to the client
func (s *HTTPWeaveService) ListWeaves(ctx context.Context) ([]*ports.RawWeave, error) {
	var weaves []*ports.RawWeave
	if err := s.doJSON(ctx, http.MethodGet, "/api/v2/weaves", nil, &weaves); err != nil {
		return nil, err
	}
	return weaves, nil
}

// GetWeaveByID returns a full snapshot of a single weave
func (s *HTTPWeaveService) GetWeaveByID(ctx context.Context, id string) (*ports.RawWeave, error) {
	var weave ports.RawWeave
	path := "/api/v2/weaves/" + url.PathEscape(id)
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &weave); err != nil {
		return nil, err
	}
	return &weave, nil
}

// GetAggregatedWeave returns the read-only cross-weave merged view
func (s *HTTPWeaveService) GetAggregatedWeave(ctx context.Context) (*ports.RawWeave, error) {
	var weave ports.RawWeave
	if err := s.doJSON(ctx, http.MethodGet, "/api/v2/weaves/aggregate", nil, &weave); err != nil {
		return nil, err
	}
	return &weave, nil
}

// GetWeaveSegment returns a partial slice of a weave
func (s *HTTPWeaveService) GetWeaveSegment(ctx context.Context, id string, opts ports.SegmentOptions) (*ports.Segment, error) {
	var segment ports.Segment
	path := "/api/v2/weaves/" + url.PathEscape(id) + "/segment"
	if err := s.doJSON(ctx, http.MethodPost, path, opts, &segment); err != nil {
		return nil, err
	}
	return &segment, nil
}

// CreateNode adds a node and returns the updated weave plus the node
func (s *HTTPWeaveService) CreateNode(ctx context.Context, weaveID string, input ports.NodeInput) (*ports.NodeMutationResult, error) {
	var result ports.NodeMutationResult
	path := "/api/v2/weaves/" + url.PathEscape(weaveID) + "/nodes"
	if err := s.doJSON(ctx, http.MethodPost, path, input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateNode modifies a node and returns the updated weave plus the node
func (s *HTTPWeaveService) UpdateNode(ctx context.Context, weaveID, nodeID string, input ports.NodeInput) (*ports.NodeMutationResult, error) {
	var result ports.NodeMutationResult
	path := "/api/v2/weaves/" + url.PathEscape(weaveID) + "/nodes/" + url.PathEscape(nodeID)
	if err := s.doJSON(ctx, http.MethodPut, path, input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteNode removes a node and returns the updated weave plus removed edge ids
func (s *HTTPWeaveService) DeleteNode(ctx context.Context, weaveID, nodeID string) (*ports.NodeDeletionResult, error) {
	var result ports.NodeDeletionResult
	path := "/api/v2/weaves/" + url.PathEscape(weaveID) + "/nodes/" + url.PathEscape(nodeID)
	if err := s.doJSON(ctx, http.MethodDelete, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateEdge adds an edge and returns the updated weave plus the edge
func (s *HTTPWeaveService) CreateEdge(ctx context.Context, weaveID string, input ports.EdgeInput) (*ports.EdgeMutationResult, error) {
	var result ports.EdgeMutationResult
	path := "/api/v2/weaves/" + url.PathEscape(weaveID) + "/edges"
	if err := s.doJSON(ctx, http.MethodPost, path, input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateEdge modifies an edge and returns the updated weave plus the edge
func (s *HTTPWeaveService) UpdateEdge(ctx context.Context, weaveID, edgeID string, input ports.EdgeInput) (*ports.EdgeMutationResult, error) {
	var result ports.EdgeMutationResult
	path := "/api/v2/weaves/" + url.PathEscape(weaveID) + "/edges/" + url.PathEscape(edgeID)
	if err := s.doJSON(ctx, http.MethodPut, path, input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteEdge removes an edge and returns the updated weave
func (s *HTTPWeaveService) DeleteEdge(ctx context.Context, weaveID, edgeID string) (*ports.EdgeDeletionResult, error) {
	var result ports.EdgeDeletionResult
	path := "/api/v2/weaves/" + url.PathEscape(weaveID) + "/edges/" + url.PathEscape(edgeID)
	if err := s.doJSON(ctx, http.MethodDelete, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// doJSON executes one request through the circuit breaker and decodes
// the envelope's data into out
func (s *HTTPWeaveService) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	start := time.Now()

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.roundTrip(ctx, method, path, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return pkgerrors.NewUnavailableError("weave service temporarily unavailable")
		}
		return err
	}

	s.logger.Debug("weave service call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Duration("duration", time.Since(start)),
	)

	data := result.(json.RawMessage)
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return pkgerrors.NewExternalError("weave-service", fmt.Errorf("decoding %s %s: %w", method, path, err))
	}
	return nil
}

// roundTrip performs the HTTP exchange and unwraps the envelope
func (s *HTTPWeaveService) roundTrip(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.NewInternalError("encoding request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, pkgerrors.NewInternalError("building request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-ID", s.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, pkgerrors.NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.NewNetworkError(fmt.Sprintf("reading %s %s response", method, path), err)
	}

	var envelope responseEnvelope
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, pkgerrors.NewExternalError("weave-service", fmt.Errorf("malformed envelope: %w", err))
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.NewNotFoundError("resource").
			WithDetails(map[string]interface{}{"message": envelopeMessage(envelope, "not found")})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Success {
		return nil, pkgerrors.NewExternalError("weave-service",
			fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, envelopeMessage(envelope, "request failed")),
		)
	}

	return envelope.Data, nil
}

func envelopeMessage(envelope responseEnvelope, fallback string) string {
	if envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fallback
}
