// Package services hosts the mutation façade: the single place the
// editable-mode precondition and input validation are enforced before a
// structural edit reaches the cache store, instead of being duplicated
// across call sites.
package services

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"weaveclient/application/ports"
	"weaveclient/application/store"
	"weaveclient/domain/core/entities"
	pkgerrors "weaveclient/pkg/errors"
)

// WeaveEditor performs structural edits on the active weave through the
// cache store. Every edit requires editable mode; the check happens
// before any network call, so a forbidden edit costs zero round trips.
type WeaveEditor struct {
	store    *store.CacheStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewWeaveEditor creates the mutation façade
func NewWeaveEditor(cacheStore *store.CacheStore, logger *zap.Logger) *WeaveEditor {
	return &WeaveEditor{
		store:    cacheStore,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateNode validates and creates a node in the active weave
func (e *WeaveEditor) CreateNode(ctx context.Context, input ports.NodeInput) (*entities.Node, error) {
	if err := e.precheck(); err != nil {
		return nil, err
	}
	if err := e.validate.Struct(input); err != nil {
		return nil, pkgerrors.NewValidationError("invalid node input").WithCause(err)
	}
	return e.store.CreateNode(ctx, input)
}

// UpdateNode validates and updates a node in the active weave
func (e *WeaveEditor) UpdateNode(ctx context.Context, nodeID string, input ports.NodeInput) (*entities.Node, error) {
	if err := e.precheck(); err != nil {
		return nil, err
	}
	if nodeID == "" {
		return nil, pkgerrors.NewValidationError("node id is required")
	}
	if err := e.validate.Struct(input); err != nil {
		return nil, pkgerrors.NewValidationError("invalid node input").WithCause(err)
	}
	return e.store.UpdateNode(ctx, nodeID, input)
}

// DeleteNode removes a node from the active weave and returns the ids
// of removed edges
func (e *WeaveEditor) DeleteNode(ctx context.Context, nodeID string) ([]string, error) {
	if err := e.precheck(); err != nil {
		return nil, err
	}
	if nodeID == "" {
		return nil, pkgerrors.NewValidationError("node id is required")
	}
	return e.store.DeleteNode(ctx, nodeID)
}

// CreateEdge validates and creates an edge in the active weave
func (e *WeaveEditor) CreateEdge(ctx context.Context, input ports.EdgeInput) (*entities.Edge, error) {
	if err := e.precheck(); err != nil {
		return nil, err
	}
	if err := e.validate.Struct(input); err != nil {
		return nil, pkgerrors.NewValidationError("invalid edge input").WithCause(err)
	}
	return e.store.CreateEdge(ctx, input)
}

// UpdateEdge validates and updates an edge in the active weave
func (e *WeaveEditor) UpdateEdge(ctx context.Context, edgeID string, input ports.EdgeInput) (*entities.Edge, error) {
	if err := e.precheck(); err != nil {
		return nil, err
	}
	if edgeID == "" {
		return nil, pkgerrors.NewValidationError("edge id is required")
	}
	if err := e.validate.Struct(input); err != nil {
		return nil, pkgerrors.NewValidationError("invalid edge input").WithCause(err)
	}
	return e.store.UpdateEdge(ctx, edgeID, input)
}

// DeleteEdge removes an edge from the active weave
func (e *WeaveEditor) DeleteEdge(ctx context.Context, edgeID string) error {
	if err := e.precheck(); err != nil {
		return err
	}
	if edgeID == "" {
		return pkgerrors.NewValidationError("edge id is required")
	}
	return e.store.DeleteEdge(ctx, edgeID)
}

func (e *WeaveEditor) precheck() error {
	if err := e.store.EnsureEditable(); err != nil {
		e.logger.Debug("mutation rejected", zap.Error(err))
		return err
	}
	return nil
}
