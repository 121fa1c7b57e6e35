// Package rest is the renderer bridge: a local HTTP surface through
// which the visualization layer and the editor UI observe the cache
// store, replace selections, report viewport samples, and consume focus
// targets.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"weaveclient/application/services"
	"weaveclient/application/store"
	"weaveclient/interfaces/http/rest/handlers"
	"weaveclient/interfaces/http/rest/middleware"
	"weaveclient/pkg/common"
)

// Router creates and configures the HTTP router
type Router struct {
	store      *store.CacheStore
	editor     *services.WeaveEditor
	logger     *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(
	cacheStore *store.CacheStore,
	editor *services.WeaveEditor,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		store:      cacheStore,
		editor:     editor,
		logger:     logger,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"http://localhost:*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	stateHandler := handlers.NewStateHandler(rt.store, rt.logger)
	focusHandler := handlers.NewFocusHandler(rt.store, rt.logger)
	selectionHandler := handlers.NewSelectionHandler(rt.store, rt.logger)
	mutationHandler := handlers.NewMutationHandler(rt.editor, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", stateHandler.GetState)
		r.Get("/weaves", stateHandler.ListWeaves)
		r.Post("/weave", stateHandler.SetActiveWeave)
		r.Post("/refresh", stateHandler.Refresh)

		r.Get("/focus", focusHandler.GetFocus)
		r.Post("/focus", focusHandler.RequestFocus)
		r.Post("/focus/selection", focusHandler.FocusSelection)
		r.Post("/focus/ack", focusHandler.AcknowledgeFocus)

		r.Post("/selection/nodes", selectionHandler.SelectNodes)
		r.Post("/selection/edges", selectionHandler.SelectEdges)
		r.Post("/viewport", selectionHandler.ReportViewport)

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", mutationHandler.CreateNode)
			r.Put("/{nodeID}", mutationHandler.UpdateNode)
			r.Delete("/{nodeID}", mutationHandler.DeleteNode)
		})

		r.Route("/edges", func(r chi.Router) {
			r.Post("/", mutationHandler.CreateEdge)
			r.Put("/{edgeID}", mutationHandler.UpdateEdge)
			r.Delete("/{edgeID}", mutationHandler.DeleteEdge)
		})
	})

	return router
}

// healthCheck reports liveness plus a glance at the cache state
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"weave_id": rt.store.ActiveWeaveID(),
		"loading":  rt.store.Loading(),
	})
}
