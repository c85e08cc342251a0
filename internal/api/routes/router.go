package routes

import (
	"net/http"

	"github.com/peakgeo/sentinel-agent/internal/api/handlers"
	"github.com/peakgeo/sentinel-agent/internal/api/middleware"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	sceneHandler   *handlers.SceneHandler
	geocodeHandler *handlers.GeocodeHandler
	chatHandler    *handlers.ChatHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	sceneHandler *handlers.SceneHandler,
	geocodeHandler *handlers.GeocodeHandler,
	chatHandler *handlers.ChatHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		sceneHandler:   sceneHandler,
		geocodeHandler: geocodeHandler,
		chatHandler:    chatHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Scene download endpoints

	r.mux.HandleFunc("POST /api/scenes/radar/download", r.sceneHandler.DownloadRadar)

	r.mux.HandleFunc("POST /api/scenes/optical/download", r.sceneHandler.DownloadOptical)

	// Request history endpoints

	r.mux.HandleFunc("GET /api/requests", r.sceneHandler.ListRequests)

	r.mux.HandleFunc("GET /api/requests/{id}", r.sceneHandler.GetRequest)

	// Archive search endpoint

	r.mux.HandleFunc("GET /api/archive/search", r.sceneHandler.SearchArchive)

	// Geocoding endpoint

	r.mux.HandleFunc("GET /api/geocode", r.geocodeHandler.Geocode)

	// Chat agent endpoint

	r.mux.HandleFunc("POST /api/chat", r.chatHandler.Chat)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
