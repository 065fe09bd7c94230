package server

import (
	"net/http"

	"resumecraft/internal/observability"
	"resumecraft/internal/viewer"
)

// Handler builds the request router. A nil om disables instrumentation.
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	if om == nil {
		om, _ = observability.NewObservabilityManager(observability.ObservabilityConfig{}, s.AppConfig)
	}
	if s.Loader == nil {
		metrics := om.GetMetrics()
		s.Loader = viewer.NewLoader(trackedFetcher{backend: s.Backend, metrics: metrics}, s.Logger,
			viewer.WithTimeout(s.AppConfig.Backend.Timeout),
			viewer.WithObserver(observability.ViewObserver(metrics)))
	}
	return s.setupRoutes(om)
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.createRateLimitMiddleware(om)
	sizeLimit := s.requestSizeLimitMiddleware()

	// api guards JSON endpoints with rate limiting, API keys and the body
	// size limit.
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(s.authMiddleware(sizeLimit(h)))
	}
	// page applies the limits without API keys; visitors use the session
	// cookie instead.
	page := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(sizeLimit(h))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	if h := om.MetricsHandler(); h != nil {
		mux.Handle("GET "+om.MetricsEndpoint(), h)
	}

	mux.HandleFunc("GET /auth/google", s.googleLogin)

	// owned pages are limited to the visitor that opened the workspace.
	owned := func(h http.HandlerFunc) http.HandlerFunc {
		return page(s.ownedWorkspace(h))
	}

	mux.HandleFunc("GET /workspaces/{id}", owned(s.workspacePageHandler))
	mux.HandleFunc("POST /workspaces/{id}", owned(s.createWorkspaceFormHandler(om)))
	mux.HandleFunc("GET /workspaces/{id}/view", owned(s.workspaceViewHandler))
	mux.HandleFunc("GET /workspaces/{id}/export", owned(s.createWorkspaceExportHandler(om)))

	mux.HandleFunc("GET /api/templates", api(s.apiTemplatesHandler))
	mux.HandleFunc("GET /api/roles", api(s.createRolesHandler(om)))
	mux.HandleFunc("POST /api/analyze", api(s.createAnalyzeHandler(om)))
	mux.HandleFunc("GET /api/views/{templateId}/{analysisId}", api(s.createViewHandler(om)))
	mux.HandleFunc("POST /api/workspaces", api(s.createWorkspaceHandler(om)))
	mux.HandleFunc("GET /api/workspaces/{id}", api(s.getWorkspaceHandler))
	mux.HandleFunc("DELETE /api/workspaces/{id}", api(s.deleteWorkspaceHandler))
	mux.HandleFunc("POST /api/workspaces/{id}/ops", api(s.createWorkspaceOpHandler(om)))
	mux.HandleFunc("GET /api/workspaces/{id}/render", api(s.renderWorkspaceHandler))
	mux.HandleFunc("POST /api/workspaces/{id}/export", api(s.createExportHandler(om)))
	mux.HandleFunc("POST /api/jobs/recommendations", api(s.createRecommendationsHandler(om)))
	mux.HandleFunc("POST /api/auth/login", api(s.apiLoginHandler))
	mux.HandleFunc("POST /api/auth/signup", api(s.apiSignupHandler))
	mux.HandleFunc("POST /api/auth/logout", api(s.apiLogoutHandler))
	mux.HandleFunc("GET /api/session", api(s.apiSessionHandler))

	mux.HandleFunc("/", page(s.createPageHandler(om)))

	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
