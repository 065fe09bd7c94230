package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"resumecraft/internal/errors"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig == nil || s.AppConfig.Observability.HealthCheck.Timeout <= 0 {
		return 2 * time.Second
	}
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler reports the backend circuit breaker and the session store.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumecraft",
		"version": s.Version,
	}

	backendHealthy := s.Backend.Healthy()
	response["backend"] = map[string]any{
		"healthy":         backendHealthy,
		"circuit_breaker": s.Backend.BreakerStats(),
	}

	sessionStatus := s.checkSessionHealth(r.Context())
	response["sessions"] = sessionStatus

	response["templates"] = len(s.Templates.List())
	response["workspaces"] = s.Workspaces.Len()

	status := http.StatusOK
	if !backendHealthy || sessionStatus["healthy"] == false {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkSessionHealth pings stores that support it.
func (s *Server) checkSessionHealth(ctx context.Context) map[string]any {
	pinger, ok := s.Sessions.(interface{ Ping(context.Context) error })
	if !ok {
		return map[string]any{"healthy": true, "backend": "memory"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.getHealthCheckTimeout())
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		return map[string]any{
			"healthy": false,
			"backend": "redis",
			"error":   fmt.Sprintf("Failed to reach session store: %v", err),
		}
	}
	return map[string]any{"healthy": true, "backend": "redis"}
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumecraft",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"workspaces": map[string]any{
			"open": s.Workspaces.Len(),
		},
		"export": map[string]any{
			"strategy": string(s.Exporter.Strategy()),
		},
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeFileTooLarge,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return errors.NewIOError(errors.ErrCodeInvalidRequest, "failed to read request body", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to parse JSON", err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing more can be sent.
		return
	}
}

// writeAppError maps err to its HTTP status and error code.
func writeAppError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	response := ErrorResponse{Error: http.StatusText(status), Message: err.Error()}
	if appErr, ok := errors.As(err); ok {
		response.Code = appErr.Code
		response.Message = appErr.Message
	}
	writeJSON(w, status, response)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
