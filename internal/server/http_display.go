package server

import (
	"fmt"

	"resumecraft/internal/observability"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo(om *observability.ObservabilityManager) {
	s.displayEndpoints(om)
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
	s.displayExportInfo()
}

// displayEndpoints shows available endpoints
func (s *Server) displayEndpoints(om *observability.ObservabilityManager) {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                          - Health check")
	fmt.Println("  GET    /stats                           - Server statistics")
	if om.MetricsHandler() != nil {
		fmt.Printf("  GET    %-32s - Prometheus metrics\n", om.MetricsEndpoint())
	}
	fmt.Println("  GET    /                                - Site pages")
	for _, d := range s.Templates.List() {
		fmt.Printf("  GET    %-32s - %s template\n", d.Route()+"/{analysisId}", d.Name)
	}
	fmt.Println("  GET    /resume_writer                   - Start a resume from scratch")
	fmt.Println("  GET    /workspaces/{id}                 - Resume editor")
	fmt.Println("  GET    /workspaces/{id}/export          - Print or download a resume")
	fmt.Println("  GET    /api/templates                   - List templates (requires API key)")
	fmt.Println("  GET    /api/roles                       - List target roles (requires API key)")
	fmt.Println("  POST   /api/analyze                     - Analyze a resume upload (requires API key)")
	fmt.Println("  POST   /api/workspaces                  - Open an analysis for editing (requires API key)")
	fmt.Println("  POST   /api/workspaces/{id}/ops         - Apply an editor operation (requires API key)")
	fmt.Println("  GET    /api/workspaces/{id}/render      - Render as html, text, markdown or json (requires API key)")
	fmt.Println("  POST   /api/workspaces/{id}/export      - Export a workspace (requires API key)")
	fmt.Println("  POST   /api/jobs/recommendations        - Score job listings (requires API key)")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /api/*")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
	if s.AppConfig.Auth.GoogleClientID != "" {
		fmt.Println("Google sign-in: ENABLED")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}
}

func (s *Server) displayExportInfo() {
	fmt.Printf("Export strategy: %s\n", s.Exporter.Strategy())
	if sink := s.AppConfig.Export.Sink; sink != "" {
		fmt.Printf("Export sink: %s\n", sink)
	}
}
