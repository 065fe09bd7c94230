package server

import (
	"context"
	"fmt"
	"time"

	"resumecraft/internal/backend"
	"resumecraft/internal/config"
	"resumecraft/internal/editor"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/export"
	"resumecraft/internal/formatters"
	"resumecraft/internal/jobs"
	"resumecraft/internal/session"
	"resumecraft/internal/templates"
	"resumecraft/internal/viewer"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Document pipeline. Loader is built by Handler when nil so that it
	// reports to the observability manager.
	Backend    *backend.Client
	Loader     *viewer.Loader
	Templates  *templates.Registry
	Renderer   *templates.Renderer
	Workspaces *editor.Registry
	Exporter   export.Exporter
	Sink       export.Sink
	Sessions   session.Store
	Formatters *formatters.FormatterRegistry
	Listings   []jobs.Listing

	pages *pageRenderer

	// Logger
	Logger *resumecraftErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// ServerConfigFrom copies the server section of the application config.
func ServerConfigFrom(appCfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           appCfg.Server.Host,
		Port:           appCfg.Server.Port,
		Version:        version,
		TLSConfig:      appCfg.Server.TLS,
		APIKeys:        appCfg.Server.APIKeys,
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxRequestSize: appCfg.Server.MaxBodySize,
		RateLimit:      &appCfg.Server.RateLimit,
	}
}

// Option replaces one of the dependencies NewServer would build.
type Option func(*Server)

// WithBackend uses c for every backend call.
func WithBackend(c *backend.Client) Option {
	return func(s *Server) { s.Backend = c }
}

// WithSessions uses store for visitor state.
func WithSessions(store session.Store) Option {
	return func(s *Server) { s.Sessions = store }
}

// WithExporter replaces the configured export strategy.
func WithExporter(e export.Exporter) Option {
	return func(s *Server) { s.Exporter = e }
}

// WithSink replaces the configured artifact sink.
func WithSink(sink export.Sink) Option {
	return func(s *Server) { s.Sink = sink }
}

// WithListings replaces the seeded job listings.
func WithListings(listings []jobs.Listing) Option {
	return func(s *Server) { s.Listings = listings }
}

// NewServer creates a new Server instance from a ServerConfig struct and
// builds every dependency not supplied through opts.
func NewServer(ctx context.Context, appCfg *config.Config, cfg ServerConfig, logger *resumecraftErrors.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = resumecraftErrors.Discard()
	}

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.buildDependencies(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) buildDependencies(ctx context.Context) error {
	cfg := s.AppConfig
	var err error

	if s.Backend == nil {
		s.Backend = backend.New(cfg, s.Logger)
	}

	if s.Templates == nil {
		s.Templates = templates.NewRegistry(cfg.Templates.Default, s.Logger)
		if cfg.Templates.Dir != "" {
			if err := s.Templates.LoadDir(cfg.Templates.Dir); err != nil {
				return fmt.Errorf("failed to load templates: %w", err)
			}
		}
	}
	if s.Renderer == nil {
		if s.Renderer, err = templates.NewRenderer(); err != nil {
			return err
		}
	}
	if s.pages, err = newPageRenderer(); err != nil {
		return err
	}
	if s.Formatters == nil {
		s.Formatters = formatters.NewFormatterRegistry(s.Renderer)
	}

	if s.Workspaces == nil {
		s.Workspaces = editor.NewRegistry(cfg.Editor.WorkspaceTTL, cfg.Editor.MaxWorkspaces, s.Logger,
			editor.WithHistoryDepth(cfg.Editor.HistoryDepth))
	}

	if s.Exporter == nil {
		s.Exporter, err = export.New(cfg.Export.Strategy, s.exportOptions())
		if err != nil {
			return err
		}
	}
	if s.Sink == nil {
		if s.Sink, err = export.NewSink(ctx, cfg, s.Logger); err != nil {
			return err
		}
	}

	if s.Sessions == nil {
		if s.Sessions, err = session.NewStore(ctx, cfg, s.Logger); err != nil {
			return err
		}
	}
	if s.Listings == nil {
		s.Listings = jobs.Seed()
	}
	return nil
}

func (s *Server) exportOptions() export.Options {
	return export.Options{
		ChromePath: s.AppConfig.Export.ChromePath,
		Timeout:    s.AppConfig.Export.Timeout,
		Logger:     s.Logger,
	}
}

// Close releases background resources. It is safe to call more than once.
func (s *Server) Close() {
	if s.Workspaces != nil {
		s.Workspaces.Close()
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.RateLimiter = nil
	}
	if closer, ok := s.Sessions.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close session store")
		}
	}
}
