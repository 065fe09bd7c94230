package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"resumecraft/internal/observability"
	"resumecraft/internal/templates"
)

// minSweepInterval bounds how often expired workspaces are swept.
const minSweepInterval = time.Minute

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives.
func (s *Server) Start(ctx context.Context) error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	httpServer, err := s.setupHTTPServer(om)
	if err != nil {
		return err
	}

	if s.TLSConfig.Enabled() {
		if httpServer.TLSConfig, err = s.TLSConfig.Build(); err != nil {
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	s.Workspaces.Start(s.sweepInterval())

	watcher, err := s.startTemplateWatcher()
	if err != nil {
		return err
	}
	if watcher != nil {
		defer func() {
			if err := watcher.Stop(); err != nil {
				s.Logger.LogError(err, "Failed to stop template watcher")
			}
		}()
	}

	s.displayServerInfo(om)

	return s.startWithGracefulShutdown(ctx, httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)

	om, err := observability.NewObservabilityManager(obsConfig, s.AppConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	if err := om.RegisterBreakerGauge(s.Backend.Healthy); err != nil {
		s.Logger.LogError(err, "Failed to register circuit breaker gauge")
	}

	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) (*http.Server, error) {
	handler := om.HTTPMiddleware()(s.Handler(om))
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}, nil
}

func (s *Server) sweepInterval() time.Duration {
	interval := s.AppConfig.Editor.WorkspaceTTL / 4
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	return interval
}

// startTemplateWatcher reloads descriptors when the template directory
// changes. It returns nil when watching is off.
func (s *Server) startTemplateWatcher() (*templates.Watcher, error) {
	cfg := s.AppConfig.Templates
	if !cfg.Watch || cfg.Dir == "" {
		return nil, nil
	}
	watcher := templates.NewWatcher(cfg.Dir, s.Templates, cfg.DebounceDelay, func() {
		s.Logger.Info("Templates reloaded", "count", len(s.Templates.List()))
	}, s.Logger)
	if err := watcher.Start(); err != nil {
		return nil, fmt.Errorf("failed to watch templates: %w", err)
	}
	return watcher, nil
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// Certificates are already loaded into the TLS config.
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"reason", context.Cause(ctx).Error())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.Logger.Info("Shutting down HTTP server...")
	err := server.Shutdown(shutdownCtx)

	// Workspaces, rate limiter and session store
	s.Close()

	if err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}
