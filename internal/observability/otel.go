package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resumecraft/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	SampleRate     float64
	Prometheus     PrometheusConfig
}

// Business metric types accepted by RecordBusinessMetric.
const (
	MetricDocumentLoaded = "document_loaded"
	MetricSectionEdited  = "section_edited"
	MetricResumeExported = "resume_exported"
	MetricJobScored      = "job_scored"
	MetricRateLimitHit   = "rate_limit_hit"
)

// Metrics holds all custom metrics for resumecraft
type Metrics struct {
	// Backend call metrics
	BackendDuration metric.Float64Histogram
	BackendRequests metric.Int64Counter
	BackendErrors   metric.Int64Counter

	// Document pipeline metrics
	DocumentsLoaded metric.Int64Counter
	SectionsEdited  metric.Int64Counter
	ResumesExported metric.Int64Counter
	ExportDuration  metric.Float64Histogram
	MatchScores     metric.Int64Histogram

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter

	fullConfig *config.Config
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config         ObservabilityConfig
	fullConfig     *config.Config
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
	metricsHandler http.Handler
}

// NewObservabilityManager creates a new observability manager
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	if !obsConfig.Enabled {
		return &ObservabilityManager{config: obsConfig, fullConfig: fullConfig}, nil
	}

	om := &ObservabilityManager{
		config:        obsConfig,
		fullConfig:    fullConfig,
		shutdownFuncs: make([]func(context.Context) error, 0),
	}

	if err := om.initResource(); err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := om.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

// initResource creates the OpenTelemetry resource shared by traces and metrics
func (om *ObservabilityManager) initResource() error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.getServiceInstanceID()),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	om.resource = res
	return nil
}

// initTracing sets up OpenTelemetry tracing
func (om *ObservabilityManager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case om.fullConfig != nil && !om.fullConfig.Observability.Tracing.Enabled:
		exporter = &noOpSpanExporter{}
	case om.config.ConsoleOutput:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled:
		exporter, err = om.createOTLPExporter()
	default:
		exporter = &noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.getSampleRate()))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)

	return nil
}

// initMetrics sets up OpenTelemetry metrics
func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	meterProviderOptions := []sdkmetric.Option{
		sdkmetric.WithResource(om.resource),
	}
	for _, reader := range readers {
		meterProviderOptions = append(meterProviderOptions, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(meterProviderOptions...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	return om.initCustomMetrics()
}

// setupMetricReaders sets up all metric readers based on configuration
func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if om.fullConfig == nil || om.fullConfig.Observability.Metrics.Enabled {
		if err := om.setupConsoleReader(&readers); err != nil {
			return nil, err
		}
		if err := om.setupOTLPReader(&readers); err != nil {
			return nil, err
		}
		if err := om.setupPrometheusReader(&readers); err != nil {
			return nil, err
		}
	}

	// Manual reader keeps the SDK usable when nothing exports
	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	return readers, nil
}

// setupConsoleReader sets up console metric reader if enabled
func (om *ObservabilityManager) setupConsoleReader(readers *[]sdkmetric.Reader) error {
	if !om.config.ConsoleOutput {
		return nil
	}

	exporter, err := stdoutmetric.New()
	if err != nil {
		return fmt.Errorf("failed to create console metric exporter: %w", err)
	}

	interval := om.getMetricsCollectionInterval()
	*readers = append(*readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	return nil
}

// setupOTLPReader sets up OTLP metric reader if enabled
func (om *ObservabilityManager) setupOTLPReader(readers *[]sdkmetric.Reader) error {
	if om.fullConfig == nil || !om.fullConfig.Observability.OTLP.Enabled {
		return nil
	}

	otlpReader, err := om.createOTLPMetricsReader()
	if err != nil {
		return fmt.Errorf("failed to create OTLP metrics reader: %w", err)
	}
	*readers = append(*readers, otlpReader)
	return nil
}

// setupPrometheusReader sets up the Prometheus reader and its scrape handler
func (om *ObservabilityManager) setupPrometheusReader(readers *[]sdkmetric.Reader) error {
	if !om.config.Prometheus.Enabled {
		return nil
	}

	reader, handler, err := SetupPrometheusExporter(om.config.Prometheus)
	if err != nil {
		return err
	}
	*readers = append(*readers, reader)
	om.metricsHandler = handler
	return nil
}

// initCustomMetrics creates all custom metrics for resumecraft
func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	om.metrics = &Metrics{fullConfig: om.fullConfig}

	if err := om.createBackendMetrics(meter); err != nil {
		return err
	}

	if err := om.createDocumentMetrics(meter); err != nil {
		return err
	}

	return om.createRateLimitMetrics(meter)
}

// createBackendMetrics creates metrics for calls to the resume backend
func (om *ObservabilityManager) createBackendMetrics(meter metric.Meter) error {
	var err error

	om.metrics.BackendDuration, err = meter.Float64Histogram(
		"resumecraft_backend_request_duration_seconds",
		metric.WithDescription("Time spent waiting for the resume backend"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend duration metric: %w", err)
	}

	om.metrics.BackendRequests, err = meter.Int64Counter(
		"resumecraft_backend_requests_total",
		metric.WithDescription("Total number of resume backend requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend request count metric: %w", err)
	}

	om.metrics.BackendErrors, err = meter.Int64Counter(
		"resumecraft_backend_errors_total",
		metric.WithDescription("Total number of failed resume backend requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend error count metric: %w", err)
	}

	return nil
}

// createDocumentMetrics creates document pipeline metrics
func (om *ObservabilityManager) createDocumentMetrics(meter metric.Meter) error {
	var err error

	om.metrics.DocumentsLoaded, err = meter.Int64Counter(
		"resumecraft_documents_loaded_total",
		metric.WithDescription("Total number of improved resumes loaded, by final view state"),
	)
	if err != nil {
		return fmt.Errorf("failed to create documents loaded metric: %w", err)
	}

	om.metrics.SectionsEdited, err = meter.Int64Counter(
		"resumecraft_edits_total",
		metric.WithDescription("Total number of editor operations"),
	)
	if err != nil {
		return fmt.Errorf("failed to create edits metric: %w", err)
	}

	om.metrics.ResumesExported, err = meter.Int64Counter(
		"resumecraft_exports_total",
		metric.WithDescription("Total number of resume exports"),
	)
	if err != nil {
		return fmt.Errorf("failed to create exports metric: %w", err)
	}

	om.metrics.ExportDuration, err = meter.Float64Histogram(
		"resumecraft_export_duration_seconds",
		metric.WithDescription("Time spent producing export artifacts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create export duration metric: %w", err)
	}

	om.metrics.MatchScores, err = meter.Int64Histogram(
		"resumecraft_job_match_score",
		metric.WithDescription("Distribution of job match scores"),
		metric.WithExplicitBucketBoundaries(20, 40, 60, 80, 100),
	)
	if err != nil {
		return fmt.Errorf("failed to create match score metric: %w", err)
	}

	return nil
}

// createRateLimitMetrics creates rate limiting metrics
func (om *ObservabilityManager) createRateLimitMetrics(meter metric.Meter) error {
	var err error

	om.metrics.RateLimitHits, err = meter.Int64Counter(
		"resumecraft_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// RegisterBreakerGauge reports the backend circuit breaker health as a gauge
// (1 healthy, 0 open).
func (om *ObservabilityManager) RegisterBreakerGauge(healthy func() bool) error {
	if om.meterProvider == nil {
		return nil
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Infrastructure.TrackCircuitBreaker {
		return nil
	}
	meter := om.meterProvider.Meter(om.config.ServiceName)
	_, err := meter.Int64ObservableGauge(
		"resumecraft_backend_breaker_healthy",
		metric.WithDescription("Whether the backend circuit breaker lets requests through"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			var v int64
			if healthy() {
				v = 1
			}
			o.Observe(v)
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create circuit breaker gauge: %w", err)
	}
	return nil
}

// GetMetrics returns the metrics instance
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om.metrics == nil {
		return &Metrics{fullConfig: om.fullConfig}
	}
	return om.metrics
}

// MetricsHandler serves the Prometheus scrape endpoint, or nil when disabled.
func (om *ObservabilityManager) MetricsHandler() http.Handler {
	return om.metricsHandler
}

// MetricsEndpoint is the path the scrape handler is mounted on.
func (om *ObservabilityManager) MetricsEndpoint() string {
	if om.config.Prometheus.Endpoint == "" {
		return "/metrics"
	}
	return om.config.Prometheus.Endpoint
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown gracefully shuts down all observability components
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TrackBackendOperation instruments a backend call with a span and metrics
func (m *Metrics) TrackBackendOperation(ctx context.Context, operation string, fn func(context.Context) error) error {
	if m.BackendDuration == nil {
		return fn(ctx)
	}

	tracer := otel.Tracer("resumecraft.backend")
	ctx, span := tracer.Start(ctx, "backend."+operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	m.BackendDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
	m.BackendRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	span.SetAttributes(attrs...)

	if err != nil {
		m.BackendErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}

// RecordExportDuration records how long an export took
func (m *Metrics) RecordExportDuration(ctx context.Context, strategy string, d time.Duration) {
	if m.ExportDuration == nil || !m.documentsEnabled() || !m.fullConfigAllows(func(c *config.Config) bool {
		return c.Observability.CustomMetrics.Documents.TrackExports
	}) {
		return
	}
	m.ExportDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("strategy", strategy)))
}

// RecordMatchScore records one computed job match score
func (m *Metrics) RecordMatchScore(ctx context.Context, score int) {
	if m.MatchScores == nil || !m.documentsEnabled() {
		return
	}
	m.MatchScores.Record(ctx, int64(score))
}

// RecordBusinessMetric records business-specific metrics
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	attrs := append([]attribute.KeyValue{
		attribute.Bool("success", success),
	}, attributes...)

	m.recordMetricByType(ctx, metricType, attrs)
}

// recordMetricByType records the appropriate metric based on the metric type
func (m *Metrics) recordMetricByType(ctx context.Context, metricType string, attrs []attribute.KeyValue) {
	switch metricType {
	case MetricDocumentLoaded:
		m.add(ctx, m.DocumentsLoaded, m.documentsEnabled(), attrs)
	case MetricSectionEdited:
		m.add(ctx, m.SectionsEdited, m.documentsEnabled() && m.fullConfigAllows(func(c *config.Config) bool {
			return c.Observability.CustomMetrics.Documents.TrackEdits
		}), attrs)
	case MetricResumeExported:
		m.add(ctx, m.ResumesExported, m.documentsEnabled() && m.fullConfigAllows(func(c *config.Config) bool {
			return c.Observability.CustomMetrics.Documents.TrackExports
		}), attrs)
	case MetricJobScored:
		// Scores are recorded through RecordMatchScore.
	case MetricRateLimitHit:
		m.add(ctx, m.RateLimitHits, m.fullConfigAllows(func(c *config.Config) bool {
			infra := c.Observability.CustomMetrics.Infrastructure
			return infra.Enabled && infra.TrackRateLimits
		}), attrs)
	}
}

func (m *Metrics) add(ctx context.Context, counter metric.Int64Counter, enabled bool, attrs []attribute.KeyValue) {
	if counter == nil || !enabled {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) documentsEnabled() bool {
	return m.fullConfigAllows(func(c *config.Config) bool {
		return c.Observability.CustomMetrics.Documents.Enabled
	})
}

// fullConfigAllows reports check(cfg), treating a missing config as allowed.
func (m *Metrics) fullConfigAllows(check func(*config.Config) bool) bool {
	return m.fullConfig == nil || check(m.fullConfig)
}

// No-op exporter for when no trace backend is configured
type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// createOTLPExporter creates an OTLP HTTP trace exporter
func (om *ObservabilityManager) createOTLPExporter() (trace.SpanExporter, error) {
	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	return exporter, nil
}

// createOTLPMetricsReader creates an OTLP HTTP metrics reader
func (om *ObservabilityManager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	interval := om.getMetricsCollectionInterval()
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), nil
}

// getServiceInstanceID returns the service instance ID from config or a default
func (om *ObservabilityManager) getServiceInstanceID() string {
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		return om.fullConfig.Observability.ServiceInstance
	}
	return "resumecraft-1"
}

// getSampleRate prefers the tracing-specific rate when configured
func (om *ObservabilityManager) getSampleRate() float64 {
	if om.fullConfig != nil && om.fullConfig.Observability.Tracing.SampleRate > 0 {
		return om.fullConfig.Observability.Tracing.SampleRate
	}
	return om.config.SampleRate
}

// getMetricsCollectionInterval returns the configured metrics collection interval
func (om *ObservabilityManager) getMetricsCollectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
