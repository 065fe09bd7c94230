package observability

import (
	"context"
	"time"

	"resumecraft/internal/config"
	"resumecraft/internal/viewer"

	"go.opentelemetry.io/otel/attribute"
)

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "resumecraft",
			ServiceVersion: version,
			Enabled:        true,
			ConsoleOutput:  true,
			SampleRate:     1.0,
			Prometheus:     GetPrometheusConfig(cfg),
		}
	}

	obsConfig := cfg.Observability

	serviceVersion := obsConfig.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	return ObservabilityConfig{
		ServiceName:    obsConfig.ServiceName,
		ServiceVersion: serviceVersion,
		Enabled:        obsConfig.Enabled,
		ConsoleOutput:  obsConfig.ConsoleOutput,
		SampleRate:     obsConfig.SampleRate,
		Prometheus:     GetPrometheusConfig(cfg),
	}
}

// ViewObserver returns a viewer.WithObserver callback that counts finished
// loads by state and template.
func ViewObserver(m *Metrics) func(v *viewer.View, elapsed time.Duration) {
	return func(v *viewer.View, elapsed time.Duration) {
		m.RecordBusinessMetric(context.Background(), MetricDocumentLoaded, v.State == viewer.StateDocument,
			attribute.String("state", string(v.State)),
			attribute.String("template", v.TemplateID),
			attribute.Float64("elapsed_seconds", elapsed.Seconds()))
	}
}
