package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultMaxUploadSize is the largest resume file accepted for analysis.
const DefaultMaxUploadSize = 2 * 1024 * 1024

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Backend API
	v.SetDefault("backend.baseURL", "http://localhost:8000")
	v.SetDefault("backend.authBaseURL", "")
	v.SetDefault("backend.apiKey", "")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("backend.upload.maxFileSize", DefaultMaxUploadSize)
	v.SetDefault("backend.upload.allowedTypes", []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	})
	v.SetDefault("backend.circuitBreaker.enabled", true)
	v.SetDefault("backend.circuitBreaker.maxRequests", 3)
	v.SetDefault("backend.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("backend.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("backend.circuitBreaker.minRequests", 3)
	v.SetDefault("backend.circuitBreaker.failureThreshold", 0.6)

	// Auth
	v.SetDefault("auth.googleClientID", "")
	v.SetDefault("auth.googleClientSecret", "")
	v.SetDefault("auth.redirectURI", "http://localhost:8080/auth/google/callback")
	v.SetDefault("auth.scopes", []string{"openid", "email", "profile"})
	v.SetDefault("auth.cookieName", "resumecraft_session")
	v.SetDefault("auth.cookieSecure", false)

	// Templates
	v.SetDefault("templates.default", "1")
	v.SetDefault("templates.dir", "")
	v.SetDefault("templates.watch", false)
	v.SetDefault("templates.debounceDelay", 500*time.Millisecond)

	// Editor
	v.SetDefault("editor.historyDepth", 50)
	v.SetDefault("editor.workspaceTTL", 2*time.Hour)
	v.SetDefault("editor.maxWorkspaces", 1000)

	// Export
	v.SetDefault("export.strategy", "print")
	v.SetDefault("export.chromePath", "")
	v.SetDefault("export.timeout", 30*time.Second)
	v.SetDefault("export.sink", "none")
	v.SetDefault("export.outputDir", "")
	v.SetDefault("export.presignExpiry", 15*time.Minute)

	// Session
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.channel", "resumecraft:session")
	v.SetDefault("session.ttl", 24*time.Hour)

	// Redis
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyPrefix", "resumecraft:")

	// MinIO
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.accessKeyID", "")
	v.SetDefault("minio.secretAccessKey", "")
	v.SetDefault("minio.useSSL", false)
	v.SetDefault("minio.bucket", "resume-exports")
	v.SetDefault("minio.location", "us-east-1")

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxBodySize", 4*1024*1024)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.certContent", "")
	v.SetDefault("server.tls.keyContent", "")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "html")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown", "html"})

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.backendKey", "")
	v.SetDefault("vault.secrets.oauth", "")
	v.SetDefault("vault.secrets.storage", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumecraft")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.documents.enabled", true)
	v.SetDefault("observability.customMetrics.documents.trackEdits", true)
	v.SetDefault("observability.customMetrics.documents.trackExports", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCircuitBreaker", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
}
