package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, int64(DefaultMaxUploadSize), cfg.Backend.Upload.MaxFileSize)
	assert.Len(t, cfg.Backend.Upload.AllowedTypes, 3)
	assert.Equal(t, 50, cfg.Editor.HistoryDepth)
	assert.Equal(t, "print", cfg.Export.Strategy)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "1", cfg.Templates.Default)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("RESUMECRAFT_BACKEND_BASEURL", "https://api.example.com/")
	t.Setenv("RESUMECRAFT_EXPORT_STRATEGY", "pdf")

	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, "https://api.example.com", cfg.AuthBaseURL())
	assert.Equal(t, "pdf", cfg.Export.Strategy)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resumecraft.yaml")
	content := `
backend:
  baseURL: https://backend.test
  authBaseURL: https://auth.test
editor:
  historyDepth: 10
server:
  apiKeys: ["a,b"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "https://backend.test", cfg.Backend.BaseURL)
	assert.Equal(t, "https://auth.test", cfg.AuthBaseURL())
	assert.Equal(t, 10, cfg.Editor.HistoryDepth)
	assert.Equal(t, []string{"a", "b"}, cfg.Server.APIKeys)
}

func TestLoadConfigWithFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resumecraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9000\"\n  host: file.host\n"), 0o600))

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("port", "8080", "")
	flags.String("host", "localhost", "")
	require.NoError(t, flags.Parse([]string{"--port", "9100"}))

	bindings := map[string]string{"server.port": "port", "server.host": "host"}
	cfg, err := LoadConfigWithFlags(path, flags, bindings)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port, "a set flag wins over the file")
	assert.Equal(t, "file.host", cfg.Server.Host, "an unset flag does not")

	_, err = LoadConfigWithFlags(path, flags, map[string]string{"server.port": "missing"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:     "missing backend",
			mutate:   func(c *Config) { c.Backend.BaseURL = "" },
			errorMsg: "backend base URL is required",
		},
		{
			name:     "bad export strategy",
			mutate:   func(c *Config) { c.Export.Strategy = "canvas" },
			errorMsg: "invalid export strategy",
		},
		{
			name:     "local sink without dir",
			mutate:   func(c *Config) { c.Export.Sink = "local" },
			errorMsg: "export outputDir is required",
		},
		{
			name:     "minio sink without endpoint",
			mutate:   func(c *Config) { c.Export.Sink = "minio" },
			errorMsg: "minio endpoint and bucket are required",
		},
		{
			name:     "redis session without addr",
			mutate:   func(c *Config) { c.Session.Backend = "redis" },
			errorMsg: "redis addr is required",
		},
		{
			name:     "unsupported default format",
			mutate:   func(c *Config) { c.App.DefaultFormat = "pdf" },
			errorMsg: "invalid default format",
		},
		{
			name:     "zero history depth",
			mutate:   func(c *Config) { c.Editor.HistoryDepth = 0 },
			errorMsg: "historyDepth must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
