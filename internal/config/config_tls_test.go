package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSMode(t *testing.T) {
	tests := []struct {
		name        string
		tls         TLSConfig
		expectError bool
		errorMsg    string
	}{
		{
			name:        "disabled mode",
			tls:         TLSConfig{Mode: "disabled"},
			expectError: false,
		},
		{
			name:        "empty mode behaves as disabled",
			tls:         TLSConfig{},
			expectError: false,
		},
		{
			name: "server mode with files",
			tls: TLSConfig{
				Mode:     "server",
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
		},
		{
			name: "server mode with content",
			tls: TLSConfig{
				Mode:        "server",
				CertContent: "cert",
				KeyContent:  "key",
			},
		},
		{
			name:        "server mode missing key",
			tls:         TLSConfig{Mode: "server", CertFile: "/path/to/cert.pem"},
			expectError: true,
			errorMsg:    "certificate and key are required",
		},
		{
			name: "server mode duplicate cert source",
			tls: TLSConfig{
				Mode:        "server",
				CertFile:    "/path/to/cert.pem",
				CertContent: "cert",
				KeyFile:     "/path/to/key.pem",
			},
			expectError: true,
			errorMsg:    "cannot specify both certFile and certContent",
		},
		{
			name:        "mutual mode is not offered",
			tls:         TLSConfig{Mode: "mutual"},
			expectError: true,
			errorMsg:    "invalid TLS mode: mutual",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTLSMode(tt.tls)

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTLSVersion(t *testing.T) {
	for _, v := range []string{"", "1.2", "1.3"} {
		assert.NoError(t, validateTLSVersion(TLSConfig{MinVersion: v}), v)
	}
	err := validateTLSVersion(TLSConfig{MinVersion: "1.1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TLS minVersion: 1.1")
}

func TestTLSConfigEnabled(t *testing.T) {
	assert.True(t, TLSConfig{Mode: "server"}.Enabled())
	assert.False(t, TLSConfig{Mode: "disabled"}.Enabled())
}

func TestTLSConfigBuildMissingFiles(t *testing.T) {
	_, err := TLSConfig{Mode: "server", CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}.Build()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load TLS key pair")
}
