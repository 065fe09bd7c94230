package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"resumecraft/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretReader map[string]*VaultSecret

func (f fakeSecretReader) GetSecretV2(path string) (*VaultSecret, error) {
	secret, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return secret, nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64", input: int64(3), expected: 3},
		{name: "float64", input: float64(7), expected: 7},
		{name: "string", input: "12", expected: 12},
		{name: "bad string", input: "twelve", expectError: true},
		{name: "unexpected type", input: true, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDecodeKV2(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{
			"data":     map[string]any{"api_key": "abc"},
			"metadata": map[string]any{"version": float64(2)},
		}}
		got, err := decodeKV2(secret, "secret/data/backend")
		require.NoError(t, err)
		assert.Equal(t, "abc", got.Data["api_key"])
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("missing data", func(t *testing.T) {
		_, err := decodeKV2(&api.Secret{Data: map[string]any{"metadata": map[string]any{}}}, "p")
		assert.ErrorContains(t, err, "missing 'data' field")
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := decodeKV2(&api.Secret{Data: map[string]any{
			"data":     map[string]any{},
			"metadata": map[string]any{},
		}}, "p")
		assert.ErrorContains(t, err, "missing 'version' field")
	})
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("direct token", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"})
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token file is trimmed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("  file-token\n"), 0o600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: path})
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("unreadable token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token"})
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestApplySecretsFrom(t *testing.T) {
	config := &Config{}
	config.Vault.Secrets = VaultSecrets{
		APIKeys:    "secret/data/keys",
		BackendKey: "secret/data/backend",
		OAuth:      "secret/data/oauth",
		TLSCerts:   "secret/data/tls",
	}
	config.Server.TLS.CertFile = "/etc/cert.pem"
	config.Server.TLS.KeyFile = "/etc/key.pem"
	config.Auth.GoogleClientID = "from-config"

	reader := fakeSecretReader{
		"secret/data/keys":    {Data: map[string]any{"keys": "k1, k2,,k3"}},
		"secret/data/backend": {Data: map[string]any{"api_key": "backend-key"}},
		"secret/data/oauth":   {Data: map[string]any{"client_secret": "shh"}},
		"secret/data/tls":     {Data: map[string]any{"cert": "CERT", "key": "KEY"}},
	}

	err := applySecretsFrom(reader, config, errors.Discard())
	require.NoError(t, err)

	assert.Equal(t, []string{"k1", "k2", "k3"}, config.Server.APIKeys)
	assert.Equal(t, "backend-key", config.Backend.APIKey)
	assert.Equal(t, "from-config", config.Auth.GoogleClientID, "absent keys keep their configured value")
	assert.Equal(t, "shh", config.Auth.GoogleClientSecret)
	assert.Equal(t, "CERT", config.Server.TLS.CertContent)
	assert.Empty(t, config.Server.TLS.CertFile, "vault content replaces file paths")
	assert.NoError(t, validateTLSMode(TLSConfig{
		Mode:        "server",
		CertContent: config.Server.TLS.CertContent,
		KeyContent:  config.Server.TLS.KeyContent,
	}))
}

func TestApplySecretsFromMissingPath(t *testing.T) {
	config := &Config{}
	config.Vault.Secrets.Storage = "secret/data/storage"

	err := applySecretsFrom(fakeSecretReader{}, config, errors.Discard())
	assert.ErrorContains(t, err, "failed to load storage secrets from vault")
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{Vault: VaultConfig{Enabled: false}}
	assert.NoError(t, ApplyVaultSecrets(config, errors.Discard()))
}
