package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"resumecraft/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault (KVv2 paths)
type VaultSecrets struct {
	APIKeys    string `mapstructure:"apiKeys"`    // "keys": comma-separated server API keys
	BackendKey string `mapstructure:"backendKey"` // "api_key": backend API key
	OAuth      string `mapstructure:"oauth"`      // "client_id", "client_secret"
	Storage    string `mapstructure:"storage"`    // "redis_password", "minio_access_key", "minio_secret_key"
	TLSCerts   string `mapstructure:"tlsCerts"`   // "cert", "key"
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	logger.Debug("Initializing Vault client",
		"address", config.Address,
		"namespace", config.Namespace,
		"token_file", config.TokenFile,
		"has_token", config.Token != "")

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}
	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to create vault client", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to connect to vault", err).
			WithContext("address", config.Address)
	}
	logger.Info("Successfully connected to Vault",
		"address", config.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, config: config, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	vc.logger.Debug("Reading secret from Vault", "path", path)
	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return decodeKV2(secret, path)
}

// decodeKV2 unpacks the data and metadata.version fields of a KVv2 read.
func decodeKV2(secret *api.Secret, path string) (*VaultSecret, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue parses version value from various types
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// secretBinding maps one key of a KVv2 secret onto a config field.
type secretBinding struct {
	key    string
	target *string
}

// secretGroup is a Vault path plus the config fields it feeds.
type secretGroup struct {
	name     string
	path     string
	bindings []secretBinding
}

func secretGroups(config *Config) []secretGroup {
	s := config.Vault.Secrets
	return []secretGroup{
		{name: "backend", path: s.BackendKey, bindings: []secretBinding{
			{key: "api_key", target: &config.Backend.APIKey},
		}},
		{name: "oauth", path: s.OAuth, bindings: []secretBinding{
			{key: "client_id", target: &config.Auth.GoogleClientID},
			{key: "client_secret", target: &config.Auth.GoogleClientSecret},
		}},
		{name: "storage", path: s.Storage, bindings: []secretBinding{
			{key: "redis_password", target: &config.Redis.Password},
			{key: "minio_access_key", target: &config.Minio.AccessKeyID},
			{key: "minio_secret_key", target: &config.Minio.SecretAccessKey},
		}},
		{name: "tls", path: s.TLSCerts, bindings: []secretBinding{
			{key: "cert", target: &config.Server.TLS.CertContent},
			{key: "key", target: &config.Server.TLS.KeyContent},
		}},
	}
}

// applySecret copies the bound string keys of secret onto their targets and
// returns how many were set. Missing or empty keys leave the target alone.
func applySecret(secret *VaultSecret, bindings []secretBinding) int {
	applied := 0
	for _, b := range bindings {
		if value, ok := secret.Data[b.key].(string); ok && value != "" {
			*b.target = value
			applied++
		}
	}
	return applied
}

// parseAPIKeys splits the comma-separated "keys" value of the api keys secret.
func parseAPIKeys(secret *VaultSecret) []string {
	raw, _ := secret.Data["keys"].(string)
	if raw == "" {
		return nil
	}
	return splitAndTrim(raw)
}

// secretReader is the part of VaultClient ApplyVaultSecrets needs.
type secretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return applySecretsFrom(client, config, logger)
}

func applySecretsFrom(reader secretReader, config *Config, logger *errors.Logger) error {
	if path := config.Vault.Secrets.APIKeys; path != "" {
		secret, err := reader.GetSecretV2(path)
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if keys := parseAPIKeys(secret); len(keys) > 0 {
			config.Server.APIKeys = keys
			logger.Info("API keys loaded from Vault", "count", len(keys))
		} else {
			logger.Warn("No API keys found in Vault", "path", path)
		}
	}

	for _, group := range secretGroups(config) {
		if group.path == "" {
			continue
		}
		secret, err := reader.GetSecretV2(group.path)
		if err != nil {
			return fmt.Errorf("failed to load %s secrets from vault: %w", group.name, err)
		}
		applied := applySecret(secret, group.bindings)
		logger.Info("Secrets loaded from Vault", "group", group.name, "applied", applied)
	}

	if config.Server.TLS.CertContent != "" && config.Server.TLS.CertFile != "" {
		// Vault content wins over files.
		config.Server.TLS.CertFile = ""
		config.Server.TLS.KeyFile = ""
	}

	return nil
}
