package config

import (
	"crypto/tls"
	"fmt"
)

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	t := c.Server.TLS

	if err := validateTLSMode(t); err != nil {
		return err
	}
	return validateTLSVersion(t)
}

func validateTLSMode(t TLSConfig) error {
	switch t.Mode {
	case "disabled", "":
		return nil
	case "server":
		if err := validateCertAndKeyRequired(t); err != nil {
			return err
		}
		return validateNoDuplicateCertSources(t)
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled' or 'server')", t.Mode)
	}
}

func validateCertAndKeyRequired(t TLSConfig) error {
	if (t.CertFile == "" && t.CertContent == "") || (t.KeyFile == "" && t.KeyContent == "") {
		return fmt.Errorf("TLS certificate and key are required for server mode (provide either files or content)")
	}
	return nil
}

func validateNoDuplicateCertSources(t TLSConfig) error {
	if t.CertFile != "" && t.CertContent != "" {
		return fmt.Errorf("cannot specify both certFile and certContent - choose one")
	}
	if t.KeyFile != "" && t.KeyContent != "" {
		return fmt.Errorf("cannot specify both keyFile and keyContent - choose one")
	}
	return nil
}

func validateTLSVersion(t TLSConfig) error {
	switch t.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", t.MinVersion)
	}
}

// Enabled reports whether the server should terminate TLS itself.
func (t TLSConfig) Enabled() bool {
	return t.Mode == "server"
}

// Build creates a *tls.Config from files or inline PEM content.
func (t TLSConfig) Build() (*tls.Config, error) {
	var (
		cert tls.Certificate
		err  error
	)
	if t.CertContent != "" {
		cert, err = tls.X509KeyPair([]byte(t.CertContent), []byte(t.KeyContent))
	} else {
		cert, err = tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
	}

	minVersion := uint16(tls.VersionTLS12)
	if t.MinVersion == "1.3" {
		minVersion = tls.VersionTLS13
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}, nil
}
