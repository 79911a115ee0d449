// Package admin is the privileged server-side half of the provider
// integration: service-account credentials and bearer token verification.
// Nothing in this package may be linked into browser-facing code.
package admin

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the service-account material, sourced from process environment.
// PrivateKey is secret; deployment tooling commonly stores it with literal
// backslash-n sequences, which are normalized to real line breaks before use.
type Config struct {
	ProjectID   string `env:"SIGNON_ADMIN_PROJECT_ID,required"`
	ClientEmail string `env:"SIGNON_ADMIN_CLIENT_EMAIL,required"`
	PrivateKey  string `env:"SIGNON_ADMIN_PRIVATE_KEY,required"`
}

// LoadConfig reads the admin configuration from the environment and
// normalizes the key material. It fails when any variable is absent or the
// key does not parse; admin construction is fatal at process start.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("admin: %w", err)
	}
	cfg.PrivateKey = NormalizePrivateKey(cfg.PrivateKey)
	if _, err := cfg.ParsePrivateKey(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NormalizePrivateKey converts literal \n sequences in key material into
// actual line breaks.
func NormalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// ParsePrivateKey decodes the PEM-encoded RSA private key. PKCS#8 and PKCS#1
// encodings are accepted.
func (c Config) ParsePrivateKey() (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(c.PrivateKey))
	if block == nil {
		return nil, fmt.Errorf("admin: private key is not PEM encoded")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("admin: private key is not RSA")
		}
		return rsaKey, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("admin: malformed private key: %w", err)
	}
	return key, nil
}
