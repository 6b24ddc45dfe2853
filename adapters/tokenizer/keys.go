package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const pemTypeECKey = "EC PRIVATE KEY"

// GenerateKey creates a fresh P-256 signing key
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// LoadOrGenerateKey reads a PEM-encoded EC key from path, generating and
// saving one when the file does not exist. An empty path yields an
// ephemeral key.
func LoadOrGenerateKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		return GenerateKey()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return parseKey(data)
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	key, err := GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}

	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("encode signing key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	out := pem.EncodeToMemory(&pem.Block{Type: pemTypeECKey, Bytes: der})
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return nil, fmt.Errorf("write signing key: %w", err)
	}

	return key, nil
}

func parseKey(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypeECKey {
		return nil, fmt.Errorf("signing key: no %s block", pemTypeECKey)
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return key, nil
}
