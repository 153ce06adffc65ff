package circle

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
)

// entitySecretCiphertext encrypts the entity secret with the vendor's public
// key. Every mutating request needs a fresh ciphertext; OAEP padding makes
// each one unique.
func (c *Client) entitySecretCiphertext(ctx context.Context) (string, error) {
	pemKey, err := c.entityPublicKey(ctx)
	if err != nil {
		return "", err
	}
	pub, err := parsePublicKey(pemKey)
	if err != nil {
		return "", err
	}
	secret, err := hex.DecodeString(c.entitySecret)
	if err != nil {
		return "", fmt.Errorf("entity secret must be hex encoded: %w", err)
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, secret, nil)
	if err != nil {
		return "", fmt.Errorf("encrypt entity secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (c *Client) entityPublicKey(ctx context.Context) (string, error) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	if c.publicKey != "" {
		return c.publicKey, nil
	}
	var resp envelope[struct {
		PublicKey string `json:"publicKey"`
	}]
	if err := c.do(ctx, http.MethodGet, "/v1/w3s/config/entity/publicKey", nil, &resp); err != nil {
		return "", fmt.Errorf("fetch entity public key: %w", err)
	}
	if resp.Data.PublicKey == "" {
		return "", fmt.Errorf("%w: empty entity public key", ErrMalformedResponse)
	}
	c.publicKey = resp.Data.PublicKey
	return c.publicKey, nil
}

func parsePublicKey(pemKey string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("circle: entity public key is not PEM encoded")
	}
	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("circle: entity public key is not RSA")
		}
		return rsaKey, nil
	}
	key, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("circle: parse entity public key: %w", err)
	}
	return key, nil
}
