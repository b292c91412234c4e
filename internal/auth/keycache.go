package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/jayvaidya30/FraudEx/internal/common"
)

// KeySet maps a JWK key id to its RSA public key.
type KeySet map[string]*rsa.PublicKey

// KeyCache serves the remote signing-key set. Implementations cache with
// a TTL and support an explicit refresh for the unknown-kid case, so key
// rotation is picked up without waiting out the TTL.
type KeyCache interface {
	Get(ctx context.Context) (KeySet, error)
	Refresh(ctx context.Context) (KeySet, error)
}

// JWKSCache fetches a JWKS endpoint and holds the parsed keys for TTL.
// It is an injected component, not package state, so tests can swap it.
type JWKSCache struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.RWMutex
	keys      KeySet
	fetchedAt time.Time
}

func NewJWKSCache(url string, ttl time.Duration, logger *slog.Logger) *JWKSCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &JWKSCache{
		url:        url,
		ttl:        ttl,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

// Get returns the cached key set, refreshing when the TTL has lapsed or
// nothing has been fetched yet.
func (c *JWKSCache) Get(ctx context.Context) (KeySet, error) {
	c.mu.RLock()
	keys, fetchedAt := c.keys, c.fetchedAt
	c.mu.RUnlock()

	if keys != nil && c.now().Sub(fetchedAt) < c.ttl {
		return keys, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches the JWKS unconditionally and replaces the cache.
func (c *JWKSCache) Refresh(ctx context.Context) (KeySet, error) {
	if c.url == "" {
		return nil, common.NewAppError("AUTH_CONFIG", "JWKS URL is not configured", common.ErrInternal)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, common.WrapError(err, "build jwks request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("jwks fetch failed", "url", c.url, "error", err)
		return nil, common.WrapError(err, "fetch jwks")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("jwks fetch returned non-200", "url", c.url, "status", resp.StatusCode)
		return nil, fmt.Errorf("jwks status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.WrapError(err, "read jwks body")
	}

	keys, err := parseJWKS(raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = c.now()
	c.mu.Unlock()

	c.logger.Debug("jwks refreshed", "keys", len(keys))
	return keys, nil
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func parseJWKS(raw []byte) (KeySet, error) {
	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, common.WrapError(err, "decode jwks")
	}

	keys := KeySet{}
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKeyFromJWK(k)
		if err != nil {
			return nil, fmt.Errorf("parse jwk %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("jwks contained no usable RSA keys")
	}
	return keys, nil
}

func rsaKeyFromJWK(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	e := 0
	for _, b := range eb {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
