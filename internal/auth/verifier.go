package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jayvaidya30/FraudEx/internal/common"
)

// CurrentUser is the authenticated principal extracted from a verified
// bearer token.
type CurrentUser struct {
	ID    string
	Email string
	Role  string
}

// IsAdmin reports whether the principal bypasses case ownership checks.
func (u CurrentUser) IsAdmin() bool {
	return u.Role == "admin"
}

// Verifier checks RS256 bearer tokens against the remote key set.
type Verifier struct {
	keys     KeyCache
	audience string
	logger   *slog.Logger
}

func NewVerifier(keys KeyCache, audience string, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{keys: keys, audience: audience, logger: logger}
}

// JWKSURL derives the key-set endpoint from a Supabase project URL.
func JWKSURL(supabaseURL string) string {
	if supabaseURL == "" {
		return ""
	}
	return strings.TrimRight(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
}

// ExtractBearerToken pulls the token out of an Authorization header.
func ExtractBearerToken(authorization string) (string, error) {
	if authorization == "" {
		return "", common.NewAppError("AUTH_HEADER", "missing Authorization header", common.ErrUnauthorized)
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", common.NewAppError("AUTH_HEADER", "invalid Authorization header", common.ErrUnauthorized)
	}
	return strings.TrimSpace(parts[1]), nil
}

// Verify validates the token signature, audience and expiry, and returns
// the principal. An unknown kid forces one key-set refresh before the
// token is rejected, so freshly rotated keys do not bounce callers.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (CurrentUser, error) {
	keyfunc := func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token missing kid")
		}
		keys, err := v.keys.Get(ctx)
		if err != nil {
			return nil, err
		}
		if pub, ok := keys[kid]; ok {
			return pub, nil
		}
		keys, err = v.keys.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		if pub, ok := keys[kid]; ok {
			return pub, nil
		}
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}

	token, err := jwt.Parse(tokenString, keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		v.logger.Debug("token verification failed", "error", err)
		return CurrentUser{}, common.NewAppError("AUTH_TOKEN", "token verification failed", common.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return CurrentUser{}, common.NewAppError("AUTH_TOKEN", "unexpected claims type", common.ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return CurrentUser{}, common.NewAppError("AUTH_TOKEN", "token missing subject", common.ErrUnauthorized)
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return CurrentUser{ID: sub, Email: email, Role: role}, nil
}
