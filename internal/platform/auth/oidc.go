package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v4"

	"github.com/matjar-app/api/internal/platform/config"
	"github.com/matjar-app/api/internal/platform/httpx"
)

const jwksCacheTTL = time.Hour

var (
	// ErrOIDCInvalidToken indicates the token failed verification.
	ErrOIDCInvalidToken = errors.New("auth: invalid oidc token")
	// ErrOIDCKeyNotFound indicates the signing key is absent from the JWKS.
	ErrOIDCKeyNotFound = errors.New("auth: oidc signing key not found")
)

// OIDCVerifier checks Google-signed OIDC tokens presented by Pub/Sub push
// subscriptions on internal routes.
type OIDCVerifier struct {
	jwksURL  string
	audience string
	issuers  map[string]struct{}
	client   *http.Client

	mu        sync.Mutex
	keys      *jose.JSONWebKeySet
	fetchedAt time.Time
}

// NewOIDCVerifier constructs a verifier from the security configuration.
func NewOIDCVerifier(cfg config.OIDCConfig) (*OIDCVerifier, error) {
	if strings.TrimSpace(cfg.JWKSURL) == "" {
		return nil, errors.New("auth: jwks url is required")
	}
	issuers := make(map[string]struct{}, len(cfg.Issuers))
	for _, issuer := range cfg.Issuers {
		if trimmed := strings.TrimSpace(issuer); trimmed != "" {
			issuers[trimmed] = struct{}{}
		}
	}
	if len(issuers) == 0 {
		return nil, errors.New("auth: at least one issuer is required")
	}
	return &OIDCVerifier{
		jwksURL:  cfg.JWKSURL,
		audience: strings.TrimSpace(cfg.Audience),
		issuers:  issuers,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Verify validates the token signature and registered claims, returning the
// verified claims.
func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (*jwt.RegisteredClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrOIDCInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256", "ES256"}))
	token, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		return v.signingKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOIDCInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrOIDCInvalidToken
	}

	if _, ok := v.issuers[claims.Issuer]; !ok {
		return nil, fmt.Errorf("%w: issuer %q not trusted", ErrOIDCInvalidToken, claims.Issuer)
	}
	if v.audience != "" && !audienceMatches(claims.Audience, v.audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrOIDCInvalidToken)
	}
	return claims, nil
}

func (v *OIDCVerifier) signingKey(ctx context.Context, kid string) (any, error) {
	keys, err := v.keySet(ctx)
	if err != nil {
		return nil, err
	}
	for _, key := range keys.Key(kid) {
		if key.IsPublic() {
			return key.Key, nil
		}
	}
	return nil, ErrOIDCKeyNotFound
}

func (v *OIDCVerifier) keySet(ctx context.Context) (*jose.JSONWebKeySet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keys != nil && time.Since(v.fetchedAt) < jwksCacheTTL {
		return v.keys, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: build jwks request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: jwks endpoint returned %d", resp.StatusCode)
	}

	var keys jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&keys); err != nil {
		return nil, fmt.Errorf("auth: decode jwks: %w", err)
	}
	v.keys = &keys
	v.fetchedAt = time.Now()
	return v.keys, nil
}

func audienceMatches(audiences jwt.ClaimStrings, want string) bool {
	for _, audience := range audiences {
		if audience == want {
			return true
		}
	}
	return false
}

// RequirePushOIDC guards internal Pub/Sub push routes: the bearer token
// must be a valid Google-signed OIDC token. In the local environment the
// check is skipped.
func RequirePushOIDC(verifier *OIDCVerifier, environment string) func(http.Handler) http.Handler {
	skip := strings.EqualFold(strings.TrimSpace(environment), "local")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			raw := bearerToken(r)
			if raw == "" || verifier == nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "missing push token", http.StatusUnauthorized))
				return
			}
			if _, err := verifier.Verify(ctx, raw); err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "invalid push token", http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
