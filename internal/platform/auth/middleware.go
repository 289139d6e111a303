package auth

import (
	"net/http"
	"strings"

	"github.com/matjar-app/api/internal/platform/httpx"
	"github.com/matjar-app/api/internal/platform/requestctx"
)

const bearerPrefix = "Bearer "

// RequireMerchant verifies the Authorization bearer token and stores the
// merchant identity on the request context. Requests without a valid token
// are answered with 401.
func RequireMerchant(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := bearerToken(r)
			if raw == "" {
				httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "missing bearer token", http.StatusUnauthorized))
				return
			}
			if verifier == nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "token verification unavailable", http.StatusUnauthorized))
				return
			}

			token, err := verifier.VerifyIDToken(ctx, raw)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "invalid token", http.StatusUnauthorized))
				return
			}

			identity := requestctx.Identity{UID: token.UID}
			if email, ok := token.Claims["email"].(string); ok {
				identity.Email = email
			}
			if storeID, ok := token.Claims["storeId"].(string); ok {
				identity.StoreID = storeID
			}

			next.ServeHTTP(w, r.WithContext(requestctx.WithIdentity(ctx, identity)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}
