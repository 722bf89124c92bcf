package middleware

import (
	"net/http"
	"strings"

	"microblog/internal/auth"
	"microblog/internal/httpx"
	"microblog/internal/repo"
)

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// RequireAuth authenticates the bearer access token, loads the user by the
// token subject and injects claims and user into the context.
// Responds 401 exactly when the token is missing, malformed, or expired.
func RequireAuth(r repo.Repo, t *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			raw, ok := bearerToken(req)
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			claims, err := t.VerifyAccess(raw)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			user, err := r.GetUserByID(req.Context(), claims.UserID())
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := auth.WithClaims(req.Context(), claims)
			ctx = auth.WithUser(ctx, &user)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
