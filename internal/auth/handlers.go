// internal/auth/handlers.go
package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"microblog/internal/httpx"
	"microblog/internal/models"
	"microblog/internal/repo"
)

// username: 3-30 chars, lowercase letters, digits, underscore
var usernameRE = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

const minPasswordLen = 8

// issueTokenPair mints an access token and stores a fresh refresh session.
func issueTokenPair(req *http.Request, r repo.Repo, t *Tokens, refreshTTL time.Duration, u models.User) (models.TokenPair, error) {
	access, err := t.MintAccess(u.ID, u.Username)
	if err != nil {
		return models.TokenPair{}, err
	}
	plain, hash, err := newOpaqueRefreshToken()
	if err != nil {
		return models.TokenPair{}, err
	}
	now := time.Now().UTC()
	sess := models.Session{
		TokenHash: hash,
		UserID:    u.ID,
		UserAgent: req.UserAgent(),
		CreatedAt: now,
		ExpiresAt: now.Add(refreshTTL),
	}
	if err := r.PutSession(req.Context(), sess); err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{
		AccessToken:  access,
		RefreshToken: plain,
		TokenType:    "Bearer",
		ExpiresIn:    int64(t.AccessTTL().Seconds()),
	}, nil
}

// POST /auth/signup
// Body: { "username": "...", "password": "...", "name": "..." }
func SignupHandler(r repo.Repo, t *Tokens, refreshTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Name     string `json:"name"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			httpx.Error(w, http.StatusBadRequest, "bad json")
			return
		}
		username := strings.ToLower(strings.TrimSpace(body.Username))
		if !usernameRE.MatchString(username) {
			httpx.Error(w, http.StatusBadRequest, "invalid username (use 3-30 chars: lowercase letters, digits, underscore)")
			return
		}
		if len(body.Password) < minPasswordLen {
			httpx.Error(w, http.StatusBadRequest, "password too short")
			return
		}

		phc, err := HashPassword(body.Password, defaultArgonParams())
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "hash error")
			return
		}
		u, err := r.CreateUser(req.Context(), username, body.Name, phc)
		if err != nil {
			if errors.Is(err, models.ErrUsernameTaken) {
				httpx.Error(w, http.StatusConflict, "username taken")
				return
			}
			slog.ErrorContext(req.Context(), "signup create user failed", "err", err)
			httpx.Error(w, http.StatusInternalServerError, "signup failed")
			return
		}

		pair, err := issueTokenPair(req, r, t, refreshTTL, u)
		if err != nil {
			slog.ErrorContext(req.Context(), "signup token issue failed", "err", err)
			httpx.Error(w, http.StatusInternalServerError, "signup failed")
			return
		}
		httpx.JSON(w, http.StatusCreated, map[string]any{"user": u, "tokens": pair})
	}
}

// POST /auth/login
// Body: { "username": "...", "password": "...", "totp_code": "123456" }
func LoginHandler(r repo.Repo, t *Tokens, refreshTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
			TOTPCode string `json:"totp_code"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			httpx.Error(w, http.StatusBadRequest, "bad json")
			return
		}
		username := strings.ToLower(strings.TrimSpace(body.Username))
		if username == "" || body.Password == "" {
			httpx.Error(w, http.StatusUnauthorized, "invalid login")
			return
		}

		cred, user, err := r.GetLocalCredentialByUsername(req.Context(), username)
		if err != nil {
			httpx.Error(w, http.StatusUnauthorized, "invalid login")
			return
		}
		if !VerifyPassword(body.Password, cred.PasswordHash) {
			slog.InfoContext(req.Context(), "login bad password", "username", username)
			httpx.Error(w, http.StatusUnauthorized, "invalid login")
			return
		}

		// If TOTP is enrolled and confirmed, enforce it
		if r.UserHasTOTP(req.Context(), user.ID) {
			if strings.TrimSpace(body.TOTPCode) == "" {
				httpx.Error(w, http.StatusUnauthorized, "mfa_required")
				return
			}
			enrollment, ok := r.GetTOTPSecret(req.Context(), user.ID)
			if !ok || !validateTOTP(enrollment.Secret, body.TOTPCode) {
				httpx.Error(w, http.StatusUnauthorized, "invalid_mfa")
				return
			}
		}

		pair, err := issueTokenPair(req, r, t, refreshTTL, user)
		if err != nil {
			slog.ErrorContext(req.Context(), "login token issue failed", "err", err)
			httpx.Error(w, http.StatusInternalServerError, "login failed")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"user": user, "tokens": pair})
	}
}

// POST /auth/refresh
// Body: { "refresh_token": "..." }
// Rotates the refresh token: the presented token's session is deleted and a
// fresh pair is issued. Unknown or expired tokens get 401.
func RefreshHandler(r repo.Repo, t *Tokens, refreshTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RefreshToken == "" {
			httpx.Error(w, http.StatusBadRequest, "refresh_token required")
			return
		}
		hash := HashRefreshToken(body.RefreshToken)
		sess, err := r.GetSession(req.Context(), hash)
		if err != nil {
			httpx.Error(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		user, err := r.GetUserByID(req.Context(), sess.UserID)
		if err != nil {
			_ = r.DeleteSession(req.Context(), hash)
			httpx.Error(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		if err := r.DeleteSession(req.Context(), hash); err != nil {
			slog.WarnContext(req.Context(), "refresh session delete failed", "err", err)
		}
		pair, err := issueTokenPair(req, r, t, refreshTTL, user)
		if err != nil {
			slog.ErrorContext(req.Context(), "refresh token issue failed", "err", err)
			httpx.Error(w, http.StatusInternalServerError, "refresh failed")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"tokens": pair})
	}
}

// POST /auth/logout
// Body: { "refresh_token": "..." } — best-effort session delete.
func LogoutHandler(r repo.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err == nil && body.RefreshToken != "" {
			_ = r.DeleteSession(req.Context(), HashRefreshToken(body.RefreshToken))
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /auth/me — requires RequireAuth middleware.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		u, ok := UserFromContext(req.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		httpx.JSON(w, http.StatusOK, u)
	}
}

// PUT /auth/profile
// Body: { "name": "...", "bio": "...", "avatar_url": "..." } — all optional.
func UpdateProfileHandler(r repo.Repo) http.HandlerFunc {
	type bodyT struct {
		Name      *string `json:"name"`
		Bio       *string `json:"bio"`
		AvatarURL *string `json:"avatar_url"`
	}
	return func(w http.ResponseWriter, req *http.Request) {
		u, ok := UserFromContext(req.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var b bodyT
		if err := json.NewDecoder(req.Body).Decode(&b); err != nil {
			httpx.Error(w, http.StatusBadRequest, "bad json")
			return
		}
		updated, err := r.UpdateUserProfile(req.Context(), u.ID, b.Name, b.Bio, b.AvatarURL)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "update failed")
			return
		}
		httpx.JSON(w, http.StatusOK, updated)
	}
}
