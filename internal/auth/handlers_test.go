package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/internal/auth"
	"microblog/internal/kv/memory"
	"microblog/internal/middleware"
	"microblog/internal/repo"
)

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := repo.New(memory.New())
	tk, err := auth.NewTokens("test-secret", time.Minute)
	require.NoError(t, err)

	mux := chi.NewRouter()
	mux.Route("/auth", func(ar chi.Router) {
		ar.Post("/signup", auth.SignupHandler(r, tk, time.Hour))
		ar.Post("/login", auth.LoginHandler(r, tk, time.Hour))
		ar.Post("/refresh", auth.RefreshHandler(r, tk, time.Hour))
		ar.Post("/logout", auth.LogoutHandler(r))
		ar.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireAuth(r, tk))
			pr.Get("/me", auth.MeHandler())
			pr.Put("/profile", auth.UpdateProfileHandler(r))
			pr.Get("/mfa/totp/setup", auth.TOTPSetupBeginHandler(r))
			pr.Post("/mfa/totp/verify", auth.TOTPSetupVerifyHandler(r))
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type authResponse struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
	} `json:"tokens"`
}

func signup(t *testing.T, base, username, password string) authResponse {
	t.Helper()
	resp := postJSON(t, base+"/auth/signup", map[string]string{
		"username": username,
		"password": password,
		"name":     username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[authResponse](t, resp)
}

func TestSignup(t *testing.T) {
	srv := newAuthServer(t)

	out := signup(t, srv.URL, "alice", "hunter2hunter2")
	assert.Equal(t, "alice", out.User.Username)
	assert.NotEmpty(t, out.Tokens.AccessToken)
	assert.NotEmpty(t, out.Tokens.RefreshToken)
	assert.Equal(t, "Bearer", out.Tokens.TokenType)

	resp := postJSON(t, srv.URL+"/auth/signup", map[string]string{
		"username": "alice", "password": "hunter2hunter2",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSignupValidation(t *testing.T) {
	srv := newAuthServer(t)

	resp := postJSON(t, srv.URL+"/auth/signup", map[string]string{
		"username": "No Spaces!", "password": "hunter2hunter2",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/auth/signup", map[string]string{
		"username": "bob", "password": "short",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	srv := newAuthServer(t)
	signup(t, srv.URL, "carol", "hunter2hunter2")

	resp := postJSON(t, srv.URL+"/auth/login", map[string]string{
		"username": "carol", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[authResponse](t, resp)
	assert.NotEmpty(t, out.Tokens.AccessToken)

	resp = postJSON(t, srv.URL+"/auth/login", map[string]string{
		"username": "carol", "password": "wrong password",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/auth/login", map[string]string{
		"username": "nobody", "password": "hunter2hunter2",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRotation(t *testing.T) {
	srv := newAuthServer(t)
	out := signup(t, srv.URL, "dave", "hunter2hunter2")
	first := out.Tokens.RefreshToken

	resp := postJSON(t, srv.URL+"/auth/refresh", map[string]string{"refresh_token": first})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := decode[authResponse](t, resp)
	assert.NotEmpty(t, rotated.Tokens.AccessToken)
	assert.NotEqual(t, first, rotated.Tokens.RefreshToken)

	// the old token was consumed by the rotation
	resp = postJSON(t, srv.URL+"/auth/refresh", map[string]string{"refresh_token": first})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// the new one still works
	resp = postJSON(t, srv.URL+"/auth/refresh", map[string]string{"refresh_token": rotated.Tokens.RefreshToken})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	srv := newAuthServer(t)

	resp := postJSON(t, srv.URL+"/auth/refresh", map[string]string{"refresh_token": "made-up"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/auth/refresh", map[string]string{})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	srv := newAuthServer(t)
	out := signup(t, srv.URL, "erin", "hunter2hunter2")

	resp := postJSON(t, srv.URL+"/auth/logout", map[string]string{"refresh_token": out.Tokens.RefreshToken})
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/auth/refresh", map[string]string{"refresh_token": out.Tokens.RefreshToken})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeAndProfile(t *testing.T) {
	srv := newAuthServer(t)
	out := signup(t, srv.URL, "frank", "hunter2hunter2")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+out.Tokens.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[struct {
		Username string `json:"username"`
	}](t, resp)
	assert.Equal(t, "frank", me.Username)

	raw, err := json.Marshal(map[string]string{"bio": "gopher"})
	require.NoError(t, err)
	req, err = http.NewRequest(http.MethodPut, srv.URL+"/auth/profile", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+out.Tokens.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[struct {
		Bio string `json:"bio"`
	}](t, resp)
	assert.Equal(t, "gopher", updated.Bio)
}
