package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/internal/auth"
	"microblog/internal/handlers"
	"microblog/internal/kv/memory"
	"microblog/internal/repo"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := repo.New(memory.New())
	tk, err := auth.NewTokens("test-secret", time.Minute)
	require.NoError(t, err)

	mux := chi.NewRouter()
	handlers.RegisterRoutes(mux, r, tk, time.Hour)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// apiClient drives the server as one signed-up user.
type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func signupUser(t *testing.T, srv *httptest.Server, username string) *apiClient {
	t.Helper()
	raw, err := json.Marshal(map[string]string{
		"username": username,
		"password": "hunter2hunter2",
		"name":     username,
	})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/auth/signup", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return &apiClient{t: t, base: srv.URL, token: out.Tokens.AccessToken}
}

func (c *apiClient) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, raw
}

func (c *apiClient) createPost(content string) string {
	c.t.Helper()
	resp, raw := c.do(http.MethodPost, "/posts", map[string]string{"content": content})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode, string(raw))
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(c.t, json.Unmarshal(raw, &out))
	return out.ID
}

func TestRoutesRequireAuth(t *testing.T) {
	srv := newServer(t)

	for _, path := range []string{"/posts", "/users/someone", "/search?q=x", "/auth/me"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPostLifecycle(t *testing.T) {
	srv := newServer(t)
	alice := signupUser(t, srv, "alice")

	id := alice.createPost("hello world")

	resp, raw := alice.do(http.MethodGet, "/posts/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Content string `json:"content"`
		Author  struct {
			Username string `json:"username"`
		} `json:"author"`
		LikeCount int  `json:"like_count"`
		LikedByMe bool `json:"liked_by_me"`
	}
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Equal(t, "hello world", view.Content)
	assert.Equal(t, "alice", view.Author.Username)
	assert.Zero(t, view.LikeCount)
	assert.False(t, view.LikedByMe)

	resp, _ = alice.do(http.MethodDelete, "/posts/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = alice.do(http.MethodGet, "/posts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostValidation(t *testing.T) {
	srv := newServer(t)
	alice := signupUser(t, srv, "alice")

	resp, _ := alice.do(http.MethodPost, "/posts", map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = alice.do(http.MethodPost, "/posts", map[string]string{"content": strings.Repeat("x", 501)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteRequiresOwnership(t *testing.T) {
	srv := newServer(t)
	alice := signupUser(t, srv, "alice")
	mallory := signupUser(t, srv, "mallory")

	id := alice.createPost("mine")
	resp, _ := mallory.do(http.MethodDelete, "/posts/"+id, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = alice.do(http.MethodGet, "/posts/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListAndFeed(t *testing.T) {
	srv := newServer(t)
	alice := signupUser(t, srv, "alice")
	bob := signupUser(t, srv, "bob")
	carol := signupUser(t, srv, "carol")

	alice.createPost("from alice")
	time.Sleep(2 * time.Millisecond)
	bob.createPost("from bob")
	time.Sleep(2 * time.Millisecond)
	carol.createPost("from carol")

	resp, _ := alice.do(http.MethodPost, "/users/bob/follow", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	type listResp struct {
		Posts []struct {
			Content string `json:"content"`
		} `json:"posts"`
	}

	resp, raw := alice.do(http.MethodGet, "/posts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all listResp
	require.NoError(t, json.Unmarshal(raw, &all))
	require.Len(t, all.Posts, 3)
	assert.Equal(t, "from carol", all.Posts[0].Content) // newest first

	resp, raw = alice.do(http.MethodGet, "/posts?feed=following", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed listResp
	require.NoError(t, json.Unmarshal(raw, &feed))
	require.Len(t, feed.Posts, 2)
	assert.Equal(t, "from bob", feed.Posts[0].Content)
	assert.Equal(t, "from alice", feed.Posts[1].Content)
}

func TestLikeFlow(t *testing.T) {
	srv := newServer(t)
	alice := signupUser(t, srv, "alice")
	bob := signupUser(t, srv, "bob")

	id := alice.createPost("likeable")

	type likeResp struct {
		Liked     bool `json:"liked"`
		LikeCount int  `json:"like_count"`
	}

	resp, raw := bob.do(http.MethodPost, "/posts/"+id+"/like", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lr likeResp
	require.NoError(t, json.Unmarshal(raw, &lr))
	assert.True(t, lr.Liked)
	assert.Equal(t, 1, lr.LikeCount)

	// liking twice stays at one
	resp, raw = bob.do(http.MethodPost, "/posts/"+id+"/like", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &lr))
	assert.Equal(t, 1, lr.LikeCount)

	resp, raw = bob.do(http.MethodDelete, "/posts/"+id+"/like", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &lr))
	assert.False(t, lr.Liked)
	assert.Zero(t, lr.LikeCount)

	resp, _ = bob.do(http.MethodPost, "/posts/01HZZZZZZZZZZZZZZZZZZZZZZZ/like", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentFlow(t *testing.T) {
	srv := newServer(t)
	alice := signupUser(t, srv, "alice")
	bob := signupUser(t, srv, "bob")
	carol := signupUser(t, srv, "carol")

	id := alice.createPost("discuss")

	resp, raw := bob.do(http.MethodPost, "/posts/"+id+"/comments", map[string]string{"content": "first!"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &comment))

	resp, raw = alice.do(http.MethodGet, "/posts/"+id+"/comments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Comments []struct {
			Content string `json:"content"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Comments, 1)
	assert.Equal(t, "first!", list.Comments[0].Content)

	// a third party cannot delete
	resp, _ = carol.do(http.MethodDelete, "/posts/"+id+"/comments/"+comment.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// the post owner can
	resp, _ = alice.do(http.MethodDelete, "/posts/"+id+"/comments/"+comment.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestUserProfileAndFollows(t *testing.T) {
	srv := newServer(t)
	alice := signupUser(t, srv, "alice")
	bob := signupUser(t, srv, "bob")

	bob.createPost("bob post")

	resp, _ := alice.do(http.MethodPost, "/users/bob/follow", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := alice.do(http.MethodGet, "/users/bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile struct {
		Username       string `json:"username"`
		PostCount      int    `json:"post_count"`
		FollowerCount  int    `json:"follower_count"`
		FollowingCount int    `json:"following_count"`
		FollowedByMe   bool   `json:"followed_by_me"`
	}
	require.NoError(t, json.Unmarshal(raw, &profile))
	assert.Equal(t, "bob", profile.Username)
	assert.Equal(t, 1, profile.PostCount)
	assert.Equal(t, 1, profile.FollowerCount)
	assert.Zero(t, profile.FollowingCount)
	assert.True(t, profile.FollowedByMe)

	type userList struct {
		Users []struct {
			Username string `json:"username"`
		} `json:"users"`
	}
	resp, raw = alice.do(http.MethodGet, "/users/bob/followers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var followers userList
	require.NoError(t, json.Unmarshal(raw, &followers))
	require.Len(t, followers.Users, 1)
	assert.Equal(t, "alice", followers.Users[0].Username)

	resp, _ = alice.do(http.MethodPost, "/users/alice/follow", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = alice.do(http.MethodDelete, "/users/bob/follow", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, raw = alice.do(http.MethodGet, "/users/bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &profile))
	assert.Zero(t, profile.FollowerCount)
	assert.False(t, profile.FollowedByMe)

	resp, _ = alice.do(http.MethodGet, "/users/nobody", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearch(t *testing.T) {
	srv := newServer(t)
	alice := signupUser(t, srv, "alice")
	signupUser(t, srv, "alison")

	alice.createPost("gophers gather here")
	alice.createPost("unrelated")

	resp, raw := alice.do(http.MethodGet, "/search?q=ali", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Users []struct {
			Username string `json:"username"`
		} `json:"users"`
		Posts []struct {
			Content string `json:"content"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Len(t, out.Users, 2)
	assert.Empty(t, out.Posts)

	resp, raw = alice.do(http.MethodGet, "/search?q=gopher", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Posts, 1)
	assert.Equal(t, "gophers gather here", out.Posts[0].Content)

	resp, _ = alice.do(http.MethodGet, "/search?q=", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
