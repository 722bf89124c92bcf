// internal/handlers/search.go
package handlers

import (
	"net/http"
	"strings"

	"microblog/internal/httpx"
	"microblog/internal/repo"
)

const searchLimit = 50

// SearchHandler handles GET /search?q= across users and posts.
func SearchHandler(r repo.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		q := strings.TrimSpace(req.URL.Query().Get("q"))
		if q == "" {
			httpx.Error(w, http.StatusBadRequest, "q required")
			return
		}
		users, err := r.SearchUsers(req.Context(), q, searchLimit)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "search failed")
			return
		}
		posts, err := r.SearchPosts(req.Context(), q, searchLimit)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "search failed")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"users": users, "posts": posts})
	}
}
