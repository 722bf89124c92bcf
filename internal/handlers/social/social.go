// internal/handlers/social/social.go
//
// Likes and comments, mounted under /posts/{id}.
package social

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"microblog/internal/auth"
	"microblog/internal/httpx"
	"microblog/internal/models"
	"microblog/internal/repo"
)

const maxCommentLen = 500

type Handler struct {
	repo repo.Repo
}

func New(r repo.Repo) *Handler {
	return &Handler{repo: r}
}

// Like handles POST /posts/{id}/like. Liking twice is a no-op success.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID := chi.URLParam(r, "id")
	err := h.repo.LikePost(r.Context(), postID, u.ID)
	switch {
	case err == nil, errors.Is(err, models.ErrAlreadyExists):
	case errors.Is(err, models.ErrPostNotFound):
		httpx.Error(w, http.StatusNotFound, "post not found")
		return
	default:
		httpx.Error(w, http.StatusInternalServerError, "like failed")
		return
	}
	count, _ := h.repo.CountLikes(r.Context(), postID)
	httpx.JSON(w, http.StatusOK, map[string]any{"liked": true, "like_count": count})
}

// Unlike handles DELETE /posts/{id}/like.
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID := chi.URLParam(r, "id")
	if err := h.repo.UnlikePost(r.Context(), postID, u.ID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "unlike failed")
		return
	}
	count, _ := h.repo.CountLikes(r.Context(), postID)
	httpx.JSON(w, http.StatusOK, map[string]any{"liked": false, "like_count": count})
}

// ListComments handles GET /posts/{id}/comments, oldest first.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	if _, err := h.repo.GetPost(r.Context(), postID); err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			httpx.Error(w, http.StatusNotFound, "post not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "list failed")
		return
	}
	comments, err := h.repo.ListComments(r.Context(), postID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "list failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"comments": comments})
}

// AddComment handles POST /posts/{id}/comments. Body: { "content": "..." }
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID := chi.URLParam(r, "id")
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	content := strings.TrimSpace(body.Content)
	if content == "" {
		httpx.Error(w, http.StatusBadRequest, "content required")
		return
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		httpx.Error(w, http.StatusBadRequest, "content too long")
		return
	}
	c, err := h.repo.AddComment(r.Context(), postID, u.ID, content)
	if err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			httpx.Error(w, http.StatusNotFound, "post not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "comment failed")
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

// DeleteComment handles DELETE /posts/{id}/comments/{commentID}.
// Allowed for the comment author or the post owner.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID := chi.URLParam(r, "id")
	commentID := chi.URLParam(r, "commentID")

	c, err := h.repo.GetComment(r.Context(), postID, commentID)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "comment not found")
		return
	}
	if c.UserID != u.ID {
		p, err := h.repo.GetPost(r.Context(), postID)
		if err != nil || p.UserID != u.ID {
			httpx.Error(w, http.StatusForbidden, "not your comment")
			return
		}
	}
	if err := h.repo.DeleteComment(r.Context(), postID, commentID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
