// internal/handlers/posts/posts.go
package posts

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

const maxContentLen = 500

type Handler struct {
	repo repo.Repo
}

func New(r repo.Repo) *Handler {
	return &Handler{repo: r}
}

// View is a post enriched with author and social counts.
type View struct {
	models.Post
	Author       *models.User `json:"author,omitempty"`
	LikeCount    int          `json:"like_count"`
	CommentCount int          `json:"comment_count"`
	LikedByMe    bool         `json:"liked_by_me"`
}

func (h *Handler) view(r *http.Request, p models.Post) View {
	v := View{Post: p}
	ctx := r.Context()
	if u, err := h.repo.GetUserByID(ctx, p.UserID); err == nil {
		v.Author = &u
	}
	v.LikeCount, _ = h.repo.CountLikes(ctx, p.ID)
	v.CommentCount, _ = h.repo.CountComments(ctx, p.ID)
	if uid, ok := auth.UserIDFromContext(ctx); ok {
		v.LikedByMe, _ = h.repo.HasLiked(ctx, p.ID, uid)
	}
	return v
}

func (h *Handler) views(r *http.Request, posts []models.Post) []View {
	out := make([]View, 0, len(posts))
	for _, p := range posts {
		out = append(out, h.view(r, p))
	}
	return out
}

// Create handles POST /posts. Body: { "content": "..." }
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
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
	if utf8.RuneCountInString(content) > maxContentLen {
		httpx.Error(w, http.StatusBadRequest, "content too long")
		return
	}
	p, err := h.repo.CreatePost(r.Context(), u.ID, content)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "create failed")
		return
	}
	httpx.JSON(w, http.StatusCreated, h.view(r, p))
}

// List handles GET /posts. ?feed=following narrows to followed authors.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		posts []models.Post
		err   error
	)
	if r.URL.Query().Get("feed") == "following" {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		posts, err = h.repo.FeedFor(r.Context(), uid)
	} else {
		posts, err = h.repo.ListAllPosts(r.Context())
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "list failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"posts": h.views(r, posts)})
}

// Get handles GET /posts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.repo.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			httpx.Error(w, http.StatusNotFound, "post not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "get failed")
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(r, p))
}

// Delete handles DELETE /posts/{id}. Only the author may delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := chi.URLParam(r, "id")
	p, err := h.repo.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			httpx.Error(w, http.StatusNotFound, "post not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "delete failed")
		return
	}
	if p.UserID != u.ID {
		httpx.Error(w, http.StatusForbidden, "not your post")
		return
	}
	if err := h.repo.DeletePost(r.Context(), id); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
