// internal/handlers/users/users.go
package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"microblog/internal/auth"
	"microblog/internal/httpx"
	"microblog/internal/models"
	"microblog/internal/repo"
)

type Handler struct {
	repo repo.Repo
}

func New(r repo.Repo) *Handler {
	return &Handler{repo: r}
}

// Profile is a user enriched with social counts.
type Profile struct {
	models.User
	PostCount      int  `json:"post_count"`
	FollowerCount  int  `json:"follower_count"`
	FollowingCount int  `json:"following_count"`
	FollowedByMe   bool `json:"followed_by_me"`
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	username := chi.URLParam(r, "username")
	u, err := h.repo.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			httpx.Error(w, http.StatusNotFound, "user not found")
		} else {
			httpx.Error(w, http.StatusInternalServerError, "lookup failed")
		}
		return models.User{}, false
	}
	return u, true
}

// Get handles GET /users/{username}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	p := Profile{User: u}
	if posts, err := h.repo.ListPostsByUser(ctx, u.ID); err == nil {
		p.PostCount = len(posts)
	}
	if ids, err := h.repo.ListFollowers(ctx, u.ID); err == nil {
		p.FollowerCount = len(ids)
	}
	if ids, err := h.repo.ListFollowing(ctx, u.ID); err == nil {
		p.FollowingCount = len(ids)
	}
	if me, ok := auth.UserIDFromContext(ctx); ok {
		p.FollowedByMe, _ = h.repo.IsFollowing(ctx, me, u.ID)
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Posts handles GET /users/{username}/posts.
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookup(w, r)
	if !ok {
		return
	}
	posts, err := h.repo.ListPostsByUser(r.Context(), u.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "list failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// Follow handles POST /users/{username}/follow.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	target, ok := h.lookup(w, r)
	if !ok {
		return
	}
	err := h.repo.Follow(r.Context(), me.ID, target.ID)
	switch {
	case err == nil, errors.Is(err, models.ErrAlreadyExists):
	case errors.Is(err, models.ErrSelfFollow):
		httpx.Error(w, http.StatusBadRequest, "cannot follow yourself")
		return
	default:
		httpx.Error(w, http.StatusInternalServerError, "follow failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"following": true})
}

// Unfollow handles DELETE /users/{username}/follow.
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	target, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.repo.Unfollow(r.Context(), me.ID, target.ID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "unfollow failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"following": false})
}

// Followers handles GET /users/{username}/followers.
func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ids, err := h.repo.ListFollowers(r.Context(), u.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "list failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": h.resolve(r, ids)})
}

// Following handles GET /users/{username}/following.
func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ids, err := h.repo.ListFollowing(r.Context(), u.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "list failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": h.resolve(r, ids)})
}

func (h *Handler) resolve(r *http.Request, ids []uuid.UUID) []models.User {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, err := h.repo.GetUserByID(r.Context(), id); err == nil {
			out = append(out, u)
		}
	}
	return out
}
