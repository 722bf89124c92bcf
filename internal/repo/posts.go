// internal/repo/posts.go
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"microblog/internal/models"
)

func postKey(id string) string { return prefixPost + id }

func (r *kvRepo) CreatePost(ctx context.Context, userID uuid.UUID, content string) (models.Post, error) {
	now := time.Now().UTC()
	p := models.Post{
		ID:        newULID(now),
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return models.Post{}, err
	}
	if err := r.store.Set(ctx, postKey(p.ID), raw, 0); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

func (r *kvRepo) GetPost(ctx context.Context, id string) (models.Post, error) {
	raw, err := r.store.Get(ctx, postKey(id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Post{}, models.ErrPostNotFound
		}
		return models.Post{}, err
	}
	var p models.Post
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// DeletePost removes the post and sweeps its likes and comments.
func (r *kvRepo) DeletePost(ctx context.Context, id string) error {
	if _, err := r.GetPost(ctx, id); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, postKey(id)); err != nil {
		return err
	}
	for _, prefix := range []string{prefixLike + id + ":", prefixComment + id + ":"} {
		entries, err := r.store.List(ctx, prefix)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := r.store.Delete(ctx, e.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

// listPosts scans the post namespace and returns posts newest first.
// ULID keys come back in ascending (chronological) order, so reverse.
func (r *kvRepo) listPosts(ctx context.Context, keep func(models.Post) bool) ([]models.Post, error) {
	entries, err := r.store.List(ctx, prefixPost)
	if err != nil {
		return nil, err
	}
	out := make([]models.Post, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		var p models.Post
		if err := json.Unmarshal(entries[i].Value, &p); err != nil {
			continue
		}
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *kvRepo) ListAllPosts(ctx context.Context) ([]models.Post, error) {
	return r.listPosts(ctx, nil)
}

func (r *kvRepo) ListPostsByUser(ctx context.Context, userID uuid.UUID) ([]models.Post, error) {
	return r.listPosts(ctx, func(p models.Post) bool { return p.UserID == userID })
}

// FeedFor returns the user's own posts plus posts from everyone they follow.
func (r *kvRepo) FeedFor(ctx context.Context, userID uuid.UUID) ([]models.Post, error) {
	following, err := r.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible := make(map[uuid.UUID]struct{}, len(following)+1)
	visible[userID] = struct{}{}
	for _, id := range following {
		visible[id] = struct{}{}
	}
	return r.listPosts(ctx, func(p models.Post) bool {
		_, ok := visible[p.UserID]
		return ok
	})
}

func (r *kvRepo) SearchPosts(ctx context.Context, q string, limit int) ([]models.Post, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	posts, err := r.listPosts(ctx, func(p models.Post) bool {
		return q == "" || strings.Contains(strings.ToLower(p.Content), q)
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}
