// internal/repo/social.go
//
// Likes, comments and follows are flat markers in the KV store; counts and
// listings are prefix scans filtered in memory.
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

func likeKey(postID string, userID uuid.UUID) string {
	return prefixLike + postID + ":" + userID.String()
}

func commentKey(postID, commentID string) string {
	return prefixComment + postID + ":" + commentID
}

func followKey(followerID, followeeID uuid.UUID) string {
	return prefixFollow + followerID.String() + ":" + followeeID.String()
}

// ---------- Likes ----------

func (r *kvRepo) LikePost(ctx context.Context, postID string, userID uuid.UUID) error {
	if _, err := r.GetPost(ctx, postID); err != nil {
		return err
	}
	key := likeKey(postID, userID)
	if _, err := r.store.Get(ctx, key); err == nil {
		return models.ErrAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	raw, err := json.Marshal(models.Like{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return r.store.Set(ctx, key, raw, 0)
}

func (r *kvRepo) UnlikePost(ctx context.Context, postID string, userID uuid.UUID) error {
	return r.store.Delete(ctx, likeKey(postID, userID))
}

func (r *kvRepo) HasLiked(ctx context.Context, postID string, userID uuid.UUID) (bool, error) {
	_, err := r.store.Get(ctx, likeKey(postID, userID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *kvRepo) CountLikes(ctx context.Context, postID string) (int, error) {
	entries, err := r.store.List(ctx, prefixLike+postID+":")
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ---------- Comments ----------

func (r *kvRepo) AddComment(ctx context.Context, postID string, userID uuid.UUID, content string) (models.Comment, error) {
	if _, err := r.GetPost(ctx, postID); err != nil {
		return models.Comment{}, err
	}
	now := time.Now().UTC()
	c := models.Comment{
		ID:        newULID(now),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return models.Comment{}, err
	}
	if err := r.store.Set(ctx, commentKey(postID, c.ID), raw, 0); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

func (r *kvRepo) GetComment(ctx context.Context, postID, commentID string) (models.Comment, error) {
	raw, err := r.store.Get(ctx, commentKey(postID, commentID))
	if err != nil {
		return models.Comment{}, err
	}
	var c models.Comment
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

func (r *kvRepo) DeleteComment(ctx context.Context, postID, commentID string) error {
	return r.store.Delete(ctx, commentKey(postID, commentID))
}

// ListComments returns a post's comments oldest first (ULID key order).
func (r *kvRepo) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	entries, err := r.store.List(ctx, prefixComment+postID+":")
	if err != nil {
		return nil, err
	}
	out := make([]models.Comment, 0, len(entries))
	for _, e := range entries {
		var c models.Comment
		if err := json.Unmarshal(e.Value, &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *kvRepo) CountComments(ctx context.Context, postID string) (int, error) {
	entries, err := r.store.List(ctx, prefixComment+postID+":")
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ---------- Follows ----------

func (r *kvRepo) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return models.ErrSelfFollow
	}
	if _, err := r.GetUserByID(ctx, followeeID); err != nil {
		return err
	}
	key := followKey(followerID, followeeID)
	if _, err := r.store.Get(ctx, key); err == nil {
		return models.ErrAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	raw, err := json.Marshal(models.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return r.store.Set(ctx, key, raw, 0)
}

func (r *kvRepo) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return r.store.Delete(ctx, followKey(followerID, followeeID))
}

func (r *kvRepo) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	_, err := r.store.Get(ctx, followKey(followerID, followeeID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *kvRepo) ListFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	entries, err := r.store.List(ctx, prefixFollow+userID.String()+":")
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		var f models.Follow
		if err := json.Unmarshal(e.Value, &f); err != nil {
			continue
		}
		out = append(out, f.FolloweeID)
	}
	return out, nil
}

// ListFollowers scans the whole follow namespace; follower lists are small
// and unpaginated, so the full scan matches the rest of the store.
func (r *kvRepo) ListFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	entries, err := r.store.List(ctx, prefixFollow)
	if err != nil {
		return nil, err
	}
	suffix := ":" + userID.String()
	out := make([]uuid.UUID, 0, 8)
	for _, e := range entries {
		if !strings.HasSuffix(e.Key, suffix) {
			continue
		}
		var f models.Follow
		if err := json.Unmarshal(e.Value, &f); err != nil {
			continue
		}
		if f.FolloweeID == userID {
			out = append(out, f.FollowerID)
		}
	}
	return out, nil
}
