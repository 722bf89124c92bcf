// internal/repo/users.go
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"microblog/internal/models"
)

// credRecord is what lives under "username:<username>": the uniqueness
// index and the local credential in one record.
type credRecord struct {
	UserID       uuid.UUID `json:"user_id"`
	PasswordHash string    `json:"password_hash"`
}

func userKey(id uuid.UUID) string    { return prefixUser + id.String() }
func usernameKey(name string) string { return prefixUsername + name }

func (r *kvRepo) CreateUser(ctx context.Context, username, name, passwordHash string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.User{}, fmt.Errorf("empty username")
	}
	if _, err := r.store.Get(ctx, usernameKey(username)); err == nil {
		return models.User{}, models.ErrUsernameTaken
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, err
	}

	u := models.User{
		ID:        uuid.New(),
		Username:  username,
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return models.User{}, err
	}
	if err := r.store.Set(ctx, userKey(u.ID), raw, 0); err != nil {
		return models.User{}, err
	}
	cred, err := json.Marshal(credRecord{UserID: u.ID, PasswordHash: passwordHash})
	if err != nil {
		return models.User{}, err
	}
	if err := r.store.Set(ctx, usernameKey(username), cred, 0); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (r *kvRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	raw, err := r.store.Get(ctx, userKey(id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (r *kvRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	raw, err := r.store.Get(ctx, usernameKey(username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	var cred credRecord
	if err := json.Unmarshal(raw, &cred); err != nil {
		return models.User{}, err
	}
	return r.GetUserByID(ctx, cred.UserID)
}

func (r *kvRepo) GetLocalCredentialByUsername(ctx context.Context, username string) (models.LocalCredential, models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	raw, err := r.store.Get(ctx, usernameKey(username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.LocalCredential{}, models.User{}, models.ErrUserNotFound
		}
		return models.LocalCredential{}, models.User{}, err
	}
	var cred credRecord
	if err := json.Unmarshal(raw, &cred); err != nil {
		return models.LocalCredential{}, models.User{}, err
	}
	u, err := r.GetUserByID(ctx, cred.UserID)
	if err != nil {
		return models.LocalCredential{}, models.User{}, err
	}
	return models.LocalCredential{
		UserID:       cred.UserID,
		Username:     username,
		PasswordHash: cred.PasswordHash,
	}, u, nil
}

func (r *kvRepo) UpdateLocalPasswordHash(ctx context.Context, userID uuid.UUID, phc string) error {
	u, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	cred, err := json.Marshal(credRecord{UserID: userID, PasswordHash: phc})
	if err != nil {
		return err
	}
	return r.store.Set(ctx, usernameKey(u.Username), cred, 0)
}

func (r *kvRepo) UpdateUserProfile(ctx context.Context, id uuid.UUID, name, bio, avatarURL *string) (models.User, error) {
	u, err := r.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if name != nil {
		u.Name = strings.TrimSpace(*name)
	}
	if bio != nil {
		u.Bio = strings.TrimSpace(*bio)
	}
	if avatarURL != nil {
		u.AvatarURL = strings.TrimSpace(*avatarURL)
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return models.User{}, err
	}
	if err := r.store.Set(ctx, userKey(id), raw, 0); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (r *kvRepo) SearchUsers(ctx context.Context, q string, limit int) ([]models.User, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	entries, err := r.store.List(ctx, prefixUser)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, 8)
	for _, e := range entries {
		var u models.User
		if err := json.Unmarshal(e.Value, &u); err != nil {
			continue
		}
		if q == "" ||
			strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.Name), q) {
			out = append(out, u)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}
