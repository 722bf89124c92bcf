// internal/models/types.go
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User is the public profile stored under "user:<id>".
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LocalCredential holds the argon2id PHC hash for a username.
// Never serialized to clients.
type LocalCredential struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
}

// Post is a short text update stored under "post:<ulid>".
// Post IDs are ULIDs so a prefix scan yields chronological order.
type Post struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is stored under "comment:<postID>:<ulid>".
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Like is a marker stored under "like:<postID>:<userID>".
type Like struct {
	PostID    string    `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Follow is a marker stored under "follow:<follower>:<followee>".
type Follow struct {
	FollowerID uuid.UUID `json:"follower_id"`
	FolloweeID uuid.UUID `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is a server-side refresh session stored under
// "session:<sha256(refreshToken)>" with a TTL. Only the hash of the
// refresh token ever touches the store.
type Session struct {
	TokenHash string    `json:"token_hash"`
	UserID    uuid.UUID `json:"user_id"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the refresh session has lapsed.
func (s Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(time.Now())
}

// TokenPair is what the auth endpoints return: a short-lived access JWT
// plus an opaque refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

// TOTPEnrollment holds a user's TOTP secret under "totp:<userID>".
type TOTPEnrollment struct {
	UserID    uuid.UUID `json:"user_id"`
	Secret    string    `json:"secret"`
	Issuer    string    `json:"issuer"`
	Label     string    `json:"label"`
	Confirmed bool      `json:"confirmed"`
}

var (
	ErrNotFound      = errors.New("not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrPostNotFound  = errors.New("post not found")
	ErrUsernameTaken = errors.New("username taken")
	ErrAlreadyExists = errors.New("already exists")
	ErrForbidden     = errors.New("forbidden")
	ErrSelfFollow    = errors.New("cannot follow yourself")
)
