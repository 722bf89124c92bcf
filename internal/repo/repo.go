// internal/repo/repo.go
package repo

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"microblog/internal/kv"
	"microblog/internal/models"
)

// Key prefixes. Every entity lives in the shared KV store under one of
// these namespaces; lists are prefix scans filtered in memory.
const (
	prefixUser     = "user:"
	prefixUsername = "username:"
	prefixPost     = "post:"
	prefixLike     = "like:"
	prefixComment  = "comment:"
	prefixFollow   = "follow:"
	prefixSession  = "session:"
	prefixTOTP     = "totp:"
)

// Repo defines the methods the rest of the app uses.
type Repo interface {
	// Users
	CreateUser(ctx context.Context, username, name, passwordHash string) (models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, name, bio, avatarURL *string) (models.User, error)
	SearchUsers(ctx context.Context, q string, limit int) ([]models.User, error)

	// Local credentials
	GetLocalCredentialByUsername(ctx context.Context, username string) (models.LocalCredential, models.User, error)
	UpdateLocalPasswordHash(ctx context.Context, userID uuid.UUID, phc string) error

	// Posts
	CreatePost(ctx context.Context, userID uuid.UUID, content string) (models.Post, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	DeletePost(ctx context.Context, id string) error
	ListAllPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByUser(ctx context.Context, userID uuid.UUID) ([]models.Post, error)
	FeedFor(ctx context.Context, userID uuid.UUID) ([]models.Post, error)
	SearchPosts(ctx context.Context, q string, limit int) ([]models.Post, error)

	// Likes
	LikePost(ctx context.Context, postID string, userID uuid.UUID) error
	UnlikePost(ctx context.Context, postID string, userID uuid.UUID) error
	HasLiked(ctx context.Context, postID string, userID uuid.UUID) (bool, error)
	CountLikes(ctx context.Context, postID string) (int, error)

	// Comments
	AddComment(ctx context.Context, postID string, userID uuid.UUID, content string) (models.Comment, error)
	GetComment(ctx context.Context, postID, commentID string) (models.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	CountComments(ctx context.Context, postID string) (int, error)

	// Follows
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	ListFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Refresh sessions
	PutSession(ctx context.Context, sess models.Session) error
	GetSession(ctx context.Context, tokenHash string) (models.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error

	// TOTP
	SetTOTPSecret(ctx context.Context, enrollment models.TOTPEnrollment) error
	GetTOTPSecret(ctx context.Context, userID uuid.UUID) (models.TOTPEnrollment, bool)
	UserHasTOTP(ctx context.Context, userID uuid.UUID) bool
}

// kvRepo implements Repo on top of a kv.Store.
type kvRepo struct{ store kv.Store }

func New(store kv.Store) Repo { return &kvRepo{store: store} }

// newULID returns a lexicographically sortable id so prefix scans come
// back in chronological order.
func newULID(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now.UTC()), rand.Reader)
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken
		panic(err)
	}
	return id.String()
}
