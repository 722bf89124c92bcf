// internal/repo/sessions.go
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"microblog/internal/models"
)

func sessionKey(tokenHash string) string { return prefixSession + tokenHash }
func totpKey(userID uuid.UUID) string    { return prefixTOTP + userID.String() }

// PutSession stores a refresh session with a TTL derived from its expiry,
// so the store evicts it on its own.
func (r *kvRepo) PutSession(ctx context.Context, sess models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	return r.store.Set(ctx, sessionKey(sess.TokenHash), raw, ttl)
}

func (r *kvRepo) GetSession(ctx context.Context, tokenHash string) (models.Session, error) {
	raw, err := r.store.Get(ctx, sessionKey(tokenHash))
	if err != nil {
		return models.Session{}, err
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return models.Session{}, err
	}
	if sess.IsExpired() {
		_ = r.store.Delete(ctx, sessionKey(tokenHash))
		return models.Session{}, models.ErrNotFound
	}
	return sess, nil
}

func (r *kvRepo) DeleteSession(ctx context.Context, tokenHash string) error {
	return r.store.Delete(ctx, sessionKey(tokenHash))
}

func (r *kvRepo) SetTOTPSecret(ctx context.Context, enrollment models.TOTPEnrollment) error {
	raw, err := json.Marshal(enrollment)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, totpKey(enrollment.UserID), raw, 0)
}

func (r *kvRepo) GetTOTPSecret(ctx context.Context, userID uuid.UUID) (models.TOTPEnrollment, bool) {
	raw, err := r.store.Get(ctx, totpKey(userID))
	if err != nil {
		return models.TOTPEnrollment{}, false
	}
	var e models.TOTPEnrollment
	if err := json.Unmarshal(raw, &e); err != nil {
		return models.TOTPEnrollment{}, false
	}
	return e, true
}

func (r *kvRepo) UserHasTOTP(ctx context.Context, userID uuid.UUID) bool {
	e, ok := r.GetTOTPSecret(ctx, userID)
	return ok && e.Confirmed
}
