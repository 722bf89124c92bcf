// pkg/client/session.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Session is the credential state the client reads. It is owned by the
// SessionProvider; the client never mutates it directly.
type Session struct {
	AccessToken string
	UserID      string
}

// SessionProvider owns credential storage, refresh and termination.
// Implementations must be safe for concurrent use; the client does not
// serialize concurrent refreshes.
type SessionProvider interface {
	// GetSession returns the current session, or nil when logged out.
	GetSession(ctx context.Context) (*Session, error)

	// RefreshSession exchanges the expired credential for a new one.
	// A nil session with nil error means the refresh was rejected.
	RefreshSession(ctx context.Context) (*Session, error)

	// TerminateSession destroys the session (forced logout).
	TerminateSession(ctx context.Context) error
}

// TokenSession is a SessionProvider backed by the service's own auth
// endpoints: it holds the token pair in memory and rotates it through
// POST /auth/refresh.
type TokenSession struct {
	baseURL string
	hc      *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	userID       string
}

// NewTokenSession creates a provider seeded with a token pair obtained
// from login or signup.
func NewTokenSession(baseURL string, hc *http.Client, accessToken, refreshToken, userID string) *TokenSession {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &TokenSession{
		baseURL:      baseURL,
		hc:           hc,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		userID:       userID,
	}
}

func (s *TokenSession) GetSession(_ context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == "" {
		return nil, nil
	}
	return &Session{AccessToken: s.accessToken, UserID: s.userID}, nil
}

func (s *TokenSession) RefreshSession(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	refresh := s.refreshToken
	s.mu.Unlock()
	if refresh == "" {
		return nil, nil
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": refresh})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		// Refresh token rejected; there is no session to recover.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh failed: status %d", resp.StatusCode)
	}

	var body struct {
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("refresh decode: %w", err)
	}
	if body.Tokens.AccessToken == "" {
		return nil, nil
	}

	s.mu.Lock()
	s.accessToken = body.Tokens.AccessToken
	s.refreshToken = body.Tokens.RefreshToken
	userID := s.userID
	s.mu.Unlock()
	return &Session{AccessToken: body.Tokens.AccessToken, UserID: userID}, nil
}

func (s *TokenSession) TerminateSession(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.refreshToken
	s.accessToken = ""
	s.refreshToken = ""
	s.userID = ""
	s.mu.Unlock()

	if refresh == "" {
		return nil
	}
	payload, err := json.Marshal(map[string]string{"refresh_token": refresh})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/logout", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	resp.Body.Close()
	return nil
}
