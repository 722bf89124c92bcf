// Package client wraps outbound HTTP calls with bearer-credential
// attachment and a single refresh-and-retry cycle on credential expiry.
//
// Failure semantics: a 401 on the first attempt triggers exactly one
// refresh and retry; a failed refresh terminates the session and the call
// fails with ErrSessionExpired. Transport failures propagate immediately
// as *NetworkError. Every other response, including 4xx/5xx and a second
// 401, is returned to the caller untouched.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

type Client struct {
	hc       *http.Client
	sessions SessionProvider
	log      *slog.Logger
}

type Option func(*Client)

// WithHTTPClient sets the underlying transport. Callers inherit whatever
// timeout it carries; the wrapper defines none of its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client bound to a session provider.
func New(sessions SessionProvider, opts ...Option) *Client {
	c := &Client{
		hc:       http.DefaultClient,
		sessions: sessions,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// buildRequest merges caller headers with the injected ones. The injected
// Authorization and Content-Type win; callers cannot spoof these.
func (c *Client) buildRequest(ctx context.Context, method, url string, body []byte, header http.Header, token string) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Do issues an authenticated request. On a 401 it asks the provider to
// refresh the credential and retries exactly once; the second response is
// returned whatever its status. The caller owns the response body.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, header http.Header) (*http.Response, error) {
	sess, err := c.sessions.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	if sess == nil || sess.AccessToken == "" {
		return nil, ErrNoCredential
	}

	req, err := c.buildRequest(ctx, method, url, body, header, sess.AccessToken)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Credential rejected. One refresh-and-retry cycle, never more.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.log.DebugContext(ctx, "credential rejected, refreshing session", "method", method, "url", url)
	fresh, refreshErr := c.sessions.RefreshSession(ctx)
	if refreshErr != nil || fresh == nil || fresh.AccessToken == "" {
		if termErr := c.sessions.TerminateSession(ctx); termErr != nil {
			c.log.WarnContext(ctx, "session termination failed", "err", termErr)
		}
		if refreshErr != nil {
			return nil, fmt.Errorf("%w: refresh: %v", ErrSessionExpired, refreshErr)
		}
		return nil, ErrSessionExpired
	}

	retry, err := c.buildRequest(ctx, method, url, body, header, fresh.AccessToken)
	if err != nil {
		return nil, err
	}
	resp, err = c.hc.Do(retry)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return resp, nil
}

// Get issues an authenticated GET.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, nil)
}

// Post issues an authenticated POST with an optional JSON body.
func (c *Client) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	raw, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, http.MethodPost, url, raw, nil)
}

// Put issues an authenticated PUT with an optional JSON body.
func (c *Client) Put(ctx context.Context, url string, body any) (*http.Response, error) {
	raw, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, http.MethodPut, url, raw, nil)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodDelete, url, nil, nil)
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return raw, nil
}
