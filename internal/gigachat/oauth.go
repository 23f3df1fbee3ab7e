package gigachat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// EnsureToken obtains a credential only if none is cached yet.
func (c *Client) EnsureToken(ctx context.Context) error {
	if c.Token() != "" {
		return nil
	}
	return c.Refresh(ctx)
}

// Refresh unconditionally requests a new credential and replaces the cached
// one. Invoked reactively after a downstream 401; there is no expiry timer.
func (c *Client) Refresh(ctx context.Context) error {
	token, err := c.authorize(ctx)
	if err != nil {
		return err
	}
	c.setToken(token)
	return nil
}

func (c *Client) authorize(ctx context.Context) (string, error) {
	form := url.Values{"scope": {c.scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrAuthorization, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.authKey)
	// RqUID is an idempotency key for the endpoint: fresh and unique per
	// call, no ordering guarantee needed.
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthorization, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %v", ErrAuthorization, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        c.oauthURL,
			Body:       string(raw),
		})
	}

	var out oauthResponse
	if err := decodeJSON(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrAuthorization, err)
	}
	token := strings.TrimSpace(out.AccessToken)
	if token == "" {
		return "", fmt.Errorf("%w: empty access_token", ErrAuthorization)
	}
	return token, nil
}
