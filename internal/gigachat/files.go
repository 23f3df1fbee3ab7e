package gigachat

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const maxFileBytes = 32 << 20

// FetchFile downloads the raw content of a generated file by identifier.
// A 401 returns ErrCredentialExpired; any other non-2xx a StatusError.
func (c *Client) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	url := fmt.Sprintf("%s/files/%s/content", c.apiBase, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gigachat: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token())

	resp, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("gigachat: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrCredentialExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       string(raw),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFileBytes))
	if err != nil {
		return nil, fmt.Errorf("gigachat: read file body: %w", err)
	}
	return raw, nil
}
