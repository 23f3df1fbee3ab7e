package gigachat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// chatRequest is the minimal request shape for the chat completions endpoint.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// chatResponse is the minimal response shape returned by the endpoint.
type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Chat sends the full turn sequence to the completions endpoint and returns
// the first choice's message as the assistant reply.
//
// A 200 with a malformed or empty body yields an empty-content reply and no
// error; callers must treat empty content as a degenerate but successful
// outcome. A 401 returns ErrCredentialExpired so the caller can refresh and
// retry. Any other non-2xx status returns a StatusError.
func (c *Client) Chat(ctx context.Context, messages []Message) (Message, error) {
	reply := Message{Role: RoleAssistant}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return reply, fmt.Errorf("gigachat: marshal request: %w", err)
	}

	url := c.apiBase + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return reply, fmt.Errorf("gigachat: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token())

	resp, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return reply, fmt.Errorf("gigachat: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return reply, ErrCredentialExpired
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return reply, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       string(raw),
		}
	}

	var out chatResponse
	if err := decodeJSON(raw, &out); err != nil || len(out.Choices) == 0 {
		// Missing or malformed fields degrade to an empty reply, not an error.
		return reply, nil
	}
	reply.Content = out.Choices[0].Message.Content
	return reply, nil
}

func decodeJSON(raw []byte, out any) error {
	return json.Unmarshal(raw, out)
}
