package gigachat

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCredentialExpired reports a 401 from a bearer-authenticated call.
	// Recoverable: the caller refreshes the token and retries once.
	ErrCredentialExpired = errors.New("gigachat: credential expired")

	// ErrAuthorization reports that no credential could be obtained from the
	// OAuth endpoint. Terminal for the current exchange.
	ErrAuthorization = errors.New("gigachat: authorization failed")
)

// StatusError captures non-2xx upstream responses with status-aware context.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("gigachat: unexpected status %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("gigachat: unexpected status %d from %s: %s", e.StatusCode, e.URL, body)
}

func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}
