// Package gigachat is a focused client for the GigaChat API: OAuth token
// acquisition, chat completions, and generated-file download.
package gigachat

import (
	"crypto/tls"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultOAuthURL       = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	defaultAPIBase        = "https://gigachat.devices.sberbank.ru/api/v1"
	defaultScope          = "GIGACHAT_API_PERS"
	defaultModel          = "GigaChat:latest"
	defaultTemperature    = 0.5
	defaultRequestTimeout = 30 * time.Second
)

// Message is a single conversation turn, shared by requests, replies and the
// persisted history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Client talks to the GigaChat OAuth and completion endpoints. The bearer
// token obtained from OAuth is cached in memory for the process lifetime and
// replaced wholesale on refresh; concurrent refreshes race benignly (the
// endpoint is idempotent per call, last writer wins).
type Client struct {
	httpClient  *http.Client
	oauthURL    string
	apiBase     string
	authKey     string
	scope       string
	model       string
	temperature float64

	mu    sync.Mutex
	token string
}

type Option func(*Client)

func WithOAuthURL(u string) Option {
	return func(c *Client) {
		c.oauthURL = strings.TrimSpace(u)
	}
}

func WithAPIBase(u string) Option {
	return func(c *Client) {
		c.apiBase = strings.TrimRight(strings.TrimSpace(u), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if m := strings.TrimSpace(model); m != "" {
			c.model = m
		}
	}
}

func WithTemperature(t float64) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

func WithScope(scope string) Option {
	return func(c *Client) {
		if s := strings.TrimSpace(scope); s != "" {
			c.scope = s
		}
	}
}

// WithInsecureTLS disables certificate verification. The production endpoints
// sit behind a non-public CA, so some deployments opt in instead of
// installing the root certificate.
func WithInsecureTLS() Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{Timeout: defaultRequestTimeout}
		}
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 && c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

func NewClient(authKey string, opts ...Option) (*Client, error) {
	authKey = strings.TrimSpace(authKey)
	if authKey == "" {
		return nil, errors.New("gigachat: auth key must not be empty")
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultRequestTimeout},
		oauthURL:    defaultOAuthURL,
		apiBase:     defaultAPIBase,
		authKey:     authKey,
		scope:       defaultScope,
		model:       defaultModel,
		temperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the cached bearer token, or "" if none has been obtained yet.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultRequestTimeout}
}
