package fmclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// TokenProvider supplies the bearer token attached to every Data API
// request. Refresh is called after the server rejects the current token
// with HTTP 401; it must return a token different from stale for the
// request to be retried.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context, stale string) (string, error)
}

// StaticTokenProvider sends a pre-issued API key on every request. There
// is nothing to refresh: a rejected key stays rejected.
type StaticTokenProvider struct {
	key string
}

func NewStaticTokenProvider(key string) (*StaticTokenProvider, error) {
	if key == "" {
		return nil, fmt.Errorf("api key is required")
	}
	return &StaticTokenProvider{key: key}, nil
}

func (p *StaticTokenProvider) Token(ctx context.Context) (string, error) {
	return p.key, nil
}

func (p *StaticTokenProvider) Refresh(ctx context.Context, stale string) (string, error) {
	return p.key, nil
}

// CredentialProvider exchanges a username/password pair for a Data API
// session token and caches it for subsequent requests. The token moves
// through three states: unset at startup, valid after the first login,
// and back to unset when the server rejects it, which forces a re-login.
// Re-login is serialized under a mutex and skipped when another caller
// already replaced the stale token, so concurrent 401s produce a single
// re-acquisition.
type CredentialProvider struct {
	sessionURL string
	username   string
	password   string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

func NewCredentialProvider(sessionURL, username, password string, httpClient *http.Client) (*CredentialProvider, error) {
	if sessionURL == "" {
		return nil, fmt.Errorf("session url is required")
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &CredentialProvider{
		sessionURL: sessionURL,
		username:   username,
		password:   password,
		httpClient: httpClient,
	}, nil
}

func (p *CredentialProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" {
		return p.token, nil
	}
	return p.login(ctx)
}

func (p *CredentialProvider) Refresh(ctx context.Context, stale string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && p.token != stale {
		// Another caller already re-acquired a token.
		return p.token, nil
	}
	p.token = ""
	return p.login(ctx)
}

// login must be called with p.mu held.
func (p *CredentialProvider) login(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.sessionURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create data api login request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(p.username + ":" + p.password))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("data api login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read data api login response: %w", err)
	}

	var env struct {
		Response struct {
			Token string `json:"token"`
		} `json:"response"`
		Messages []Message `json:"messages"`
	}
	if jsonErr := json.Unmarshal(body, &env); jsonErr != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", translateError(resp.StatusCode, body)
	}
	if env.Response.Token == "" {
		return "", &Error{Code: codeGeneric, Message: fmt.Sprintf("data api login returned no token (status %d)", resp.StatusCode)}
	}

	p.token = env.Response.Token
	return p.token, nil
}
