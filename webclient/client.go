package webclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotLoggedIn = errors.New("not logged in")

// AccountState is the account data cached by the client
type AccountState struct {
	UserID    string         `json:"user_id"`
	Username  string         `json:"username"`
	Zenny     int            `json:"zenny"`
	Folders   []Folder       `json:"folders,omitempty"`
	Chips     map[string]int `json:"chips,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// Folder is a named deck of chip names
type Folder struct {
	Name  string   `json:"name"`
	Chips []string `json:"chips"`
}

// HTTPClient is an AccountClient speaking JSON over HTTP:
//
//	GET  /ping     liveness, any 2xx is OK
//	POST /login    {"username","password"} -> {"token"}; 401 on bad credentials
//	POST /logout   bearer token
//	GET  /account  bearer token -> AccountState
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	token   string
	account AccountState
}

// NewHTTPClient creates a client for baseURL
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// IsOK pings the server
func (c *HTTPClient) IsOK(ctx context.Context) bool {
	resp, err := c.do(ctx, http.MethodGet, "/ping", nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Login exchanges credentials for a token. Rejected credentials return false
// without an error.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (bool, error) {
	resp, err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("login: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("login: decode response: %w", err)
	}
	if body.Token == "" {
		return false, nil
	}

	c.mu.Lock()
	c.token = body.Token
	c.mu.Unlock()
	return true, nil
}

// LogoutAndReset ends the remote session and always clears local state
func (c *HTTPClient) LogoutAndReset(ctx context.Context) error {
	c.mu.Lock()
	loggedIn := c.token != ""
	c.mu.Unlock()

	var err error
	if loggedIn {
		var resp *http.Response
		resp, err = c.do(ctx, http.MethodPost, "/logout", nil)
		if err == nil {
			resp.Body.Close()
		}
	}

	c.mu.Lock()
	c.token = ""
	c.account = AccountState{}
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// IsLoggedIn reports whether a token is held
func (c *HTTPClient) IsLoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// FetchAccount downloads the account into the local cache
func (c *HTTPClient) FetchAccount(ctx context.Context) error {
	if !c.IsLoggedIn() {
		return fmt.Errorf("fetch account: %w", ErrNotLoggedIn)
	}

	resp, err := c.do(ctx, http.MethodGet, "/account", nil)
	if err != nil {
		return fmt.Errorf("fetch account: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return fmt.Errorf("fetch account: %w", ErrNotLoggedIn)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch account: unexpected status %d", resp.StatusCode)
	}

	var account AccountState
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return fmt.Errorf("fetch account: decode response: %w", err)
	}
	account.FetchedAt = time.Now()

	c.mu.Lock()
	c.account = account
	c.mu.Unlock()
	return nil
}

// GetLocalAccount returns the last fetched account
func (c *HTTPClient) GetLocalAccount() AccountState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	return c.http.Do(req)
}
