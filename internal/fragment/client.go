// Package fragment is a thin JSON client for the Fragment API.
package fragment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tinechelovec/funpay-premium-bot/internal/config"
)

const defaultBaseURL = "https://api.fragment-api.com/v1"

// APIError captures non-2xx responses with the raw body, which carries the
// provider's error wording.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fragment: unexpected status %d: %s", e.StatusCode, e.Body)
}

// ErrorBody returns the raw provider error body if err is an APIError, or the
// plain error text otherwise.
func ErrorBody(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// UserStatus is the outcome of a username lookup.
type UserStatus struct {
	Exists     bool
	HasPremium bool
	Detail     string // human-readable premium status, surfaced in rejections
}

// Client talks to the Fragment API with a JWT bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cfg        config.FragmentConfig
	logger     *slog.Logger

	mu    sync.Mutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Fragment client. Per-call deadlines are applied through
// the request context, so the underlying client carries no timeout itself.
func NewClient(cfg config.FragmentConfig, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		cfg:        cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadToken reads a previously persisted token from the token file. Returns
// false when no usable token is stored.
func (c *Client) LoadToken() bool {
	token, err := LoadTokenFile(c.cfg.TokenFile)
	if err != nil || token == "" {
		return false
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return true
}

type authRequest struct {
	APIKey      string   `json:"api_key"`
	PhoneNumber string   `json:"phone_number"`
	Version     string   `json:"version"`
	Mnemonics   []string `json:"mnemonics"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Authenticate obtains a fresh bearer token and persists it to the token file.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.cfg.APIKey == "" || c.cfg.Phone == "" || c.cfg.Mnemonics == "" {
		return errors.New("fragment: FRAGMENT_API_KEY/PHONE/MNEMONICS are not set")
	}

	payload := authRequest{
		APIKey:      c.cfg.APIKey,
		PhoneNumber: c.cfg.Phone,
		Version:     c.cfg.AuthWalletVersion(),
		Mnemonics:   strings.Fields(c.cfg.Mnemonics),
	}

	raw, err := c.do(ctx, http.MethodPost, "/auth/authenticate/", payload, "", 30*time.Second)
	if err != nil {
		return fmt.Errorf("fragment: authenticate: %w", err)
	}

	var resp authResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("fragment: decode auth response: %w", err)
	}
	if resp.Token == "" {
		return errors.New("fragment: auth response carried no token")
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	if err := SaveTokenFile(c.cfg.TokenFile, resp.Token); err != nil {
		c.logger.Warn("failed to persist fragment token", "error", err)
	}
	c.logger.Info("fragment authentication succeeded", "auth_version", c.cfg.AuthWalletVersion())
	return nil
}

// Balance returns the wallet's TON balance. Shape problems in the payload
// resolve to zero, transport problems to an error.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	raw, err := c.doAuthed(ctx, http.MethodGet, "/misc/wallet/", nil, 20*time.Second)
	if err != nil {
		return 0, fmt.Errorf("fragment: wallet: %w", err)
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, fmt.Errorf("fragment: decode wallet response: %w", err)
	}
	return ExtractTON(payload), nil
}

// CheckUser looks up a Telegram username and reports existence and current
// premium status. The leading @ is stripped before the call.
func (c *Client) CheckUser(ctx context.Context, username string) (UserStatus, error) {
	clean := strings.TrimSpace(strings.TrimLeft(username, "@"))
	if clean == "" {
		return UserStatus{}, nil
	}

	raw, err := c.doAuthed(ctx, http.MethodGet, "/misc/user/"+clean+"/", nil, 20*time.Second)
	if err != nil {
		return UserStatus{}, fmt.Errorf("fragment: user lookup for %q: %w", clean, err)
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return UserStatus{}, fmt.Errorf("fragment: decode user response for %q: %w", clean, err)
	}

	// The payload is usually an object, but a non-empty list also counts as
	// an existing user. Premium keys are only probed on objects.
	var data map[string]any
	switch p := payload.(type) {
	case map[string]any:
		data = p
	case []any:
		return UserStatus{Exists: len(p) > 0}, nil
	default:
		return UserStatus{}, nil
	}

	status := UserStatus{Exists: len(data) > 0}
	for _, key := range []string{"is_premium", "has_premium", "premium"} {
		if val, ok := data[key]; ok {
			status.HasPremium = truthy(val)
			status.Detail = fmt.Sprint(val)
			break
		}
	}
	for _, key := range []string{"premium_until", "premium_expiry", "premium_expires"} {
		if val, ok := data[key]; ok && val != nil && fmt.Sprint(val) != "" {
			status.Detail = fmt.Sprint(val)
			status.HasPremium = true
			break
		}
	}
	return status, nil
}

type premiumOrderRequest struct {
	Username      string `json:"username"`
	Months        int    `json:"months"`
	WalletVersion string `json:"wallet_version"`
}

// OrderPremium submits a Premium issuance order. A non-2xx response comes
// back as an *APIError whose Body is the raw provider error.
func (c *Client) OrderPremium(ctx context.Context, username string, months int) error {
	payload := premiumOrderRequest{
		Username:      strings.TrimLeft(username, "@"),
		Months:        months,
		WalletVersion: c.cfg.WalletVersion,
	}
	_, err := c.doAuthed(ctx, http.MethodPost, "/order/premium/", payload, 40*time.Second)
	if err != nil {
		return fmt.Errorf("fragment: order premium: %w", err)
	}
	return nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// doAuthed performs an authenticated call. An expired token (401/403) is
// refreshed once and the call retried.
func (c *Client) doAuthed(ctx context.Context, method, path string, body any, timeout time.Duration) ([]byte, error) {
	raw, err := c.do(ctx, method, path, body, c.currentToken(), timeout)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		c.logger.Warn("fragment token rejected, re-authenticating", "status", apiErr.StatusCode)
		if authErr := c.Authenticate(ctx); authErr != nil {
			return nil, err
		}
		return c.do(ctx, method, path, body, c.currentToken(), timeout)
	}
	return raw, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "JWT "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 16<<10))
		return nil, &APIError{StatusCode: res.StatusCode, Body: string(buf)}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && !strings.EqualFold(t, "false") && t != "0"
	case float64:
		return t != 0
	case nil:
		return false
	default:
		return true
	}
}
