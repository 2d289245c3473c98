// Package funpay is a thin client for the FunPay marketplace: account
// bootstrap, order retrieval, chat messaging, refunds, lot management and the
// long-poll event runner. It is an I/O wrapper; all fulfillment decisions
// live in internal/fulfill.
package funpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
)

const defaultBaseURL = "https://funpay.com"

// StatusError is a non-2xx marketplace response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("funpay: unexpected status %d: %s", e.Code, e.Body)
}

// IsNotFound reports whether err is a 404 marketplace response. A missing lot
// or order is terminal and must not be retried.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

// Client talks to FunPay authenticated by the account's golden key cookie.
type Client struct {
	baseURL    string
	httpClient *http.Client
	goldenKey  string
	logger     *slog.Logger

	userID   int64
	username string
	csrf     string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the marketplace base URL, mainly for tests.
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

// NewClient creates a FunPay client for the given golden key.
func NewClient(goldenKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		goldenKey:  goldenKey,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type accountResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	CSRF     string `json:"csrf_token"`
}

// Fetch bootstraps the session: resolves the account's own user id, username
// and CSRF token. It must succeed before any other call.
func (c *Client) Fetch(ctx context.Context) error {
	raw, err := c.get(ctx, "/api/account", nil)
	if err != nil {
		return fmt.Errorf("fetch account: %w", err)
	}
	var acc accountResponse
	if err := json.Unmarshal(raw, &acc); err != nil {
		return fmt.Errorf("decode account: %w", err)
	}
	if acc.Username == "" {
		return errors.New("funpay: account carried no username, check the golden key")
	}
	c.userID = acc.UserID
	c.username = acc.Username
	c.csrf = acc.CSRF
	return nil
}

// UserID returns the bot account's own user id.
func (c *Client) UserID() int64 { return c.userID }

// Username returns the bot account's display name.
func (c *Client) Username() string { return c.username }

type orderResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	ShortDesc     string `json:"short_description"`
	FullDesc      string `json:"full_description"`
	BuyerID       int64  `json:"buyer_id"`
	BuyerUsername string `json:"buyer_username"`
	ChatID        int64  `json:"chat_id"`
	Subcategory   struct {
		ID int64 `json:"id"`
	} `json:"subcategory"`
}

// GetOrder retrieves the full order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	raw, err := c.get(ctx, "/api/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	var o orderResponse
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", orderID, err)
	}

	title := o.Title
	if title == "" {
		title = o.ShortDesc
	}
	if title == "" {
		title = o.FullDesc
	}
	return &domain.Order{
		ID:            o.ID,
		Title:         title,
		BuyerID:       o.BuyerID,
		BuyerUsername: o.BuyerUsername,
		ChatID:        o.ChatID,
		SubcategoryID: o.Subcategory.ID,
	}, nil
}

// SendMessage posts a chat message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	form := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	if _, err := c.postForm(ctx, "/api/chat/message", form); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// Refund refunds an order back to the buyer.
func (c *Client) Refund(ctx context.Context, orderID string) error {
	form := url.Values{"order_id": {orderID}}
	if _, err := c.postForm(ctx, "/api/orders/refund", form); err != nil {
		return fmt.Errorf("refund order %s: %w", orderID, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	if c.csrf != "" {
		form.Set("csrf_token", c.csrf)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.doRequest(req)
}

func (c *Client) doRequest(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: "golden_key", Value: c.goldenKey})

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 16<<10))
		return nil, &StatusError{Code: res.StatusCode, Body: string(buf)}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
