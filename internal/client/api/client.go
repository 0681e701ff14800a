// Package api is a small HTTP client for the statelessauth server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/common"
)

var (
	ErrUnauthorized = fmt.Errorf("%w: server rejected credentials", common.ErrorUnauthorized)
	ErrForbidden    = fmt.Errorf("%w: not allowed", common.ErrorForbidden)
	ErrNoToken      = errors.New("server returned no token")
)

// CurrentUser mirrors GET /api/users/current.
type CurrentUser struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// User mirrors one entry of GET /admin/api/users.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Expires  int64    `json:"expires"`
	Roles    []string `json:"roles"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username string, password []byte) (string, error) {
	body, err := json.Marshal(struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, string(password)})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/login", "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	token := resp.Header.Get(common.AuthTokenHeaderName)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Current returns the caller identified by token.
func (c *Client) Current(ctx context.Context, token string) (*CurrentUser, error) {
	var out CurrentUser
	if err := c.getJSON(ctx, "/api/users/current", token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every account. It needs an ADMIN token.
func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var out []User
	if err := c.getJSON(ctx, "/admin/api/users", token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

// do sends a request and turns non-2xx replies into errors.
func (c *Client) do(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthTokenHeaderName, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusForbidden:
		return nil, ErrForbidden
	}

	var e struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
	return nil, fmt.Errorf("%s %s: %s %s", method, path, resp.Status, e.Message)
}
