// Package httpapi implements identity.Client against the hosted account
// backend's admin REST API, authenticated with a server-held service key.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/seobrand/staffdesk/internal/staffdesk/identity"
)

const (
	dialTimeout           = 5 * time.Second
	tlsHandshakeTimeout   = 5 * time.Second
	responseHeaderTimeout = 10 * time.Second
)

type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

// New creates an admin API client. The overall per-call deadline comes
// from the request context; timeout bounds the worst case when the caller
// passes an unbounded context.
func New(baseURL, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   tlsHandshakeTimeout,
				ResponseHeaderTimeout: responseHeaderTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
			// Admin API never redirects; treat any redirect as a response.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type accountPayload struct {
	ID            string            `json:"id,omitempty"`
	Email         string            `json:"email"`
	Password      string            `json:"password,omitempty"`
	EmailVerified bool              `json:"email_verified,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at,omitempty"`
}

func (c *Client) CreateAccount(ctx context.Context, acc identity.NewAccount) (identity.Account, error) {
	body := accountPayload{
		Email:         acc.Email,
		Password:      acc.Password,
		EmailVerified: acc.EmailVerified,
		Metadata:      acc.Metadata,
	}

	var out accountPayload
	if err := c.do(ctx, http.MethodPost, "/admin/accounts", body, &out); err != nil {
		return identity.Account{}, err
	}
	return identity.Account{ID: out.ID, Email: out.Email, CreatedAt: out.CreatedAt}, nil
}

func (c *Client) GetAccountByEmail(ctx context.Context, email string) (identity.Account, error) {
	path := "/admin/accounts?email=" + url.QueryEscape(email)

	var out accountPayload
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return identity.Account{}, err
	}
	return identity.Account{ID: out.ID, Email: out.Email, CreatedAt: out.CreatedAt}, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/accounts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s %s", identity.ErrUpstreamTimeout, method, path)
		}
		return fmt.Errorf("identity upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusNotFound:
		return identity.ErrNotFound
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return identity.ErrAlreadyExists
	default:
		return fmt.Errorf("identity upstream returned %d for %s %s", resp.StatusCode, method, path)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
