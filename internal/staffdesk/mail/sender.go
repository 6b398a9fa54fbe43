// Package mail renders HTML notifications and submits them to a
// transactional email provider over its HTTP API. Acceptance by the
// provider is all it guarantees; delivery is the provider's problem and
// send failures are never fatal to the operation that triggered them.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

var ErrDisabled = errors.New("mail: sender disabled")

// Message is the provider-facing payload.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Sender submits a message to the provider. A nil error means the
// provider accepted the submission (HTTP 2xx), nothing more.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client talks to a Resend-compatible transactional email API.
type Client struct {
	apiURL string
	apiKey string
	http   *http.Client
}

func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("email provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned %d", resp.StatusCode)
	}

	// The response body carries a provider message id we have no use for.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Disabled is a Sender for deployments without an email provider
// configured. Every send reports ErrDisabled, which callers already
// treat as non-fatal.
type Disabled struct{}

func (Disabled) Send(ctx context.Context, msg Message) error { return ErrDisabled }
