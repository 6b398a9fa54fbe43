// Package local implements identity.Client in process. It backs local
// development and tests, where running against the hosted backend would
// be slow and flaky. Passwords are hashed with Argon2id so the driver
// behaves like a real credential store.
package local

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/seobrand/staffdesk/internal/staffdesk/identity"
	"github.com/seobrand/staffdesk/pkg/cryptox"
	"github.com/seobrand/staffdesk/pkg/idx"
)

type record struct {
	account      identity.Account
	passwordHash string
	metadata     map[string]string
}

type Client struct {
	mu       sync.RWMutex
	byID     map[string]*record
	byEmail  map[string]*record
	failNext error // test hook: next mutating call fails with this
}

func New() *Client {
	return &Client{
		byID:    make(map[string]*record),
		byEmail: make(map[string]*record),
	}
}

func (c *Client) CreateAccount(ctx context.Context, acc identity.NewAccount) (identity.Account, error) {
	if err := ctx.Err(); err != nil {
		return identity.Account{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.takeFailure(); err != nil {
		return identity.Account{}, err
	}

	key := normalizeEmail(acc.Email)
	if _, ok := c.byEmail[key]; ok {
		return identity.Account{}, identity.ErrAlreadyExists
	}

	hash, err := cryptox.HashPassword(acc.Password)
	if err != nil {
		return identity.Account{}, err
	}

	rec := &record{
		account: identity.Account{
			ID:        "acct_" + idx.New().String(),
			Email:     acc.Email,
			CreatedAt: time.Now().UTC(),
		},
		passwordHash: hash,
		metadata:     acc.Metadata,
	}
	c.byID[rec.account.ID] = rec
	c.byEmail[key] = rec

	return rec.account, nil
}

func (c *Client) GetAccountByEmail(ctx context.Context, email string) (identity.Account, error) {
	if err := ctx.Err(); err != nil {
		return identity.Account{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.byEmail[normalizeEmail(email)]
	if !ok {
		return identity.Account{}, identity.ErrNotFound
	}
	return rec.account, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.takeFailure(); err != nil {
		return err
	}

	rec, ok := c.byID[id]
	if !ok {
		return identity.ErrNotFound
	}
	delete(c.byID, id)
	delete(c.byEmail, normalizeEmail(rec.account.Email))
	return nil
}

// VerifyPassword checks a password against the stored hash. Not part of
// identity.Client; exists so dev tooling and tests can validate the
// credentials issued by provisioning.
func (c *Client) VerifyPassword(email, password string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.byEmail[normalizeEmail(email)]
	if !ok {
		return identity.ErrNotFound
	}
	return cryptox.VerifyPassword(password, rec.passwordHash)
}

// Metadata returns the metadata recorded at account creation.
func (c *Client) Metadata(email string) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.byEmail[normalizeEmail(email)]
	if !ok {
		return nil
	}
	return rec.metadata
}

// FailNextWith makes the next mutating call return err. Test hook for
// exercising the provisioning saga's rollback paths.
func (c *Client) FailNextWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = err
}

func (c *Client) takeFailure() error {
	err := c.failNext
	c.failNext = nil
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
