// Package identity abstracts the external account backend that owns raw
// credentials and sessions. This service orchestrates account lifecycle
// calls against it; it never stores passwords itself.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("identity: account not found")
	ErrAlreadyExists   = errors.New("identity: account already exists")
	ErrUpstreamTimeout = errors.New("identity: upstream timeout")
)

// Account is the backend's view of an identity. The application-level
// record (role, active flag) is the Profile, not this.
type Account struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// NewAccount is the payload for account creation.
type NewAccount struct {
	Email    string
	Password string
	// EmailVerified marks the address pre-confirmed (admin-provisioned
	// accounts skip the confirmation mail).
	EmailVerified bool
	// Metadata is opaque to the backend; used to tag admin-created
	// accounts and consumed invitation tokens.
	Metadata map[string]string
}

// Client is the account backend interface. All calls are single network
// round trips bounded by the caller's context deadline.
type Client interface {
	// CreateAccount provisions a new account. ErrAlreadyExists when the
	// email is taken.
	CreateAccount(ctx context.Context, acc NewAccount) (Account, error)

	// GetAccountByEmail looks an account up by email. ErrNotFound when
	// no account exists.
	GetAccountByEmail(ctx context.Context, email string) (Account, error)

	// DeleteAccount removes an account. Used as the compensating action
	// when profile creation fails after account creation succeeded.
	DeleteAccount(ctx context.Context, id string) error
}
