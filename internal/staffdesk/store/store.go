package store

import (
	"context"
	"errors"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement
// this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Profiles() Profiles
	Invitations() Invitations
	AuditLog() AuditLog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to run multi-step operations that must be atomic
	// (e.g. profile insert + invitation consumption).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Profiles interface {
	// GetProfileByID returns a profile by account id.
	GetProfileByID(ctx context.Context, id string) (domain.Profile, error)

	// GetProfileByEmail returns a profile by email.
	GetProfileByEmail(ctx context.Context, email string) (domain.Profile, error)

	// CreateProfile inserts a new profile. Returns ErrAlreadyExists when
	// the id or email is already taken.
	CreateProfile(ctx context.Context, p domain.Profile) error

	// ListProfiles returns all profiles, newest first.
	ListProfiles(ctx context.Context) ([]domain.Profile, error)

	// SetProfileActive flips the active flag and bumps updated_at.
	SetProfileActive(ctx context.Context, id string, active bool) error

	// IsEmpty returns true if there are no profiles (pre-seed state).
	IsEmpty(ctx context.Context) (bool, error)
}

type Invitations interface {
	// CreateInvitation writes a new invitation (token_hash is the SHA-256
	// fingerprint of the opaque token). Returns ErrAlreadyExists when a
	// pending invitation for the email already exists.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetActiveByTokenHash returns a pending, unexpired invitation by
	// fingerprint. A row that exists but is accepted or past expiry is
	// ErrNotFound; callers cannot distinguish the cases.
	GetActiveByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)

	// MarkAccepted flips a still-pending invitation to accepted and records
	// the acceptor. Returns ErrNotFound if the row is missing or no longer
	// pending, which makes double-acceptance a visible conflict.
	MarkAccepted(ctx context.Context, invitationID, acceptedBy string) error

	// ListWithInviter returns all invitations joined with the inviter's
	// display fields, newest first.
	ListWithInviter(ctx context.Context) ([]domain.InvitationWithInviter, error)

	// DeleteExpiredInvitations removes pending invitations past their
	// expiry. Called by the background housekeeping sweep.
	DeleteExpiredInvitations(ctx context.Context) error
}

type AuditLog interface {
	// Append writes an audit entry. The log is append-only: there are no
	// update or delete operations.
	Append(ctx context.Context, e domain.AuditEntry) error

	// List returns the most recent entries, newest first, capped at limit.
	List(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
