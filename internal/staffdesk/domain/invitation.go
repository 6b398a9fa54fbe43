package domain

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is a time-boxed, single-use offer for a specific email to
// create an account with a pre-assigned role. Only the SHA-256
// fingerprint of the token is stored; the raw token exists in the
// invitation URL returned once at creation and in the invitee's email.
//
// Lifecycle: pending -> accepted on redemption. Expiry is lazy: lookups
// filter on expires_at, rows are never flipped to expired.
type Invitation struct {
	ID         string
	Email      string
	Role       Role
	TokenHash  string
	Status     InvitationStatus
	InvitedBy  string // profile id of the inviting admin
	AcceptedBy string // account id of the acceptor, empty until accepted
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Usable reports whether the invitation can still be accepted at t.
func (i Invitation) Usable(t time.Time) bool {
	return i.Status == InvitationPending && t.Before(i.ExpiresAt)
}

// InvitationWithInviter joins an invitation with the inviter's display
// fields for the admin listing.
type InvitationWithInviter struct {
	Invitation

	InviterEmail    string
	InviterFullName string
}
