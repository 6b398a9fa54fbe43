package domain

import "time"

// Audit actions recorded for privileged operations.
const (
	AuditActionCreateUser        = "CREATE_USER_WITH_CREDENTIALS"
	AuditActionCreateInvitation  = "CREATE_INVITATION"
	AuditActionAcceptInvitation  = "ACCEPT_INVITATION"
	AuditActionDeactivateProfile = "DEACTIVATE_PROFILE"
)

// AuditEntry is an append-only record of a privileged action. Entries are
// never mutated or deleted.
type AuditEntry struct {
	ID           string
	ActorID      string // profile id of the acting admin, or the acceptor for invitation acceptance
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	CreatedAt    time.Time
}
