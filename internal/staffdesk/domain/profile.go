package domain

import "time"

// Role is the application-level role stored on a profile. The profiles
// table is the single source of truth for authorization; session claims
// and account metadata are never consulted for role decisions.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Profile is the application user record, keyed by the identity backend's
// account id. Profiles are never hard-deleted, only deactivated.
type Profile struct {
	ID        string // account id in the identity backend
	Email     string
	FullName  string
	Role      Role
	Active    bool
	InvitedBy string // profile id of the admin who provisioned or invited, empty for seed admin
	CreatedAt time.Time
	UpdatedAt time.Time
}
