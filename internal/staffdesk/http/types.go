package http

import "time"

// Request and response bodies for the v1 API.

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type credentialsPayload struct {
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password"`
}

type createUserResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	User        profilePayload     `json:"user"`
	Credentials credentialsPayload `json:"credentials"`
	EmailSent   bool               `json:"email_sent"`
}

type profilePayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	InvitedBy string    `json:"invited_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listUsersResponse struct {
	Users []profilePayload `json:"users"`
}

type createInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type createInvitationResponse struct {
	Success       bool      `json:"success"`
	InvitationID  string    `json:"invitation_id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	InvitationURL string    `json:"invitation_url"`
	ExpiresAt     time.Time `json:"expires_at"`
	EmailSent     bool      `json:"email_sent"`
}

type invitationPayload struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Status          string    `json:"status"`
	InvitedBy       string    `json:"invited_by"`
	InviterEmail    string    `json:"inviter_email,omitempty"`
	InviterFullName string    `json:"inviter_full_name,omitempty"`
	AcceptedBy      string    `json:"accepted_by,omitempty"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
}

type listInvitationsResponse struct {
	Invitations []invitationPayload `json:"invitations"`
}

// invitationPreview is the public view of a pending invitation. It
// exposes only what the acceptance form needs.
type invitationPreview struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type acceptInvitationRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type acceptInvitationResponse struct {
	Success bool           `json:"success"`
	User    profilePayload `json:"user"`
}

type auditEntryPayload struct {
	ID           string         `json:"id"`
	ActorID      string         `json:"actor_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      map[string]any `json:"details"`
	CreatedAt    time.Time      `json:"created_at"`
}

type listAuditResponse struct {
	Entries []auditEntryPayload `json:"entries"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
