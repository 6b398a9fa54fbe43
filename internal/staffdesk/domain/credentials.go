package domain

// Credentials is the one-time email/temporary-password pair issued by
// direct provisioning. It lives only in memory for the duration of one
// request and in the admin's response payload; it is never persisted.
type Credentials struct {
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password"`
}
