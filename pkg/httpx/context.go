package httpx

import "context"

type ctxKey string

const (
	// CtxKeyAccountID holds the authenticated account identifier (session subject).
	CtxKeyAccountID ctxKey = "account_id"
	// CtxKeySessionEmail holds the email claim from the session, if present.
	CtxKeySessionEmail ctxKey = "session_email"
)

// AccountID returns the authenticated account id from the request context,
// or "" when the request is unauthenticated.
func AccountID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAccountID).(string); ok {
		return v
	}
	return ""
}
