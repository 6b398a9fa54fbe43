package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
	"github.com/seobrand/staffdesk/internal/staffdesk/identity/drivers/local"
	mailer "github.com/seobrand/staffdesk/internal/staffdesk/mail"
	"github.com/seobrand/staffdesk/internal/staffdesk/service"
	"github.com/seobrand/staffdesk/internal/staffdesk/store/drivers/sqlite"
	"github.com/seobrand/staffdesk/pkg/idx"
	"github.com/seobrand/staffdesk/pkg/jwtx"
	"github.com/seobrand/staffdesk/pkg/slogx"
)

var testSecret = []byte("test-session-secret")

type nullMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *nullMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type routerEnv struct {
	router   *Router
	identity *local.Client
	admin    domain.Profile
	adminJWT string
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	admin := domain.Profile{
		ID:       "acct_" + idx.New().String(),
		Email:    "admin@example.com",
		FullName: "Root Admin",
		Role:     domain.RoleAdmin,
		Active:   true,
	}
	require.NoError(t, st.Profiles().CreateProfile(context.Background(), admin))

	idClient := local.New()
	mail := &nullMailer{}

	logger := slogx.New(slogx.Config{Service: "staffdesk-test", Level: "error", Format: "text"})

	router := NewRouter(jwtx.NewHS256Verifier(testSecret, "test-issuer"), "test", st, logger)
	router.Provisioner = &service.Provisioner{
		Store:       st,
		Identity:    idClient,
		Mailer:      mail,
		ProductName: "Staffdesk",
		BaseURL:     "https://staffdesk.example.com",
		EmailFrom:   "noreply@staffdesk.example.com",
	}
	router.Invitations = &service.Invitations{
		Store:       st,
		Identity:    idClient,
		Mailer:      mail,
		ProductName: "Staffdesk",
		BaseURL:     "https://staffdesk.example.com",
		EmailFrom:   "noreply@staffdesk.example.com",
		InviteTTL:   7 * 24 * time.Hour,
	}
	router.Users = &service.Users{Store: st}
	router.Audit = &service.AuditService{Store: st}
	router.ApplyRoutes()

	token, err := jwtx.SignHS256(testSecret, "test-issuer", admin.ID, admin.Email, time.Hour)
	require.NoError(t, err)

	return &routerEnv{router: router, identity: idClient, admin: admin, adminJWT: token}
}

func (e *routerEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestCreateUserEndpoint(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/users", env.adminJWT, map[string]string{
		"email":     "bob@example.com",
		"full_name": "Bob Jones",
		"role":      "user",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	resp := decodeBody[createUserResponse](t, rec)
	require.True(t, resp.Success)
	require.Equal(t, "bob@example.com", resp.User.Email)
	require.NotEmpty(t, resp.Credentials.TemporaryPassword)
	require.True(t, resp.EmailSent)

	// The issued password authenticates against the identity backend.
	require.NoError(t, env.identity.VerifyPassword("bob@example.com", resp.Credentials.TemporaryPassword))
}

func TestCreateUserEndpointRejectsBadInput(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/users", env.adminJWT, map[string]string{
		"email":     "not-an-email",
		"full_name": "Bob",
		"role":      "user",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/users", env.adminJWT, map[string]string{
		"email":     "admin@example.com",
		"full_name": "Dup",
		"role":      "user",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminEndpointsRequireAuth(t *testing.T) {
	env := newRouterEnv(t)

	// No token at all.
	rec := env.do(t, http.MethodGet, "/v1/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token, but the account has no profile.
	stranger, err := jwtx.SignHS256(testSecret, "test-issuer", "acct_"+idx.New().String(), "ghost@example.com", time.Hour)
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/v1/users", stranger, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminEndpointsRejectNonAdmins(t *testing.T) {
	env := newRouterEnv(t)

	user := domain.Profile{
		ID:       "acct_" + idx.New().String(),
		Email:    "user@example.com",
		FullName: "Regular User",
		Role:     domain.RoleUser,
		Active:   true,
	}
	require.NoError(t, env.router.store.Profiles().CreateProfile(context.Background(), user))

	token, err := jwtx.SignHS256(testSecret, "test-issuer", user.ID, user.Email, time.Hour)
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/v1/users", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/invitations", token, map[string]string{
		"email": "x@example.com", "role": "user",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUsersEndpoint(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/users", env.adminJWT, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[listUsersResponse](t, rec)
	require.Len(t, resp.Users, 1)
	require.Equal(t, env.admin.Email, resp.Users[0].Email)
}

func TestDeactivateEndpoint(t *testing.T) {
	env := newRouterEnv(t)

	create := env.do(t, http.MethodPost, "/v1/users", env.adminJWT, map[string]string{
		"email": "bob@example.com", "full_name": "Bob", "role": "user",
	})
	require.Equal(t, http.StatusCreated, create.Code)
	created := decodeBody[createUserResponse](t, create)

	rec := env.do(t, http.MethodPost, "/v1/users/"+created.User.ID+"/deactivate", env.adminJWT, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[profilePayload](t, rec)
	require.False(t, resp.Active)

	// Self-deactivation is refused.
	rec = env.do(t, http.MethodPost, "/v1/users/"+env.admin.ID+"/deactivate", env.adminJWT, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown id is a 404.
	rec = env.do(t, http.MethodPost, "/v1/users/acct_missing/deactivate", env.adminJWT, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvitationLifecycleOverHTTP(t *testing.T) {
	env := newRouterEnv(t)

	// Mint.
	rec := env.do(t, http.MethodPost, "/v1/invitations", env.adminJWT, map[string]string{
		"email": "newbie@example.com", "role": "user",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	minted := decodeBody[createInvitationResponse](t, rec)
	require.True(t, minted.Success)

	token := strings.TrimPrefix(minted.InvitationURL, "https://staffdesk.example.com/invite/")
	require.NotEmpty(t, token)

	// Public preview.
	rec = env.do(t, http.MethodGet, "/v1/invitations/"+token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decodeBody[invitationPreview](t, rec)
	require.Equal(t, "newbie@example.com", preview.Email)

	// Accept.
	rec = env.do(t, http.MethodPost, "/v1/invitations/accept", "", map[string]string{
		"token": token, "password": "chosen-password", "full_name": "New Bee",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	accepted := decodeBody[acceptInvitationResponse](t, rec)
	require.Equal(t, "newbie@example.com", accepted.User.Email)

	// The token is burned.
	rec = env.do(t, http.MethodGet, "/v1/invitations/"+token, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/invitations/accept", "", map[string]string{
		"token": token, "password": "other-password", "full_name": "Second",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// The dashboard listing shows the accepted invitation.
	rec = env.do(t, http.MethodGet, "/v1/invitations", env.adminJWT, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[listInvitationsResponse](t, rec)
	require.Len(t, list.Invitations, 1)
	require.Equal(t, "accepted", list.Invitations[0].Status)
}

func TestAcceptRejectsWeakPassword(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/invitations", env.adminJWT, map[string]string{
		"email": "newbie@example.com", "role": "user",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	minted := decodeBody[createInvitationResponse](t, rec)
	token := strings.TrimPrefix(minted.InvitationURL, "https://staffdesk.example.com/invite/")

	rec = env.do(t, http.MethodPost, "/v1/invitations/accept", "", map[string]string{
		"token": token, "password": "123", "full_name": "New Bee",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditEndpoint(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/users", env.adminJWT, map[string]string{
		"email": "bob@example.com", "full_name": "Bob", "role": "user",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/audit", env.adminJWT, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[listAuditResponse](t, rec)
	require.Len(t, resp.Entries, 1)
	require.Equal(t, domain.AuditActionCreateUser, resp.Entries[0].Action)
	require.Equal(t, env.admin.ID, resp.Entries[0].ActorID)

	rec = env.do(t, http.MethodGet, "/v1/audit?limit=abc", env.adminJWT, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	live := decodeBody[healthResponse](t, rec)
	require.Equal(t, "ok", live.Status)

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
