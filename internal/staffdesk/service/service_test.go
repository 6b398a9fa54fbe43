package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
	"github.com/seobrand/staffdesk/internal/staffdesk/identity/drivers/local"
	mailer "github.com/seobrand/staffdesk/internal/staffdesk/mail"
	"github.com/seobrand/staffdesk/internal/staffdesk/store"
	"github.com/seobrand/staffdesk/internal/staffdesk/store/drivers/sqlite"
	"github.com/seobrand/staffdesk/pkg/idx"
)

// captureMailer records outgoing messages and optionally fails.
type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail error
}

func (m *captureMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

type testEnv struct {
	store    store.Store
	identity *local.Client
	mailer   *captureMailer
	admin    domain.Profile
}

// newTestEnv spins up an in-memory store with migrations applied, an
// in-process identity backend and a seeded active admin acting as the
// caller for privileged operations.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())

	admin := domain.Profile{
		ID:        "acct_" + idx.New().String(),
		Email:     "admin@example.com",
		FullName:  "Root Admin",
		Role:      domain.RoleAdmin,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Profiles().CreateProfile(context.Background(), admin))

	return &testEnv{
		store:    st,
		identity: local.New(),
		mailer:   &captureMailer{},
		admin:    admin,
	}
}

// newEmptyEnv is newTestEnv without the seeded admin, for exercising
// the pre-seed bootstrap path.
func newEmptyEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())

	return &testEnv{
		store:    st,
		identity: local.New(),
		mailer:   &captureMailer{},
	}
}

func (e *testEnv) provisioner() *Provisioner {
	return &Provisioner{
		Store:       e.store,
		Identity:    e.identity,
		Mailer:      e.mailer,
		ProductName: "Staffdesk",
		BaseURL:     "https://staffdesk.example.com",
		EmailFrom:   "Staffdesk <noreply@staffdesk.example.com>",
	}
}

func (e *testEnv) invitations() *Invitations {
	return &Invitations{
		Store:       e.store,
		Identity:    e.identity,
		Mailer:      e.mailer,
		ProductName: "Staffdesk",
		BaseURL:     "https://staffdesk.example.com",
		EmailFrom:   "Staffdesk <noreply@staffdesk.example.com>",
		InviteTTL:   7 * 24 * time.Hour,
	}
}

// lastAudit returns the most recent audit entry.
func (e *testEnv) lastAudit(t *testing.T) domain.AuditEntry {
	t.Helper()
	entries, err := e.store.AuditLog().List(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[0]
}
