package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	t.Parallel()

	t.Run("posts the message and accepts 2xx", func(t *testing.T) {
		var got Message
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg_1"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "secret-key", 2*time.Second)
		err := c.Send(context.Background(), Message{
			From:    "Staffdesk <noreply@example.com>",
			To:      []string{"new@example.com"},
			Subject: "Welcome",
			HTML:    "<p>hi</p>",
		})
		require.NoError(t, err)
		require.Equal(t, "Bearer secret-key", auth)
		require.Equal(t, []string{"new@example.com"}, got.To)
		require.Equal(t, "Welcome", got.Subject)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "bad-key", 2*time.Second)
		err := c.Send(context.Background(), Message{To: []string{"a@b.c"}})
		require.Error(t, err)
	})

	t.Run("timeout is an error, not a hang", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "key", 50*time.Millisecond)
		start := time.Now()
		err := c.Send(context.Background(), Message{To: []string{"a@b.c"}})
		require.Error(t, err)
		require.Less(t, time.Since(start), 400*time.Millisecond)
	})
}

func TestDisabledSender(t *testing.T) {
	t.Parallel()

	err := Disabled{}.Send(context.Background(), Message{})
	require.ErrorIs(t, err, ErrDisabled)
}

func TestRenderWelcome(t *testing.T) {
	t.Parallel()

	html, err := RenderWelcome(WelcomeData{
		ProductName:       "Staffdesk",
		FullName:          "New User",
		Email:             "new@example.com",
		Role:              "user",
		TemporaryPassword: "Abc23456!xyz",
		LoginURL:          "https://dash.example.com",
	})
	require.NoError(t, err)
	require.Contains(t, html, "New User")
	require.Contains(t, html, "new@example.com")
	require.Contains(t, html, "Abc23456!xyz")
	require.Contains(t, html, "https://dash.example.com")
}

func TestRenderWelcomeWithoutCredentials(t *testing.T) {
	t.Parallel()

	html, err := RenderWelcome(WelcomeData{
		ProductName: "Staffdesk",
		FullName:    "Invited User",
		Email:       "invited@example.com",
		Role:        "user",
		LoginURL:    "https://dash.example.com",
	})
	require.NoError(t, err)
	require.Contains(t, html, "Invited User")
	require.NotContains(t, html, "Temporary Password")
}

func TestRenderInvitation(t *testing.T) {
	t.Parallel()

	html, err := RenderInvitation(InvitationData{
		ProductName:   "Staffdesk",
		Role:          "admin",
		InvitationURL: "https://dash.example.com/invite/tok123",
		ExpiresInDays: 7,
	})
	require.NoError(t, err)
	require.Contains(t, html, "https://dash.example.com/invite/tok123")
	require.Contains(t, html, "7 days")
	require.Contains(t, html, "admin")
}

func TestRenderInvitationEscapesHTML(t *testing.T) {
	t.Parallel()

	html, err := RenderInvitation(InvitationData{
		ProductName:   "Staffdesk",
		FullName:      `<script>alert("x")</script>`,
		Role:          "user",
		InvitationURL: "https://dash.example.com/invite/tok",
		ExpiresInDays: 7,
	})
	require.NoError(t, err)
	require.NotContains(t, html, "<script>")
}
