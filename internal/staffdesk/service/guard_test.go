package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
	"github.com/seobrand/staffdesk/pkg/idx"
)

func TestGuardRequireAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("passes an active admin through", func(t *testing.T) {
		env := newTestEnv(t)
		guard := &Guard{Store: env.store}

		profile, err := guard.RequireAdmin(ctx, env.admin.ID)
		require.NoError(t, err)
		require.Equal(t, env.admin.ID, profile.ID)
	})

	t.Run("rejects a non-admin", func(t *testing.T) {
		env := newTestEnv(t)
		guard := &Guard{Store: env.store}

		user := domain.Profile{
			ID:       "acct_" + idx.New().String(),
			Email:    "user@example.com",
			FullName: "Regular User",
			Role:     domain.RoleUser,
			Active:   true,
		}
		require.NoError(t, env.store.Profiles().CreateProfile(ctx, user))

		_, err := guard.RequireAdmin(ctx, user.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("rejects a deactivated admin", func(t *testing.T) {
		env := newTestEnv(t)
		guard := &Guard{Store: env.store}

		require.NoError(t, env.store.Profiles().SetProfileActive(ctx, env.admin.ID, false))

		_, err := guard.RequireAdmin(ctx, env.admin.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("rejects an account without a profile", func(t *testing.T) {
		env := newTestEnv(t)
		guard := &Guard{Store: env.store}

		_, err := guard.RequireAdmin(ctx, "acct_"+idx.New().String())
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("rejects an empty account id", func(t *testing.T) {
		env := newTestEnv(t)
		guard := &Guard{Store: env.store}

		_, err := guard.RequireAdmin(ctx, "")
		require.ErrorIs(t, err, ErrUnauthenticated)
	})
}
