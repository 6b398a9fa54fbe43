package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
	"github.com/seobrand/staffdesk/internal/staffdesk/store"
	"github.com/seobrand/staffdesk/pkg/slogx"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("admin access required")
)

// Guard is the authorization gate in front of every mutating admin
// operation. The profiles table is the single source of truth for
// role decisions; session claims and account metadata are never
// consulted. Read-only and fails closed.
type Guard struct {
	Store store.Store
}

// RequireAdmin resolves the session's account id to a profile and
// confirms it is an active admin. A session that resolves to no known
// profile is treated as unauthenticated, not forbidden, so a deleted or
// never-provisioned account learns nothing about the system.
func (g *Guard) RequireAdmin(ctx context.Context, accountID string) (domain.Profile, error) {
	log := slogx.FromContext(ctx)

	if accountID == "" {
		return domain.Profile{}, ErrUnauthenticated
	}

	profile, err := g.Store.Profiles().GetProfileByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("session resolves to unknown profile", slog.String("account_id", accountID))
			return domain.Profile{}, ErrUnauthenticated
		}
		log.Error("failed to fetch profile for guard check", slog.Any("error", err))
		return domain.Profile{}, err
	}

	if !profile.Active || profile.Role != domain.RoleAdmin {
		log.Warn("non-admin attempted privileged operation",
			slog.String("account_id", accountID),
			slog.String("role", string(profile.Role)),
			slog.Bool("active", profile.Active),
		)
		return domain.Profile{}, ErrForbidden
	}

	return profile, nil
}
