package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
	"github.com/seobrand/staffdesk/internal/staffdesk/store"
	"github.com/seobrand/staffdesk/pkg/slogx"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrSelfDeactivation = errors.New("cannot deactivate your own account")
)

// Users covers profile directory operations that do not touch the
// identity backend.
type Users struct {
	Store store.Store
}

func (s *Users) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	profile, err := s.Store.Profiles().GetProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrProfileNotFound
		}
		return domain.Profile{}, err
	}
	return profile, nil
}

// List returns every profile, newest first.
func (s *Users) List(ctx context.Context) ([]domain.Profile, error) {
	return s.Store.Profiles().ListProfiles(ctx)
}

// Deactivate soft-disables a profile. The backend account stays so the
// audit trail keeps a resolvable actor; the guard rejects inactive
// profiles on every privileged call. Admins cannot deactivate
// themselves.
func (s *Users) Deactivate(ctx context.Context, actor domain.Profile, id string) (domain.Profile, error) {
	log := slogx.FromContext(ctx)

	if id == actor.ID {
		return domain.Profile{}, ErrSelfDeactivation
	}

	if err := s.Store.Profiles().SetProfileActive(ctx, id, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrProfileNotFound
		}
		log.Error("profile deactivation failed", slog.String("user_id", id), slog.Any("error", err))
		return domain.Profile{}, fmt.Errorf("profile deactivation failed: %w", err)
	}

	profile, err := s.Store.Profiles().GetProfileByID(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}

	appendAudit(ctx, s.Store, domain.AuditEntry{
		ActorID:      actor.ID,
		Action:       domain.AuditActionDeactivateProfile,
		ResourceType: "user",
		ResourceID:   id,
		Details: map[string]any{
			"email": profile.Email,
		},
	})

	log.Info("profile deactivated",
		slog.String("user_id", id),
		slog.String("email", profile.Email),
		slog.String("actor_id", actor.ID),
	)

	return profile, nil
}
