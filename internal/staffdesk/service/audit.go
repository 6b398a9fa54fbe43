package service

import (
	"context"
	"log/slog"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
	"github.com/seobrand/staffdesk/internal/staffdesk/store"
	"github.com/seobrand/staffdesk/pkg/idx"
	"github.com/seobrand/staffdesk/pkg/slogx"
)

// AuditService exposes the append-only audit log to the admin surface.
type AuditService struct {
	Store store.Store
}

// List returns the most recent audit entries, newest first.
func (s *AuditService) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	return s.Store.AuditLog().List(ctx, limit)
}

// appendAudit records a privileged action. Audit writes are a side
// effect of an already-committed operation; a failure here is logged
// loudly but never unwinds the operation itself.
func appendAudit(ctx context.Context, st store.Store, e domain.AuditEntry) {
	e.ID = idx.New().String()
	if err := st.AuditLog().Append(ctx, e); err != nil {
		slogx.FromContext(ctx).Error("failed to append audit entry",
			slog.String("action", e.Action),
			slog.String("actor_id", e.ActorID),
			slog.String("resource_id", e.ResourceID),
			slog.Any("error", err),
		)
	}
}
