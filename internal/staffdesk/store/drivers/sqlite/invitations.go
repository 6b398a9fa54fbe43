package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, email, role, token_hash, status, invited_by, accepted_by, expires_at, created_at, updated_at`

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invitations (id, email, role, token_hash, status, invited_by, accepted_by, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Email, string(inv.Role), inv.TokenHash, string(domain.InvitationPending),
		inv.InvitedBy, mapStringNull(inv.AcceptedBy), inv.ExpiresAt.UTC(), inv.CreatedAt.UTC(), now,
	)
	return mapConstraint(err)
}

// GetActiveByTokenHash filters on status and expiry in the same query so
// an expired-but-not-yet-marked row can never be returned as valid.
func (r *invitationsRepo) GetActiveByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE token_hash = ? AND status = 'pending' AND expires_at > ?`,
		hash, time.Now().UTC())
	return scanInvitation(row)
}

// MarkAccepted only flips rows that are still pending; a second acceptance
// attempt affects zero rows and comes back as ErrNotFound.
func (r *invitationsRepo) MarkAccepted(ctx context.Context, invitationID, acceptedBy string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations
		 SET status = 'accepted', accepted_by = ?, updated_at = ?
		 WHERE id = ? AND status = 'pending'`,
		acceptedBy, time.Now().UTC(), invitationID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *invitationsRepo) ListWithInviter(ctx context.Context) ([]domain.InvitationWithInviter, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.email, i.role, i.token_hash, i.status, i.invited_by, i.accepted_by,
		        i.expires_at, i.created_at, i.updated_at, p.email, p.full_name
		 FROM invitations i
		 JOIN profiles p ON p.id = i.invited_by
		 ORDER BY i.created_at DESC, i.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.InvitationWithInviter
	for rows.Next() {
		var (
			item       domain.InvitationWithInviter
			role       string
			status     string
			acceptedBy sql.NullString
		)
		err := rows.Scan(&item.ID, &item.Email, &role, &item.TokenHash, &status,
			&item.InvitedBy, &acceptedBy, &item.ExpiresAt, &item.CreatedAt, &item.UpdatedAt,
			&item.InviterEmail, &item.InviterFullName)
		if err != nil {
			return nil, err
		}
		item.Role = domain.Role(role)
		item.Status = domain.InvitationStatus(status)
		item.AcceptedBy = mapNullString(acceptedBy)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) DeleteExpiredInvitations(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM invitations WHERE status = 'pending' AND expires_at <= ?`,
		time.Now().UTC())
	return err
}

func scanInvitation(row rowScanner) (domain.Invitation, error) {
	var (
		inv        domain.Invitation
		role       string
		status     string
		acceptedBy sql.NullString
	)
	err := row.Scan(&inv.ID, &inv.Email, &role, &inv.TokenHash, &status,
		&inv.InvitedBy, &acceptedBy, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.Role = domain.Role(role)
	inv.Status = domain.InvitationStatus(status)
	inv.AcceptedBy = mapNullString(acceptedBy)
	return inv, nil
}
