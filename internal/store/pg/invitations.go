package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lingoboard.org/internal/feedback"
	"lingoboard.org/internal/perm"
)

// Invitations exposes the invite code repository.
func (s *Store) Invitations() feedback.InvitationStore { return inviteStore{s} }

type inviteStore struct{ s *Store }

var _ feedback.InvitationStore = inviteStore{}

func (i inviteStore) Create(ctx context.Context, inv *feedback.Invitation) error {
	_, err := i.s.db.ExecContext(ctx, `
		insert into invitations (id, organization_id, email, code, role, expires_at, created_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, inv.ID, inv.OrganizationID, inv.Email, inv.Code, string(inv.Role), inv.ExpiresAt, inv.CreatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
		return feedback.ErrNotFound
	}
	return err
}

func (i inviteStore) FindByCode(ctx context.Context, code string) (*feedback.Invitation, error) {
	var (
		inv    feedback.Invitation
		role   string
		usedAt sql.NullTime
	)
	err := i.s.db.QueryRowContext(ctx, `
		select id, organization_id, email, code, role, expires_at, used_at, created_at
		from invitations
		where code = $1
	`, code).Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Code, &role,
		&inv.ExpiresAt, &usedAt, &inv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	inv.Role = perm.OrgRole(role)
	if usedAt.Valid {
		t := usedAt.Time
		inv.UsedAt = &t
	}
	return &inv, nil
}

func (i inviteStore) MarkUsed(ctx context.Context, id string, at time.Time) error {
	res, err := i.s.db.ExecContext(ctx, `
		update invitations
		set used_at = $2
		where id = $1 and used_at is null
	`, id, at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.ErrInviteUsed
	}
	return nil
}
