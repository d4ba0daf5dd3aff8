package pg

import (
	"context"
	"database/sql"
	"errors"

	"lingoboard.org/internal/feedback"
	"lingoboard.org/internal/perm"
)

// Memberships exposes the role rows both the permission resolver and the
// feedback service read and write.
func (s *Store) Memberships() feedback.MembershipStore { return memberStore{s} }

type memberStore struct{ s *Store }

var _ feedback.MembershipStore = memberStore{}

func (m memberStore) OrgMembership(ctx context.Context, userID, organizationID string) (*perm.OrgMembership, error) {
	var role string
	err := m.s.db.QueryRowContext(ctx, `
		select role
		from organization_members
		where user_id = $1 and organization_id = $2
	`, userID, organizationID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &perm.OrgMembership{
		UserID:         userID,
		OrganizationID: organizationID,
		Role:           perm.OrgRole(role),
	}, nil
}

func (m memberStore) ProjectMembership(ctx context.Context, userID, projectID string) (*perm.ProjectMembership, error) {
	var role string
	err := m.s.db.QueryRowContext(ctx, `
		select role
		from project_members
		where user_id = $1 and project_id = $2
	`, userID, projectID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &perm.ProjectMembership{
		UserID:    userID,
		ProjectID: projectID,
		Role:      perm.ProjectRole(role),
	}, nil
}

func (m memberStore) AddOrgMember(ctx context.Context, organizationID, userID string, role perm.OrgRole) error {
	_, err := m.s.db.ExecContext(ctx, `
		insert into organization_members (organization_id, user_id, role, created_at)
		values ($1, $2, $3, now())
	`, organizationID, userID, string(role))
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return feedback.ErrAlreadyMember
		case pgErrForeignKeyViolation:
			return feedback.ErrNotFound
		}
	}
	return err
}

func (m memberStore) UpdateOrgMemberRole(ctx context.Context, organizationID, userID string, role perm.OrgRole) error {
	res, err := m.s.db.ExecContext(ctx, `
		update organization_members
		set role = $3
		where organization_id = $1 and user_id = $2
	`, organizationID, userID, string(role))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

func (m memberStore) RemoveOrgMember(ctx context.Context, organizationID, userID string) error {
	res, err := m.s.db.ExecContext(ctx, `
		delete from organization_members
		where organization_id = $1 and user_id = $2
	`, organizationID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

func (m memberStore) ListOrgMembers(ctx context.Context, organizationID string) ([]*perm.OrgMembership, error) {
	rows, err := m.s.db.QueryContext(ctx, `
		select user_id, role
		from organization_members
		where organization_id = $1
		order by created_at
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*perm.OrgMembership
	for rows.Next() {
		var (
			userID string
			role   string
		)
		if err := rows.Scan(&userID, &role); err != nil {
			return nil, err
		}
		out = append(out, &perm.OrgMembership{
			UserID:         userID,
			OrganizationID: organizationID,
			Role:           perm.OrgRole(role),
		})
	}
	return out, rows.Err()
}

func (m memberStore) AddProjectMember(ctx context.Context, projectID, userID string, role perm.ProjectRole) error {
	_, err := m.s.db.ExecContext(ctx, `
		insert into project_members (project_id, user_id, role, created_at)
		values ($1, $2, $3, now())
	`, projectID, userID, string(role))
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return feedback.ErrAlreadyMember
		case pgErrForeignKeyViolation:
			return feedback.ErrNotFound
		}
	}
	return err
}

func (m memberStore) RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	res, err := m.s.db.ExecContext(ctx, `
		delete from project_members
		where project_id = $1 and user_id = $2
	`, projectID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

func (m memberStore) ListProjectMembers(ctx context.Context, projectID string) ([]*perm.ProjectMembership, error) {
	rows, err := m.s.db.QueryContext(ctx, `
		select user_id, role
		from project_members
		where project_id = $1
		order by created_at
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*perm.ProjectMembership
	for rows.Next() {
		var (
			userID string
			role   string
		)
		if err := rows.Scan(&userID, &role); err != nil {
			return nil, err
		}
		out = append(out, &perm.ProjectMembership{
			UserID:    userID,
			ProjectID: projectID,
			Role:      perm.ProjectRole(role),
		})
	}
	return out, rows.Err()
}
