package pg

import (
	"context"
	"database/sql"
	"errors"

	"lingoboard.org/internal/feedback"
)

// Organizations exposes the organization repository.
func (s *Store) Organizations() feedback.OrganizationStore { return orgStore{s} }

type orgStore struct{ s *Store }

var _ feedback.OrganizationStore = orgStore{}

func (o orgStore) Create(ctx context.Context, org *feedback.Organization) error {
	_, err := o.s.db.ExecContext(ctx, `
		insert into organizations (id, name, slug, created_at, updated_at)
		values ($1, $2, $3, $4, $5)
	`, org.ID, org.Name, org.Slug, org.CreatedAt, org.UpdatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
		return feedback.ErrSlugTaken
	}
	return err
}

func (o orgStore) FindByID(ctx context.Context, id string) (*feedback.Organization, error) {
	return o.scanOne(o.s.db.QueryRowContext(ctx, `
		select id, name, slug, created_at, updated_at
		from organizations
		where id = $1
	`, id))
}

func (o orgStore) FindBySlug(ctx context.Context, slug string) (*feedback.Organization, error) {
	return o.scanOne(o.s.db.QueryRowContext(ctx, `
		select id, name, slug, created_at, updated_at
		from organizations
		where slug = $1
	`, slug))
}

func (o orgStore) Update(ctx context.Context, org *feedback.Organization) error {
	res, err := o.s.db.ExecContext(ctx, `
		update organizations
		set name = $2, slug = $3, updated_at = $4
		where id = $1
	`, org.ID, org.Name, org.Slug, org.UpdatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
		return feedback.ErrSlugTaken
	}
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

func (o orgStore) Delete(ctx context.Context, id string) error {
	res, err := o.s.db.ExecContext(ctx, `delete from organizations where id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

func (o orgStore) List(ctx context.Context) ([]*feedback.Organization, error) {
	rows, err := o.s.db.QueryContext(ctx, `
		select id, name, slug, created_at, updated_at
		from organizations
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*feedback.Organization
	for rows.Next() {
		var org feedback.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &org)
	}
	return out, rows.Err()
}

func (o orgStore) scanOne(row *sql.Row) (*feedback.Organization, error) {
	var org feedback.Organization
	err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}
