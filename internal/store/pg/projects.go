package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lingoboard.org/internal/feedback"
)

// Projects exposes the project repository.
func (s *Store) Projects() feedback.ProjectStore { return projStore{s} }

type projStore struct{ s *Store }

var _ feedback.ProjectStore = projStore{}

const projectColumns = `id, organization_id, name, slug, coalesce(description, ''), public, created_at, updated_at`

func (p projStore) Create(ctx context.Context, pr *feedback.Project) error {
	_, err := p.s.db.ExecContext(ctx, `
		insert into projects (id, organization_id, name, slug, description, public, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, pr.ID, pr.OrganizationID, pr.Name, pr.Slug, nullIfEmpty(pr.Description), pr.Public, pr.CreatedAt, pr.UpdatedAt)
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return feedback.ErrSlugTaken
		case pgErrForeignKeyViolation:
			return feedback.ErrNotFound
		}
	}
	return err
}

func (p projStore) FindByID(ctx context.Context, id string) (*feedback.Project, error) {
	return p.scanOne(p.s.db.QueryRowContext(ctx,
		`select `+projectColumns+` from projects where id = $1`, id))
}

func (p projStore) FindBySlug(ctx context.Context, slug string) (*feedback.Project, error) {
	return p.scanOne(p.s.db.QueryRowContext(ctx,
		`select `+projectColumns+` from projects where slug = $1`, slug))
}

func (p projStore) ListByOrg(ctx context.Context, organizationID string) ([]*feedback.Project, error) {
	return p.list(ctx, `select `+projectColumns+` from projects where organization_id = $1 order by name`, organizationID)
}

func (p projStore) ListPublic(ctx context.Context) ([]*feedback.Project, error) {
	return p.list(ctx, `select `+projectColumns+` from projects where public order by name`)
}

func (p projStore) Update(ctx context.Context, id string, patch feedback.ProjectPatch) (*feedback.Project, error) {
	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if patch.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", idx))
		args = append(args, *patch.Name)
		idx++
	}
	if patch.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", idx))
		args = append(args, nullIfEmpty(*patch.Description))
		idx++
	}
	if patch.Public != nil {
		setClauses = append(setClauses, fmt.Sprintf("public = $%d", idx))
		args = append(args, *patch.Public)
		idx++
	}
	if len(setClauses) == 0 {
		return nil, feedback.ErrInvalidInput
	}
	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
		update projects
		set %s
		where id = $%d
		returning `+projectColumns, strings.Join(setClauses, ", "), idx)
	pr, err := p.scanOne(p.s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, feedback.ErrNotFound
	}
	return pr, nil
}

func (p projStore) Delete(ctx context.Context, id string) error {
	res, err := p.s.db.ExecContext(ctx, `delete from projects where id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

func (p projStore) list(ctx context.Context, query string, args ...any) ([]*feedback.Project, error) {
	rows, err := p.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*feedback.Project
	for rows.Next() {
		var pr feedback.Project
		if err := rows.Scan(&pr.ID, &pr.OrganizationID, &pr.Name, &pr.Slug,
			&pr.Description, &pr.Public, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &pr)
	}
	return out, rows.Err()
}

func (p projStore) scanOne(row *sql.Row) (*feedback.Project, error) {
	var pr feedback.Project
	err := row.Scan(&pr.ID, &pr.OrganizationID, &pr.Name, &pr.Slug,
		&pr.Description, &pr.Public, &pr.CreatedAt, &pr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pr, nil
}
