package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lingoboard.org/internal/feedback"
)

// Threads exposes the thread repository.
func (s *Store) Threads() feedback.ThreadStore { return threadStore{s} }

type threadStore struct{ s *Store }

var _ feedback.ThreadStore = threadStore{}

const threadColumns = `t.id, t.project_id, t.author_id, t.title, t.content, t.status,
	t.priority_weight, coalesce(t.assigned_to, ''), t.original_language,
	(select count(*) from comments c where c.thread_id = t.id) as comment_count,
	t.created_at, t.updated_at`

func (t threadStore) Create(ctx context.Context, th *feedback.Thread) error {
	_, err := t.s.db.ExecContext(ctx, `
		insert into threads (id, project_id, author_id, title, content, status,
			priority_weight, assigned_to, original_language, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, th.ID, th.ProjectID, th.AuthorID, th.Title, th.Content, string(th.Status),
		th.PriorityWeight, nullIfEmpty(th.AssignedTo), th.OriginalLanguage, th.CreatedAt, th.UpdatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
		return feedback.ErrNotFound
	}
	return err
}

func (t threadStore) FindByID(ctx context.Context, id string) (*feedback.Thread, error) {
	return t.scanOne(t.s.db.QueryRowContext(ctx,
		`select `+threadColumns+` from threads t where t.id = $1`, id))
}

func (t threadStore) ListByProject(ctx context.Context, projectID string, f feedback.ThreadFilters) ([]*feedback.Thread, error) {
	query := `select ` + threadColumns + ` from threads t where t.project_id = $1`
	args := []any{projectID}
	if f.Status != "" {
		query += ` and t.status = $2`
		args = append(args, string(f.Status))
	}
	switch f.SortBy {
	case "priority":
		query += ` order by t.priority_weight desc, t.created_at desc`
	case "discussed":
		query += ` order by comment_count desc, t.created_at desc`
	default:
		query += ` order by t.created_at desc`
	}

	rows, err := t.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*feedback.Thread
	for rows.Next() {
		th, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, th)
	}
	return out, rows.Err()
}

// Update applies the whole patch in one statement so partially authorized
// writes can never happen at the storage layer either.
func (t threadStore) Update(ctx context.Context, id string, patch feedback.ThreadPatch) (*feedback.Thread, error) {
	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if patch.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", idx))
		args = append(args, *patch.Title)
		idx++
	}
	if patch.Content != nil {
		setClauses = append(setClauses, fmt.Sprintf("content = $%d", idx))
		args = append(args, *patch.Content)
		idx++
	}
	if patch.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", idx))
		args = append(args, string(*patch.Status))
		idx++
	}
	if patch.PriorityWeight != nil {
		setClauses = append(setClauses, fmt.Sprintf("priority_weight = $%d", idx))
		args = append(args, *patch.PriorityWeight)
		idx++
	}
	if patch.AssignedTo != nil {
		setClauses = append(setClauses, fmt.Sprintf("assigned_to = $%d", idx))
		args = append(args, nullIfEmpty(*patch.AssignedTo))
		idx++
	}
	if len(setClauses) == 0 {
		return nil, feedback.ErrInvalidInput
	}
	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
		update threads t
		set %s
		where t.id = $%d
		returning `+threadColumns, strings.Join(setClauses, ", "), idx)
	th, err := t.scanOne(t.s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if th == nil {
		return nil, feedback.ErrNotFound
	}
	return th, nil
}

func (t threadStore) Delete(ctx context.Context, id string) error {
	res, err := t.s.db.ExecContext(ctx, `delete from threads where id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (*feedback.Thread, error) {
	var (
		th     feedback.Thread
		status string
	)
	err := row.Scan(&th.ID, &th.ProjectID, &th.AuthorID, &th.Title, &th.Content, &status,
		&th.PriorityWeight, &th.AssignedTo, &th.OriginalLanguage, &th.CommentCount,
		&th.CreatedAt, &th.UpdatedAt)
	if err != nil {
		return nil, err
	}
	th.Status = feedback.ThreadStatus(status)
	return &th, nil
}

func (t threadStore) scanOne(row *sql.Row) (*feedback.Thread, error) {
	th, err := scanThread(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return th, nil
}
