package pg

import (
	"context"
	"database/sql"
	"errors"

	"lingoboard.org/internal/feedback"
)

// Comments exposes the comment repository.
func (s *Store) Comments() feedback.CommentStore { return commentStore{s} }

type commentStore struct{ s *Store }

var _ feedback.CommentStore = commentStore{}

const commentColumns = `id, thread_id, author_id, content, original_language, created_at, updated_at`

func (c commentStore) Create(ctx context.Context, cm *feedback.Comment) error {
	_, err := c.s.db.ExecContext(ctx, `
		insert into comments (id, thread_id, author_id, content, original_language, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, cm.ID, cm.ThreadID, cm.AuthorID, cm.Content, cm.OriginalLanguage, cm.CreatedAt, cm.UpdatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
		return feedback.ErrNotFound
	}
	return err
}

func (c commentStore) FindByID(ctx context.Context, id string) (*feedback.Comment, error) {
	return c.scanOne(c.s.db.QueryRowContext(ctx,
		`select `+commentColumns+` from comments where id = $1`, id))
}

func (c commentStore) ListByThread(ctx context.Context, threadID string) ([]*feedback.Comment, error) {
	rows, err := c.s.db.QueryContext(ctx,
		`select `+commentColumns+` from comments where thread_id = $1 order by created_at`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*feedback.Comment
	for rows.Next() {
		var cm feedback.Comment
		if err := rows.Scan(&cm.ID, &cm.ThreadID, &cm.AuthorID, &cm.Content,
			&cm.OriginalLanguage, &cm.CreatedAt, &cm.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &cm)
	}
	return out, rows.Err()
}

func (c commentStore) UpdateContent(ctx context.Context, id, content string) (*feedback.Comment, error) {
	cm, err := c.scanOne(c.s.db.QueryRowContext(ctx, `
		update comments
		set content = $2, updated_at = now()
		where id = $1
		returning `+commentColumns, id, content))
	if err != nil {
		return nil, err
	}
	if cm == nil {
		return nil, feedback.ErrNotFound
	}
	return cm, nil
}

func (c commentStore) Delete(ctx context.Context, id string) error {
	res, err := c.s.db.ExecContext(ctx, `delete from comments where id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

func (c commentStore) scanOne(row *sql.Row) (*feedback.Comment, error) {
	var cm feedback.Comment
	err := row.Scan(&cm.ID, &cm.ThreadID, &cm.AuthorID, &cm.Content,
		&cm.OriginalLanguage, &cm.CreatedAt, &cm.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cm, nil
}
