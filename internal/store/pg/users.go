package pg

import (
	"context"
	"database/sql"
	"errors"

	"lingoboard.org/internal/auth"
)

// Users exposes the account repository.
func (s *Store) Users() auth.UserStore { return userStore{s} }

type userStore struct{ s *Store }

var _ auth.UserStore = userStore{}

func (u userStore) Create(ctx context.Context, user *auth.User) error {
	_, err := u.s.db.ExecContext(ctx, `
		insert into users (id, email, name, password_hash, preferred_language, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Email, user.Name, user.PasswordHash, user.PreferredLanguage, user.CreatedAt, user.UpdatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
		return auth.ErrAlreadyExists
	}
	return err
}

func (u userStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	return u.scanOne(u.s.db.QueryRowContext(ctx, `
		select id, email, name, password_hash, preferred_language, created_at, updated_at
		from users
		where id = $1
	`, id))
}

func (u userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return u.scanOne(u.s.db.QueryRowContext(ctx, `
		select id, email, name, password_hash, preferred_language, created_at, updated_at
		from users
		where email = $1
	`, email))
}

// scanOne maps the absent row to auth.ErrNotFound; the auth service relies
// on the sentinel to turn unknown accounts into ErrInvalidCredentials.
func (u userStore) scanOne(row *sql.Row) (*auth.User, error) {
	var user auth.User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.PreferredLanguage, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
