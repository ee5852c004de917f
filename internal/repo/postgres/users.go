package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/geocoder89/finledger/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, first_name, last_name, password_hash`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	return observe(r.prom, op, fn)
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO users (id, email, first_name, last_name, password_hash)
			VALUES ($1, $2, $3, $4, $5)`,
			u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash)
		return e
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if uuid.Validate(id) != nil {
		return user.User{}, user.ErrNotFound
	}

	var u user.User
	err := r.observe("users.get_by_id", func() error {
		return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u)
	})

	return u, mapUserErr(err)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email), &u)
	})

	return u, mapUserErr(err)
}

// Update sets only the non-nil fields of patch.
func (r *UsersRepo) Update(ctx context.Context, id string, patch user.Patch) (user.User, error) {
	if uuid.Validate(id) != nil {
		return user.User{}, user.ErrNotFound
	}

	var u user.User
	err := r.observe("users.update", func() error {
		return scanUser(r.pool.QueryRow(ctx, `
			UPDATE users SET
				email         = COALESCE($2, email),
				first_name    = COALESCE($3, first_name),
				last_name     = COALESCE($4, last_name),
				password_hash = COALESCE($5, password_hash)
			WHERE id = $1
			RETURNING `+userColumns,
			id, patch.Email, patch.FirstName, patch.LastName, patch.PasswordHash), &u)
	})

	if err != nil && isUniqueViolation(err) {
		return user.User{}, user.ErrEmailTaken
	}

	return u, mapUserErr(err)
}

// Delete removes the user; its transactions go with it through ON DELETE CASCADE.
func (r *UsersRepo) Delete(ctx context.Context, id string) (user.User, error) {
	if uuid.Validate(id) != nil {
		return user.User{}, user.ErrNotFound
	}

	var u user.User
	err := r.observe("users.delete", func() error {
		return scanUser(r.pool.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id), &u)
	})

	return u, mapUserErr(err)
}

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash)
}

func mapUserErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func observe(prom *observability.Prom, op string, fn func() error) error {
	if prom != nil {
		return prom.ObserveDB(op, fn)
	}
	return fn()
}
