package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/geocoder89/finledger/internal/domain/user"
)

const userColumns = `id, email, first_name, last_name, password_hash`

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.s.observe("users.create", func() error {
		_, e := r.s.db.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
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
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UsersRepo) Update(ctx context.Context, id string, patch user.Patch) (user.User, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("email", patch.Email)
	add("first_name", patch.FirstName)
	add("last_name", patch.LastName)
	add("password_hash", patch.PasswordHash)

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	u, err := r.getOne(ctx, "users.update",
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+userColumns, args...)

	if err != nil && isUniqueViolation(err) {
		return user.User{}, user.ErrEmailTaken
	}
	return u, err
}

// Delete removes the user; foreign_keys is on, so its transactions cascade.
func (r *UsersRepo) Delete(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.delete", `DELETE FROM users WHERE id = ? RETURNING `+userColumns, id)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, args ...any) (user.User, error) {
	var u user.User

	err := r.s.observe(op, func() error {
		return r.s.db.QueryRowContext(ctx, query, args...).
			Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}
