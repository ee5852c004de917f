package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/finledger/internal/apperr"
	"github.com/geocoder89/finledger/internal/domain/user"
)

// UserAccountManager creates, updates and deletes users and keeps emails unique.
//
// The email check is read-then-write, so two concurrent creates with the same
// email can both pass it. The stores' unique index is the final authority and
// the loser still gets EmailAlreadyInUse.
type UserAccountManager struct {
	users  UserStore
	hasher PasswordHasher
	ids    IDGenerator
	log    *slog.Logger
}

func NewUserAccountManager(users UserStore, hasher PasswordHasher, ids IDGenerator, log *slog.Logger) *UserAccountManager {
	return &UserAccountManager{
		users:  users,
		hasher: hasher,
		ids:    ids,
		log:    loggerOrDefault(log),
	}
}

func (m *UserAccountManager) Create(ctx context.Context, params user.CreateParams) (user.User, error) {
	if err := m.ensureEmailAvailable(ctx, params.Email, ""); err != nil {
		return user.User{}, err
	}

	hash, err := m.hasher.Hash(params.Password)
	if err != nil {
		return user.User{}, internalError(ctx, m.log, "users.create.hash", err)
	}

	u := user.User{
		ID:           m.ids.NewID(),
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: hash,
	}

	created, err := m.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return user.User{}, apperr.EmailAlreadyInUse(params.Email)
		}
		return user.User{}, internalError(ctx, m.log, "users.create", err, "user_id", u.ID)
	}

	return created, nil
}

func (m *UserAccountManager) GetByID(ctx context.Context, userID string) (user.User, error) {
	u, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, apperr.UserNotFound(userID)
		}
		return user.User{}, internalError(ctx, m.log, "users.get_by_id", err, "user_id", userID)
	}

	return u, nil
}

// Update persists only the fields present in params.
func (m *UserAccountManager) Update(ctx context.Context, userID string, params user.UpdateParams) (user.User, error) {
	if params.IsEmpty() {
		return user.User{}, apperr.Validation("at least one field must be provided for update")
	}

	if _, err := m.GetByID(ctx, userID); err != nil {
		return user.User{}, err
	}

	if params.Email != nil {
		if err := m.ensureEmailAvailable(ctx, *params.Email, userID); err != nil {
			return user.User{}, err
		}
	}

	patch := user.Patch{
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
	}

	if params.Password != nil {
		hash, err := m.hasher.Hash(*params.Password)
		if err != nil {
			return user.User{}, internalError(ctx, m.log, "users.update.hash", err, "user_id", userID)
		}
		patch.PasswordHash = &hash
	}

	updated, err := m.users.Update(ctx, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			return user.User{}, apperr.UserNotFound(userID)
		case errors.Is(err, user.ErrEmailTaken) && params.Email != nil:
			return user.User{}, apperr.EmailAlreadyInUse(*params.Email)
		default:
			return user.User{}, internalError(ctx, m.log, "users.update", err, "user_id", userID)
		}
	}

	return updated, nil
}

// Delete removes the user and returns the deleted record.
func (m *UserAccountManager) Delete(ctx context.Context, userID string) (user.User, error) {
	deleted, err := m.users.Delete(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, apperr.UserNotFound(userID)
		}
		return user.User{}, internalError(ctx, m.log, "users.delete", err, "user_id", userID)
	}

	return deleted, nil
}

// ensureEmailAvailable fails when email belongs to a user other than ownerID.
func (m *UserAccountManager) ensureEmailAvailable(ctx context.Context, email, ownerID string) error {
	existing, err := m.users.GetByEmail(ctx, email)

	if err == nil {
		if existing.ID == ownerID {
			return nil
		}
		return apperr.EmailAlreadyInUse(email)
	}

	if errors.Is(err, user.ErrNotFound) {
		return nil
	}

	return internalError(ctx, m.log, "users.get_by_email", err)
}
