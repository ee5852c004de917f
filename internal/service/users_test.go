package service_test

import (
	"context"
	"errors"

	"github.com/geocoder89/finledger/internal/apperr"
	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/geocoder89/finledger/internal/repo/memory"
	"github.com/geocoder89/finledger/internal/service"
)

func (s *serviceSuite) TestCreateUserHashesPassword() {
	u := s.createUser("ada@example.com")

	s.NotEmpty(u.ID)
	s.Equal("ada@example.com", u.Email)
	s.NotEqual("secret123", u.PasswordHash)

	ok, err := s.hasher.Compare("secret123", u.PasswordHash)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *serviceSuite) TestCreateUserDuplicateEmail() {
	s.createUser("ada@example.com")

	_, err := s.users.Create(s.ctx, user.CreateParams{
		Email:     "ada@example.com",
		FirstName: "Other",
		LastName:  "Person",
		Password:  "secret123",
	})

	s.Require().ErrorIs(err, apperr.ErrEmailAlreadyInUse)
	s.Contains(err.Error(), "ada@example.com")
}

func (s *serviceSuite) TestCreateUserEmailIsCaseSensitive() {
	s.createUser("ada@example.com")
	u := s.createUser("ADA@example.com")

	s.Equal("ADA@example.com", u.Email)
}

// raceLoserStore lets the availability check pass and then rejects the insert,
// as a unique index does for the second of two concurrent signups.
type raceLoserStore struct {
	*memory.UsersRepo
}

func (raceLoserStore) GetByEmail(context.Context, string) (user.User, error) {
	return user.User{}, user.ErrNotFound
}

func (raceLoserStore) Create(context.Context, user.User) (user.User, error) {
	return user.User{}, user.ErrEmailTaken
}

func (s *serviceSuite) TestCreateUserUniqueViolationMapsToEmailInUse() {
	users := service.NewUserAccountManager(raceLoserStore{s.store.Users()}, s.hasher, service.UUIDGenerator{}, s.log)

	_, err := users.Create(s.ctx, user.CreateParams{Email: "a@b.co", FirstName: "A", LastName: "B", Password: "secret123"})

	s.ErrorIs(err, apperr.ErrEmailAlreadyInUse)
}

func (s *serviceSuite) TestUpdateUserPartial() {
	u := s.createUser("ada@example.com")

	updated, err := s.users.Update(s.ctx, u.ID, user.UpdateParams{FirstName: ptr("Augusta")})
	s.Require().NoError(err)

	s.Equal("Augusta", updated.FirstName)
	s.Equal("Lovelace", updated.LastName)
	s.Equal("ada@example.com", updated.Email)
	s.Equal(u.PasswordHash, updated.PasswordHash)
}

func (s *serviceSuite) TestUpdateUserKeepsOwnEmail() {
	u := s.createUser("ada@example.com")

	updated, err := s.users.Update(s.ctx, u.ID, user.UpdateParams{Email: ptr("ada@example.com")})

	s.Require().NoError(err)
	s.Equal("ada@example.com", updated.Email)
}

func (s *serviceSuite) TestUpdateUserEmailTakenByOther() {
	s.createUser("taken@example.com")
	u := s.createUser("ada@example.com")

	_, err := s.users.Update(s.ctx, u.ID, user.UpdateParams{Email: ptr("taken@example.com")})

	s.ErrorIs(err, apperr.EmailAlreadyInUse("taken@example.com"))

	got, err := s.users.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("ada@example.com", got.Email)
}

func (s *serviceSuite) TestUpdateUserRehashesPassword() {
	u := s.createUser("ada@example.com")

	updated, err := s.users.Update(s.ctx, u.ID, user.UpdateParams{Password: ptr("new-password")})
	s.Require().NoError(err)

	s.NotEqual(u.PasswordHash, updated.PasswordHash)
	ok, err := s.hasher.Compare("new-password", updated.PasswordHash)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *serviceSuite) TestUpdateUserErrors() {
	u := s.createUser("ada@example.com")

	_, err := s.users.Update(s.ctx, u.ID, user.UpdateParams{})
	s.ErrorIs(err, apperr.ErrValidation)

	_, err = s.users.Update(s.ctx, "missing", user.UpdateParams{FirstName: ptr("X")})
	s.ErrorIs(err, apperr.UserNotFound("missing"))
}

func (s *serviceSuite) TestDeleteUserRemovesTransactions() {
	u := s.createUser("ada@example.com")
	tx := s.createTx(u.ID, transaction.TypeExpense, "10.00", day(1))

	deleted, err := s.users.Delete(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.ID, deleted.ID)

	_, err = s.users.GetByID(s.ctx, u.ID)
	s.ErrorIs(err, apperr.ErrUserNotFound)

	_, err = s.store.Transactions().GetByID(s.ctx, tx.ID)
	s.ErrorIs(err, transaction.ErrNotFound)

	_, err = s.users.Delete(s.ctx, u.ID)
	s.ErrorIs(err, apperr.ErrUserNotFound)
}

type brokenUserStore struct {
	*memory.UsersRepo
}

func (brokenUserStore) GetByID(context.Context, string) (user.User, error) {
	return user.User{}, errors.New("connection reset")
}

func (s *serviceSuite) TestStoreFailureIsInternal() {
	users := service.NewUserAccountManager(brokenUserStore{s.store.Users()}, s.hasher, service.UUIDGenerator{}, s.log)

	_, err := users.GetByID(s.ctx, "any")

	s.Equal(apperr.KindInternal, apperr.KindOf(err))
	s.ErrorContains(err, "connection reset")
}
