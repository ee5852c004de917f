// Package repotest holds the behaviour every store must share, as a testify
// suite that each store package runs against itself.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Update(ctx context.Context, id string, patch user.Patch) (user.User, error)
	Delete(ctx context.Context, id string) (user.User, error)
}

type TransactionStore interface {
	Create(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error)
	GetByID(ctx context.Context, id string) (transaction.Transaction, error)
	ListByUser(ctx context.Context, userID string, r transaction.DateRange) ([]transaction.Transaction, error)
	Update(ctx context.Context, id string, patch transaction.Patch) (transaction.Transaction, error)
	Delete(ctx context.Context, id string) (transaction.Transaction, error)
	SumByUserAndType(ctx context.Context, userID string, typ transaction.Type, r transaction.DateRange) (decimal.Decimal, error)
}

// Stores is what a store package hands to the suite for each test.
type Stores struct {
	Users        UserStore
	Transactions TransactionStore
	Cleanup      func()
}

type StoreSuite struct {
	suite.Suite

	// Open returns empty stores. Called before every test.
	Open func(t *testing.T) Stores

	ctx    context.Context
	stores Stores
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.stores = s.Open(s.T())
}

func (s *StoreSuite) TearDownTest() {
	if s.stores.Cleanup != nil {
		s.stores.Cleanup()
	}
}

func (s *StoreSuite) newUser(email string) user.User {
	u, err := s.stores.Users.Create(s.ctx, user.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    "Grace",
		LastName:     "Hopper",
		PasswordHash: "$2a$04$hash",
	})
	s.Require().NoError(err)
	return u
}

func (s *StoreSuite) newTx(userID string, typ transaction.Type, amount string, date time.Time) transaction.Transaction {
	t, err := s.stores.Transactions.Create(s.ctx, transaction.Transaction{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   "entry",
		Date:   date,
		Type:   typ,
		Amount: decimal.RequireFromString(amount),
	})
	s.Require().NoError(err)
	return t
}

func at(d int) time.Time {
	return time.Date(2024, time.March, d, 9, 30, 0, 0, time.UTC)
}

func (s *StoreSuite) TestUserRoundTrip() {
	u := s.newUser("grace@example.com")

	byID, err := s.stores.Users.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u, byID)

	byEmail, err := s.stores.Users.GetByEmail(s.ctx, "grace@example.com")
	s.Require().NoError(err)
	s.Equal(u, byEmail)
}

func (s *StoreSuite) TestUserNotFound() {
	missing := uuid.NewString()

	_, err := s.stores.Users.GetByID(s.ctx, missing)
	s.ErrorIs(err, user.ErrNotFound)

	_, err = s.stores.Users.GetByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, user.ErrNotFound)

	name := "x"
	_, err = s.stores.Users.Update(s.ctx, missing, user.Patch{FirstName: &name})
	s.ErrorIs(err, user.ErrNotFound)

	_, err = s.stores.Users.Delete(s.ctx, missing)
	s.ErrorIs(err, user.ErrNotFound)
}

func (s *StoreSuite) TestUserEmailUnique() {
	s.newUser("grace@example.com")
	other := s.newUser("other@example.com")

	_, err := s.stores.Users.Create(s.ctx, user.User{
		ID:           uuid.NewString(),
		Email:        "grace@example.com",
		FirstName:    "G",
		LastName:     "H",
		PasswordHash: "h",
	})
	s.ErrorIs(err, user.ErrEmailTaken)

	email := "grace@example.com"
	_, err = s.stores.Users.Update(s.ctx, other.ID, user.Patch{Email: &email})
	s.ErrorIs(err, user.ErrEmailTaken)
}

func (s *StoreSuite) TestUserPartialUpdate() {
	u := s.newUser("grace@example.com")

	last := "Murray Hopper"
	updated, err := s.stores.Users.Update(s.ctx, u.ID, user.Patch{LastName: &last})
	s.Require().NoError(err)

	s.Equal("Murray Hopper", updated.LastName)
	s.Equal(u.FirstName, updated.FirstName)
	s.Equal(u.Email, updated.Email)
	s.Equal(u.PasswordHash, updated.PasswordHash)
}

func (s *StoreSuite) TestDeleteUserCascades() {
	u := s.newUser("grace@example.com")
	t := s.newTx(u.ID, transaction.TypeExpense, "12.34", at(1))

	deleted, err := s.stores.Users.Delete(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.ID, deleted.ID)

	_, err = s.stores.Transactions.GetByID(s.ctx, t.ID)
	s.ErrorIs(err, transaction.ErrNotFound)
}

func (s *StoreSuite) TestTransactionRoundTrip() {
	u := s.newUser("grace@example.com")
	t := s.newTx(u.ID, transaction.TypeInvestment, "1234.56", at(2))

	got, err := s.stores.Transactions.GetByID(s.ctx, t.ID)
	s.Require().NoError(err)

	s.Equal(t.ID, got.ID)
	s.Equal(u.ID, got.UserID)
	s.Equal("entry", got.Name)
	s.Equal(transaction.TypeInvestment, got.Type)
	s.True(at(2).Equal(got.Date))
	s.True(decimal.RequireFromString("1234.56").Equal(got.Amount), "got %s", got.Amount)
}

func (s *StoreSuite) TestTransactionForUnknownUser() {
	_, err := s.stores.Transactions.Create(s.ctx, transaction.Transaction{
		ID:     uuid.NewString(),
		UserID: uuid.NewString(),
		Name:   "orphan",
		Date:   at(1),
		Type:   transaction.TypeExpense,
		Amount: decimal.NewFromInt(1),
	})

	s.ErrorIs(err, user.ErrNotFound)
}

func (s *StoreSuite) TestTransactionUpdateAndDelete() {
	u := s.newUser("grace@example.com")
	t := s.newTx(u.ID, transaction.TypeExpense, "10", at(3))

	name := "groceries"
	typ := transaction.TypeEarning
	updated, err := s.stores.Transactions.Update(s.ctx, t.ID, transaction.Patch{Name: &name, Type: &typ})
	s.Require().NoError(err)

	s.Equal("groceries", updated.Name)
	s.Equal(transaction.TypeEarning, updated.Type)
	s.True(decimal.NewFromInt(10).Equal(updated.Amount))
	s.True(at(3).Equal(updated.Date))

	deleted, err := s.stores.Transactions.Delete(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal("groceries", deleted.Name)

	_, err = s.stores.Transactions.Delete(s.ctx, t.ID)
	s.ErrorIs(err, transaction.ErrNotFound)

	_, err = s.stores.Transactions.Update(s.ctx, t.ID, transaction.Patch{Name: &name})
	s.ErrorIs(err, transaction.ErrNotFound)
}

func (s *StoreSuite) TestListByUserOrderAndRange() {
	u := s.newUser("grace@example.com")
	other := s.newUser("other@example.com")

	late := s.newTx(u.ID, transaction.TypeExpense, "1", at(20))
	early := s.newTx(u.ID, transaction.TypeExpense, "1", at(1))
	mid := s.newTx(u.ID, transaction.TypeExpense, "1", at(10))
	s.newTx(other.ID, transaction.TypeExpense, "1", at(10))

	all, err := s.stores.Transactions.ListByUser(s.ctx, u.ID, transaction.DateRange{})
	s.Require().NoError(err)
	s.Equal([]string{early.ID, mid.ID, late.ID}, idsOf(all))

	bounded, err := s.stores.Transactions.ListByUser(s.ctx, u.ID, transaction.NewDateRange(at(10), at(20)))
	s.Require().NoError(err)
	s.Equal([]string{mid.ID, late.ID}, idsOf(bounded))

	none, err := s.stores.Transactions.ListByUser(s.ctx, uuid.NewString(), transaction.DateRange{})
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *StoreSuite) TestSumByUserAndType() {
	u := s.newUser("grace@example.com")
	s.newTx(u.ID, transaction.TypeEarning, "0.10", at(1))
	s.newTx(u.ID, transaction.TypeEarning, "0.20", at(2))
	s.newTx(u.ID, transaction.TypeEarning, "100", at(25))
	s.newTx(u.ID, transaction.TypeExpense, "7.50", at(2))

	sum, err := s.stores.Transactions.SumByUserAndType(s.ctx, u.ID, transaction.TypeEarning, transaction.DateRange{})
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("100.30").Equal(sum), "got %s", sum)

	ranged, err := s.stores.Transactions.SumByUserAndType(s.ctx, u.ID, transaction.TypeEarning, transaction.NewDateRange(at(1), at(2)))
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("0.3").Equal(ranged), "got %s", ranged)

	empty, err := s.stores.Transactions.SumByUserAndType(s.ctx, u.ID, transaction.TypeInvestment, transaction.DateRange{})
	s.Require().NoError(err)
	s.True(empty.IsZero())
}

func idsOf(txs []transaction.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}
