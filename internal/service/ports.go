// Package service holds the business rules of the ledger: account management,
// ownership-checked transaction mutations and balance aggregation. Every
// error it returns is an *apperr.Error.
package service

import (
	"context"

	"github.com/geocoder89/finledger/internal/auth"
	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserStore persists users. Lookups of a missing user return user.ErrNotFound;
// writes that collide on email return user.ErrEmailTaken.
type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Update(ctx context.Context, id string, patch user.Patch) (user.User, error)
	Delete(ctx context.Context, id string) (user.User, error)
}

// TransactionStore persists transactions. Lookups of a missing transaction
// return transaction.ErrNotFound.
type TransactionStore interface {
	Create(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error)
	GetByID(ctx context.Context, id string) (transaction.Transaction, error)
	ListByUser(ctx context.Context, userID string, r transaction.DateRange) ([]transaction.Transaction, error)
	Update(ctx context.Context, id string, patch transaction.Patch) (transaction.Transaction, error)
	Delete(ctx context.Context, id string) (transaction.Transaction, error)
	SumByUserAndType(ctx context.Context, userID string, typ transaction.Type, r transaction.DateRange) (decimal.Decimal, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hash string) (bool, error)
}

type TokenIssuer interface {
	Issue(userID string) (auth.TokenPair, error)
	Refresh(refreshToken string) (auth.TokenPair, error)
}

type IDGenerator interface {
	NewID() string
}

// UUIDGenerator produces random (v4) UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
