package service_test

import (
	"context"
	"errors"

	"github.com/geocoder89/finledger/internal/apperr"
	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/repo/memory"
	"github.com/geocoder89/finledger/internal/service"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (s *serviceSuite) TestBalanceExample() {
	u := s.createUser("ada@example.com")
	s.createTx(u.ID, transaction.TypeEarning, "5000", day(1))
	s.createTx(u.ID, transaction.TypeExpense, "1500", day(2))
	s.createTx(u.ID, transaction.TypeExpense, "500", day(3))
	s.createTx(u.ID, transaction.TypeInvestment, "1000", day(4))

	snap, err := s.balances.Execute(s.ctx, u.ID, transaction.DateRange{})
	s.Require().NoError(err)

	s.True(dec("5000").Equal(snap.Earnings))
	s.True(dec("2000").Equal(snap.Expenses))
	s.True(dec("1000").Equal(snap.Investments))
	s.True(dec("2000").Equal(snap.Balance))
	s.Equal(int64(63), snap.EarningsPercentage)
	s.Equal(int64(25), snap.ExpensesPercentage)
	s.Equal(int64(13), snap.InvestmentsPercentage)
}

func (s *serviceSuite) TestBalanceNoTransactions() {
	u := s.createUser("ada@example.com")

	snap, err := s.balances.Execute(s.ctx, u.ID, transaction.DateRange{})
	s.Require().NoError(err)

	s.True(snap.Balance.IsZero())
	s.True(snap.Earnings.IsZero())
	s.Zero(snap.EarningsPercentage)
	s.Zero(snap.ExpensesPercentage)
	s.Zero(snap.InvestmentsPercentage)
}

func (s *serviceSuite) TestBalanceExactDecimals() {
	u := s.createUser("ada@example.com")
	s.createTx(u.ID, transaction.TypeEarning, "0.10", day(1))
	s.createTx(u.ID, transaction.TypeEarning, "0.20", day(2))
	s.createTx(u.ID, transaction.TypeExpense, "0.30", day(3))

	snap, err := s.balances.Execute(s.ctx, u.ID, transaction.DateRange{})
	s.Require().NoError(err)

	s.True(dec("0.30").Equal(snap.Earnings))
	s.True(snap.Balance.IsZero(), "got %s", snap.Balance)
}

func (s *serviceSuite) TestBalanceWithinRange() {
	u := s.createUser("ada@example.com")
	s.createTx(u.ID, transaction.TypeEarning, "100", day(1))
	s.createTx(u.ID, transaction.TypeEarning, "50", day(15))
	s.createTx(u.ID, transaction.TypeExpense, "30", day(31))

	snap, err := s.balances.Execute(s.ctx, u.ID, transaction.NewDateRange(day(1), day(15)))
	s.Require().NoError(err)

	s.True(dec("150").Equal(snap.Earnings))
	s.True(snap.Expenses.IsZero())
	s.True(dec("150").Equal(snap.Balance))
	s.Equal(int64(100), snap.EarningsPercentage)
}

func (s *serviceSuite) TestBalanceNegative() {
	u := s.createUser("ada@example.com")
	s.createTx(u.ID, transaction.TypeEarning, "100", day(1))
	s.createTx(u.ID, transaction.TypeExpense, "250.25", day(2))

	snap, err := s.balances.Execute(s.ctx, u.ID, transaction.DateRange{})
	s.Require().NoError(err)

	s.True(dec("-150.25").Equal(snap.Balance))
}

func (s *serviceSuite) TestBalanceErrors() {
	_, err := s.balances.Execute(s.ctx, "ghost", transaction.DateRange{})
	s.ErrorIs(err, apperr.ErrUserNotFound)

	u := s.createUser("ada@example.com")
	_, err = s.balances.Execute(s.ctx, u.ID, transaction.NewDateRange(day(5), day(4)))
	s.ErrorIs(err, apperr.ErrValidation)
}

type failingSums struct {
	*memory.TransactionsRepo
}

func (failingSums) SumByUserAndType(context.Context, string, transaction.Type, transaction.DateRange) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("db down")
}

func (s *serviceSuite) TestBalanceSumFailureIsInternal() {
	u := s.createUser("ada@example.com")
	agg := service.NewBalanceAggregator(failingSums{s.store.Transactions()}, s.store.Users(), s.log)

	_, err := agg.Execute(s.ctx, u.ID, transaction.DateRange{})

	s.Equal(apperr.KindInternal, apperr.KindOf(err))
}
