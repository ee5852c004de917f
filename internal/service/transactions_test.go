package service_test

import (
	"github.com/geocoder89/finledger/internal/apperr"
	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

func (s *serviceSuite) TestCreateTransaction() {
	u := s.createUser("ada@example.com")

	tx := s.createTx(u.ID, transaction.TypeEarning, "1500.50", day(3))

	s.NotEmpty(tx.ID)
	s.Equal(u.ID, tx.UserID)
	s.Equal(transaction.TypeEarning, tx.Type)
	s.True(decimal.RequireFromString("1500.5").Equal(tx.Amount))
	s.True(day(3).Equal(tx.Date))
}

func (s *serviceSuite) TestCreateTransactionUnknownUser() {
	_, err := s.ledger.Create(s.ctx, transaction.CreateParams{
		UserID: "ghost",
		Name:   "rent",
		Date:   day(1),
		Type:   transaction.TypeExpense,
		Amount: decimal.NewFromInt(10),
	})

	s.ErrorIs(err, apperr.UserNotFound("ghost"))
}

func (s *serviceSuite) TestCreateTransactionRejectsMalformedInput() {
	u := s.createUser("ada@example.com")

	cases := []struct {
		name   string
		params transaction.CreateParams
	}{
		{"zero amount", transaction.CreateParams{Name: "x", Type: transaction.TypeExpense, Amount: decimal.Zero}},
		{"negative amount", transaction.CreateParams{Name: "x", Type: transaction.TypeExpense, Amount: decimal.NewFromInt(-5)}},
		{"three decimals", transaction.CreateParams{Name: "x", Type: transaction.TypeExpense, Amount: decimal.RequireFromString("1.005")}},
		{"unknown type", transaction.CreateParams{Name: "x", Type: "GIFT", Amount: decimal.NewFromInt(1)}},
		{"blank name", transaction.CreateParams{Name: "", Type: transaction.TypeExpense, Amount: decimal.NewFromInt(1)}},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			tc.params.UserID = u.ID
			tc.params.Date = day(1)

			_, err := s.ledger.Create(s.ctx, tc.params)

			s.Equal(apperr.KindInternal, apperr.KindOf(err))
		})
	}

	list, err := s.ledger.ListByUser(s.ctx, u.ID, transaction.DateRange{})
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *serviceSuite) TestUpdateTransactionMergesFields() {
	u := s.createUser("ada@example.com")
	tx := s.createTx(u.ID, transaction.TypeExpense, "20.00", day(2))

	amount := decimal.RequireFromString("25.75")
	updated, err := s.ledger.Update(s.ctx, tx.ID, u.ID, transaction.Patch{Amount: &amount})
	s.Require().NoError(err)

	s.True(amount.Equal(updated.Amount))
	s.Equal(tx.Name, updated.Name)
	s.Equal(tx.Type, updated.Type)
	s.True(tx.Date.Equal(updated.Date))
	s.Equal(u.ID, updated.UserID)
}

func (s *serviceSuite) TestUpdateTransactionChecksOrder() {
	owner := s.createUser("owner@example.com")
	other := s.createUser("other@example.com")
	tx := s.createTx(owner.ID, transaction.TypeExpense, "20.00", day(2))

	_, err := s.ledger.Update(s.ctx, "missing", other.ID, transaction.Patch{Name: ptr("x")})
	s.ErrorIs(err, apperr.TransactionNotFound("missing"))

	_, err = s.ledger.Update(s.ctx, tx.ID, other.ID, transaction.Patch{Name: ptr("stolen")})
	s.ErrorIs(err, apperr.ErrForbidden)

	got, err := s.store.Transactions().GetByID(s.ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal("entry", got.Name)

	_, err = s.ledger.Update(s.ctx, tx.ID, owner.ID, transaction.Patch{})
	s.ErrorIs(err, apperr.ErrValidation)
}

func (s *serviceSuite) TestUpdateTransactionRejectsMalformedAmount() {
	u := s.createUser("ada@example.com")
	tx := s.createTx(u.ID, transaction.TypeExpense, "20.00", day(2))

	bad := decimal.RequireFromString("0.001")
	_, err := s.ledger.Update(s.ctx, tx.ID, u.ID, transaction.Patch{Amount: &bad})

	s.Equal(apperr.KindInternal, apperr.KindOf(err))
}

func (s *serviceSuite) TestDeleteTransaction() {
	owner := s.createUser("owner@example.com")
	other := s.createUser("other@example.com")
	tx := s.createTx(owner.ID, transaction.TypeInvestment, "300", day(5))

	_, err := s.ledger.Delete(s.ctx, tx.ID, other.ID)
	s.ErrorIs(err, apperr.ErrForbidden)

	deleted, err := s.ledger.Delete(s.ctx, tx.ID, owner.ID)
	s.Require().NoError(err)
	s.Equal(tx.ID, deleted.ID)

	_, err = s.ledger.Delete(s.ctx, tx.ID, owner.ID)
	s.ErrorIs(err, apperr.ErrTransactionNotFound)
}

func (s *serviceSuite) TestListByUserOrderAndRange() {
	u := s.createUser("ada@example.com")
	other := s.createUser("other@example.com")

	third := s.createTx(u.ID, transaction.TypeExpense, "3", day(20))
	first := s.createTx(u.ID, transaction.TypeExpense, "1", day(1))
	secondA := s.createTx(u.ID, transaction.TypeEarning, "2", day(10))
	secondB := s.createTx(u.ID, transaction.TypeEarning, "2", day(10))
	s.createTx(other.ID, transaction.TypeEarning, "99", day(10))

	all, err := s.ledger.ListByUser(s.ctx, u.ID, transaction.DateRange{})
	s.Require().NoError(err)
	s.Equal([]string{first.ID, secondA.ID, secondB.ID, third.ID}, ids(all))

	bounded, err := s.ledger.ListByUser(s.ctx, u.ID, transaction.NewDateRange(day(1), day(10)))
	s.Require().NoError(err)
	s.Equal([]string{first.ID, secondA.ID, secondB.ID}, ids(bounded))
}

func (s *serviceSuite) TestListByUserErrors() {
	u := s.createUser("ada@example.com")

	_, err := s.ledger.ListByUser(s.ctx, "ghost", transaction.DateRange{})
	s.ErrorIs(err, apperr.ErrUserNotFound)

	_, err = s.ledger.ListByUser(s.ctx, u.ID, transaction.NewDateRange(day(10), day(1)))
	s.ErrorIs(err, apperr.ErrValidation)

	from := day(1)
	_, err = s.ledger.ListByUser(s.ctx, u.ID, transaction.DateRange{From: &from})
	s.ErrorIs(err, apperr.ErrValidation)
}

func ids(txs []transaction.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}
