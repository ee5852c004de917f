package service

import (
	"context"
	"log/slog"

	"github.com/geocoder89/finledger/internal/apperr"
	"github.com/geocoder89/finledger/internal/domain/balance"
	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/geocoder89/finledger/internal/service")

// BalanceAggregator computes a user's balance snapshot from the three
// per-type sums. It never writes.
type BalanceAggregator struct {
	txs   TransactionStore
	users UserStore
	log   *slog.Logger
}

func NewBalanceAggregator(txs TransactionStore, users UserStore, log *slog.Logger) *BalanceAggregator {
	return &BalanceAggregator{
		txs:   txs,
		users: users,
		log:   loggerOrDefault(log),
	}
}

// Execute sums the user's earnings, expenses and investments, optionally
// limited to r, and derives balance and percentages from them.
func (a *BalanceAggregator) Execute(ctx context.Context, userID string, r transaction.DateRange) (balance.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "BalanceAggregator.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Bool("range.bounded", !r.IsZero()),
	)

	if err := r.Validate(); err != nil {
		return balance.Snapshot{}, apperr.Validation(err.Error())
	}

	if err := ensureUserExists(ctx, a.users, a.log, userID); err != nil {
		return balance.Snapshot{}, err
	}

	var earnings, expenses, investments decimal.Decimal

	// the three sums are independent reads; a concurrent write may land
	// between them, which is acceptable for a read-only summary
	g, gctx := errgroup.WithContext(ctx)
	sums := []struct {
		typ transaction.Type
		dst *decimal.Decimal
	}{
		{transaction.TypeEarning, &earnings},
		{transaction.TypeExpense, &expenses},
		{transaction.TypeInvestment, &investments},
	}
	for _, s := range sums {
		s := s
		g.Go(func() error {
			sum, err := a.txs.SumByUserAndType(gctx, userID, s.typ, r)
			if err != nil {
				return err
			}
			*s.dst = sum
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sum by type")
		return balance.Snapshot{}, internalError(ctx, a.log, "balance.sum_by_type", err, "user_id", userID)
	}

	return balance.NewSnapshot(earnings, expenses, investments), nil
}
