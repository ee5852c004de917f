package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/shopspring/decimal"
)

// date is stored as unix nanoseconds so range filters compare integers;
// amount is stored as its decimal string.
const transactionColumns = `id, user_id, name, date, type, amount`

type TransactionsRepo struct {
	s *Store
}

func (r *TransactionsRepo) Create(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	err := r.s.observe("transactions.create", func() error {
		_, e := r.s.db.ExecContext(ctx,
			`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.UserID, t.Name, t.Date.UnixNano(), string(t.Type), t.Amount.String())
		return e
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return transaction.Transaction{}, user.ErrNotFound
		}
		return transaction.Transaction{}, err
	}

	t.Date = t.Date.UTC()
	return t, nil
}

func (r *TransactionsRepo) GetByID(ctx context.Context, id string) (transaction.Transaction, error) {
	return r.getOne(ctx, "transactions.get_by_id", `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
}

func (r *TransactionsRepo) ListByUser(ctx context.Context, userID string, rng transaction.DateRange) ([]transaction.Transaction, error) {
	where, args := userRangeFilter(userID, rng)
	out := make([]transaction.Transaction, 0)

	err := r.s.observe("transactions.list_by_user", func() error {
		rows, err := r.s.db.QueryContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE `+where+` ORDER BY date ASC, id ASC`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TransactionsRepo) Update(ctx context.Context, id string, patch transaction.Patch) (transaction.Transaction, error) {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, patch.Date.UnixNano())
	}
	if patch.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*patch.Type))
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, patch.Amount.String())
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	return r.getOne(ctx, "transactions.update",
		`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+transactionColumns, args...)
}

func (r *TransactionsRepo) Delete(ctx context.Context, id string) (transaction.Transaction, error) {
	return r.getOne(ctx, "transactions.delete", `DELETE FROM transactions WHERE id = ? RETURNING `+transactionColumns, id)
}

// SumByUserAndType adds the amounts in Go; SQLite's SUM would go through
// floating point.
func (r *TransactionsRepo) SumByUserAndType(ctx context.Context, userID string, typ transaction.Type, rng transaction.DateRange) (decimal.Decimal, error) {
	where, args := userRangeFilter(userID, rng)
	args = append(args, string(typ))

	sum := decimal.Zero
	err := r.s.observe("transactions.sum_by_user_and_type", func() error {
		rows, err := r.s.db.QueryContext(ctx, `SELECT amount FROM transactions WHERE `+where+` AND type = ?`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("parse amount %q: %w", raw, err)
			}
			sum = sum.Add(d)
		}
		return rows.Err()
	})

	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *TransactionsRepo) getOne(ctx context.Context, op, query string, args ...any) (transaction.Transaction, error) {
	var t transaction.Transaction

	err := r.s.observe(op, func() error {
		var e error
		t, e = scanTransaction(r.s.db.QueryRowContext(ctx, query, args...))
		return e
	})

	if errors.Is(err, sql.ErrNoRows) {
		return transaction.Transaction{}, transaction.ErrNotFound
	}
	if err != nil {
		return transaction.Transaction{}, err
	}
	return t, nil
}

func userRangeFilter(userID string, rng transaction.DateRange) (string, []any) {
	conds := []string{"user_id = ?"}
	args := []any{userID}

	if rng.From != nil {
		conds = append(conds, "date >= ?")
		args = append(args, rng.From.UnixNano())
	}
	if rng.To != nil {
		conds = append(conds, "date <= ?")
		args = append(args, rng.To.UnixNano())
	}

	return strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (transaction.Transaction, error) {
	var (
		t      transaction.Transaction
		typ    string
		amount string
		nanos  int64
	)

	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &nanos, &typ, &amount); err != nil {
		return transaction.Transaction{}, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}

	t.Date = time.Unix(0, nanos).UTC()
	t.Type = transaction.Type(typ)
	t.Amount = d
	return t, nil
}
