package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/geocoder89/finledger/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// amount is read as text so no precision is lost on the way to decimal.Decimal.
const transactionColumns = `id, user_id, name, date, type, amount::text`

type TransactionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTransactionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *TransactionsRepo {
	return &TransactionsRepo{pool: pool, prom: prom}
}

func (r *TransactionsRepo) observe(op string, fn func() error) error {
	return observe(r.prom, op, fn)
}

func (r *TransactionsRepo) Create(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	var out transaction.Transaction

	err := r.observe("transactions.create", func() error {
		return scanTransaction(r.pool.QueryRow(ctx, `
			INSERT INTO transactions (id, user_id, name, date, type, amount)
			VALUES ($1, $2, $3, $4, $5, $6::numeric)
			RETURNING `+transactionColumns,
			t.ID, t.UserID, t.Name, t.Date, string(t.Type), t.Amount.String()), &out)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return transaction.Transaction{}, user.ErrNotFound
		}
		return transaction.Transaction{}, err
	}

	return out, nil
}

func (r *TransactionsRepo) GetByID(ctx context.Context, id string) (transaction.Transaction, error) {
	if uuid.Validate(id) != nil {
		return transaction.Transaction{}, transaction.ErrNotFound
	}

	var t transaction.Transaction
	err := r.observe("transactions.get_by_id", func() error {
		return scanTransaction(r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id), &t)
	})

	return t, mapTransactionErr(err)
}

func (r *TransactionsRepo) ListByUser(ctx context.Context, userID string, rng transaction.DateRange) ([]transaction.Transaction, error) {
	out := make([]transaction.Transaction, 0)
	if uuid.Validate(userID) != nil {
		return out, nil
	}

	where, args := userRangeFilter(userID, rng)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where + ` ORDER BY date ASC, id ASC`

	err := r.observe("transactions.list_by_user", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t transaction.Transaction
			if err := scanTransaction(rows, &t); err != nil {
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
	if uuid.Validate(id) != nil {
		return transaction.Transaction{}, transaction.ErrNotFound
	}

	var typ, amount *string
	if patch.Type != nil {
		s := string(*patch.Type)
		typ = &s
	}
	if patch.Amount != nil {
		s := patch.Amount.String()
		amount = &s
	}

	var t transaction.Transaction
	err := r.observe("transactions.update", func() error {
		return scanTransaction(r.pool.QueryRow(ctx, `
			UPDATE transactions SET
				name   = COALESCE($2, name),
				date   = COALESCE($3, date),
				type   = COALESCE($4, type),
				amount = COALESCE($5::numeric, amount)
			WHERE id = $1
			RETURNING `+transactionColumns,
			id, patch.Name, patch.Date, typ, amount), &t)
	})

	return t, mapTransactionErr(err)
}

func (r *TransactionsRepo) Delete(ctx context.Context, id string) (transaction.Transaction, error) {
	if uuid.Validate(id) != nil {
		return transaction.Transaction{}, transaction.ErrNotFound
	}

	var t transaction.Transaction
	err := r.observe("transactions.delete", func() error {
		return scanTransaction(r.pool.QueryRow(ctx, `DELETE FROM transactions WHERE id = $1 RETURNING `+transactionColumns, id), &t)
	})

	return t, mapTransactionErr(err)
}

func (r *TransactionsRepo) SumByUserAndType(ctx context.Context, userID string, typ transaction.Type, rng transaction.DateRange) (decimal.Decimal, error) {
	if uuid.Validate(userID) != nil {
		return decimal.Zero, nil
	}

	where, args := userRangeFilter(userID, rng)
	args = append(args, string(typ))
	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0)::text FROM transactions WHERE %s AND type = $%d`, where, len(args))

	var raw string
	err := r.observe("transactions.sum_by_user_and_type", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(&raw)
	})
	if err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromString(raw)
}

// userRangeFilter builds the WHERE clause shared by list and sum. Placeholders
// start at $1.
func userRangeFilter(userID string, rng transaction.DateRange) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	if rng.From != nil {
		args = append(args, *rng.From)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if rng.To != nil {
		args = append(args, *rng.To)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

func scanTransaction(row pgx.Row, t *transaction.Transaction) error {
	var (
		typ    string
		amount string
		date   time.Time
	)

	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &date, &typ, &amount); err != nil {
		return err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", amount, err)
	}

	t.Date = date.UTC()
	t.Type = transaction.Type(typ)
	t.Amount = d
	return nil
}

func mapTransactionErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return transaction.ErrNotFound
	}
	return err
}
