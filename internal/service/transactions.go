package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/finledger/internal/apperr"
	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/domain/user"
)

// TransactionLedger creates, updates, deletes and lists transactions.
// Only the owning user may update or delete a transaction.
//
// Update and delete load, check the owner, then write, with no version
// check: two concurrent updates of the same transaction are last-write-wins.
type TransactionLedger struct {
	txs   TransactionStore
	users UserStore
	ids   IDGenerator
	log   *slog.Logger
}

func NewTransactionLedger(txs TransactionStore, users UserStore, ids IDGenerator, log *slog.Logger) *TransactionLedger {
	return &TransactionLedger{
		txs:   txs,
		users: users,
		ids:   ids,
		log:   loggerOrDefault(log),
	}
}

func (l *TransactionLedger) Create(ctx context.Context, params transaction.CreateParams) (transaction.Transaction, error) {
	if err := l.ensureUser(ctx, params.UserID); err != nil {
		return transaction.Transaction{}, err
	}

	// shape is validated upstream; reaching here with bad data is a bug
	if err := transaction.Check(params.Name, params.Type, params.Amount); err != nil {
		return transaction.Transaction{}, internalError(ctx, l.log, "transactions.create.check", err,
			"user_id", params.UserID, "amount", params.Amount.String(), "type", string(params.Type))
	}

	t := transaction.Transaction{
		ID:     l.ids.NewID(),
		UserID: params.UserID,
		Name:   params.Name,
		Date:   params.Date,
		Type:   params.Type,
		Amount: params.Amount,
	}

	created, err := l.txs.Create(ctx, t)
	if err != nil {
		// the user was deleted after ensureUser
		if errors.Is(err, user.ErrNotFound) {
			return transaction.Transaction{}, apperr.UserNotFound(params.UserID)
		}
		return transaction.Transaction{}, internalError(ctx, l.log, "transactions.create", err,
			"user_id", params.UserID, "transaction_id", t.ID)
	}

	return created, nil
}

func (l *TransactionLedger) Update(ctx context.Context, transactionID, requesterID string, patch transaction.Patch) (transaction.Transaction, error) {
	existing, err := l.loadOwned(ctx, transactionID, requesterID)
	if err != nil {
		return transaction.Transaction{}, err
	}

	if patch.IsEmpty() {
		return transaction.Transaction{}, apperr.Validation("at least one field must be provided for update")
	}

	merged := patch.Apply(existing)
	if err := transaction.Check(merged.Name, merged.Type, merged.Amount); err != nil {
		return transaction.Transaction{}, internalError(ctx, l.log, "transactions.update.check", err,
			"transaction_id", transactionID)
	}

	updated, err := l.txs.Update(ctx, transactionID, patch)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			return transaction.Transaction{}, apperr.TransactionNotFound(transactionID)
		}
		return transaction.Transaction{}, internalError(ctx, l.log, "transactions.update", err,
			"transaction_id", transactionID)
	}

	return updated, nil
}

func (l *TransactionLedger) Delete(ctx context.Context, transactionID, requesterID string) (transaction.Transaction, error) {
	if _, err := l.loadOwned(ctx, transactionID, requesterID); err != nil {
		return transaction.Transaction{}, err
	}

	deleted, err := l.txs.Delete(ctx, transactionID)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			return transaction.Transaction{}, apperr.TransactionNotFound(transactionID)
		}
		return transaction.Transaction{}, internalError(ctx, l.log, "transactions.delete", err,
			"transaction_id", transactionID)
	}

	return deleted, nil
}

// ListByUser returns the user's transactions ordered by date, then id.
// A non-zero range filters inclusively on both ends.
func (l *TransactionLedger) ListByUser(ctx context.Context, userID string, r transaction.DateRange) ([]transaction.Transaction, error) {
	if err := r.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if err := l.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	txs, err := l.txs.ListByUser(ctx, userID, r)
	if err != nil {
		return nil, internalError(ctx, l.log, "transactions.list_by_user", err, "user_id", userID)
	}

	if txs == nil {
		txs = []transaction.Transaction{}
	}

	return txs, nil
}

func (l *TransactionLedger) loadOwned(ctx context.Context, transactionID, requesterID string) (transaction.Transaction, error) {
	t, err := l.txs.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			return transaction.Transaction{}, apperr.TransactionNotFound(transactionID)
		}
		return transaction.Transaction{}, internalError(ctx, l.log, "transactions.get_by_id", err,
			"transaction_id", transactionID)
	}

	if err := requireOwner(t.UserID, requesterID); err != nil {
		return transaction.Transaction{}, err
	}

	return t, nil
}

func (l *TransactionLedger) ensureUser(ctx context.Context, userID string) error {
	return ensureUserExists(ctx, l.users, l.log, userID)
}

func ensureUserExists(ctx context.Context, users UserStore, log *slog.Logger, userID string) error {
	_, err := users.GetByID(ctx, userID)
	if err == nil {
		return nil
	}

	if errors.Is(err, user.ErrNotFound) {
		return apperr.UserNotFound(userID)
	}

	return internalError(ctx, log, "users.get_by_id", err, "user_id", userID)
}
