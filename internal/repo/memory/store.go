package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/shopspring/decimal"
)

// Store keeps users and transactions in maps behind one lock, so deleting a
// user and its transactions is atomic like the SQL cascade.
type Store struct {
	mu    sync.RWMutex
	users map[string]user.User
	txs   map[string]transaction.Transaction
}

func New() *Store {
	return &Store{
		users: make(map[string]user.User),
		txs:   make(map[string]transaction.Transaction),
	}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) Transactions() *TransactionsRepo {
	return &TransactionsRepo{s: s}
}

func (s *Store) Ping(context.Context) error {
	return nil
}

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.emailOwnerLocked(u.Email) != "" {
		return user.User{}, user.ErrEmailTaken
	}

	r.s.users[u.ID] = u
	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id := r.s.emailOwnerLocked(email)
	if id == "" {
		return user.User{}, user.ErrNotFound
	}
	return r.s.users[id], nil
}

func (r *UsersRepo) Update(_ context.Context, id string, patch user.Patch) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if patch.Email != nil {
		if owner := r.s.emailOwnerLocked(*patch.Email); owner != "" && owner != id {
			return user.User{}, user.ErrEmailTaken
		}
	}

	u = patch.Apply(u)
	r.s.users[id] = u
	return u, nil
}

// Delete removes the user together with every transaction it owns.
func (r *UsersRepo) Delete(_ context.Context, id string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	delete(r.s.users, id)
	for txID, t := range r.s.txs {
		if t.UserID == id {
			delete(r.s.txs, txID)
		}
	}
	return u, nil
}

func (s *Store) emailOwnerLocked(email string) string {
	for id, u := range s.users {
		if u.Email == email {
			return id
		}
	}
	return ""
}

type TransactionsRepo struct {
	s *Store
}

func (r *TransactionsRepo) Create(_ context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[t.UserID]; !ok {
		return transaction.Transaction{}, user.ErrNotFound
	}

	r.s.txs[t.ID] = t
	return t, nil
}

func (r *TransactionsRepo) GetByID(_ context.Context, id string) (transaction.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.txs[id]
	if !ok {
		return transaction.Transaction{}, transaction.ErrNotFound
	}
	return t, nil
}

func (r *TransactionsRepo) ListByUser(_ context.Context, userID string, rng transaction.DateRange) ([]transaction.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]transaction.Transaction, 0)
	for _, t := range r.s.txs {
		if t.UserID == userID && rng.Contains(t.Date) {
			out = append(out, t)
		}
	}

	slices.SortFunc(out, func(a, b transaction.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return out, nil
}

func (r *TransactionsRepo) Update(_ context.Context, id string, patch transaction.Patch) (transaction.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.txs[id]
	if !ok {
		return transaction.Transaction{}, transaction.ErrNotFound
	}

	t = patch.Apply(t)
	r.s.txs[id] = t
	return t, nil
}

func (r *TransactionsRepo) Delete(_ context.Context, id string) (transaction.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.txs[id]
	if !ok {
		return transaction.Transaction{}, transaction.ErrNotFound
	}

	delete(r.s.txs, id)
	return t, nil
}

func (r *TransactionsRepo) SumByUserAndType(_ context.Context, userID string, typ transaction.Type, rng transaction.DateRange) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sum := decimal.Zero
	for _, t := range r.s.txs {
		if t.UserID == userID && t.Type == typ && rng.Contains(t.Date) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}
