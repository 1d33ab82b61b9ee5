package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Create(ctx context.Context, txn usecase.Transaction, account *domain.Account) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	for _, existing := range r.store.accounts {
		if existing.LedgerID == account.LedgerID && existing.Path == account.Path {
			return domain.ErrDuplicatePath
		}
	}

	id := account.ID
	r.store.accounts[id] = cloneAccount(account)
	tx.onRollback(func() { delete(r.store.accounts, id) })
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.getLocked(id)
}

func (r *AccountRepository) getLocked(id string) (*domain.Account, error) {
	account, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, txn usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if _, err := r.store.tx(txn); err != nil {
		return nil, err
	}

	out := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if account, ok := r.store.accounts[id]; ok {
			out = append(out, cloneAccount(account))
		}
	}
	return out, nil
}

func (r *AccountRepository) GetByPath(ctx context.Context, ledgerID, path string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, account := range r.store.accounts {
		if account.LedgerID == ledgerID && account.Path == path {
			return cloneAccount(account), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *AccountRepository) GetRoot(ctx context.Context, ledgerID string, accountType domain.AccountType) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, account := range r.store.accounts {
		if account.LedgerID == ledgerID && account.Type == accountType && account.IsRoot() {
			return cloneAccount(account), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *AccountRepository) ListByLedger(ctx context.Context, ledgerID string) ([]*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.listLocked(ledgerID), nil
}

func (r *AccountRepository) ListByLedgerForUpdate(ctx context.Context, txn usecase.Transaction, ledgerID string) ([]*domain.Account, error) {
	if _, err := r.store.tx(txn); err != nil {
		return nil, err
	}
	return r.listLocked(ledgerID), nil
}

func (r *AccountRepository) listLocked(ledgerID string) []*domain.Account {
	var out []*domain.Account
	for _, account := range r.store.accounts {
		if account.LedgerID == ledgerID {
			out = append(out, cloneAccount(account))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (r *AccountRepository) Update(ctx context.Context, txn usecase.Transaction, account *domain.Account) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	current, ok := r.store.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}

	for _, existing := range r.store.accounts {
		if existing.ID != account.ID && existing.LedgerID == account.LedgerID && existing.Path == account.Path {
			return domain.ErrDuplicatePath
		}
	}

	id := account.ID
	prev := current
	r.store.accounts[id] = cloneAccount(account)
	tx.onRollback(func() { r.store.accounts[id] = prev })
	return nil
}

func (r *AccountRepository) ApplyDelta(ctx context.Context, txn usecase.Transaction, id string, delta int64, updatedAt time.Time) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	account, ok := r.store.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	prevUpdated := account.UpdatedAt
	account.Balance += delta
	account.UpdatedAt = updatedAt
	tx.onRollback(func() {
		account.Balance -= delta
		account.UpdatedAt = prevUpdated
	})
	return nil
}

func (r *AccountRepository) SetBalance(ctx context.Context, txn usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	account, ok := r.store.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	prevBalance := account.Balance
	prevUpdated := account.UpdatedAt
	account.Balance = balance
	account.UpdatedAt = updatedAt
	tx.onRollback(func() {
		account.Balance = prevBalance
		account.UpdatedAt = prevUpdated
	})
	return nil
}
