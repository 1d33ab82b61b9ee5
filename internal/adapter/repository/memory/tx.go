package memory

import (
	"context"
	"errors"

	"github.com/iho/bookkeeper/internal/usecase"
)

var (
	errInvalidTx = errors.New("memory: transaction does not belong to this store")
	errTxDone    = errors.New("memory: transaction already finished")
)

// TxManager implements usecase.TransactionManager over a Store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin acquires the store mutex. The returned transaction holds it until
// Commit or Rollback.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	m.store.mu.Lock()
	return &Tx{store: m.store}, nil
}

// Tx is an in-memory transaction. Mutations record undo steps; Rollback
// replays them in reverse so a failed mutation leaves no partial state.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit makes the transaction's writes permanent and releases the store.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

// Rollback reverts all writes of the transaction and releases the store.
// Safe to call after Commit; it then does nothing.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

// tx asserts that a usecase.Transaction is a live transaction of this store.
func (s *Store) tx(t usecase.Transaction) (*Tx, error) {
	tx, ok := t.(*Tx)
	if !ok || tx.store != s {
		return nil, errInvalidTx
	}
	if tx.done {
		return nil, errTxDone
	}
	return tx, nil
}
