package memory

import (
	"context"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// BookRepository implements usecase.BookRepository.
type BookRepository struct {
	store *Store
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(store *Store) *BookRepository {
	return &BookRepository{store: store}
}

func (r *BookRepository) Create(ctx context.Context, txn usecase.Transaction, book *domain.Book) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	id := book.ID
	r.store.books[id] = cloneBook(book)
	tx.onRollback(func() { delete(r.store.books, id) })
	return nil
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	book, ok := r.store.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return cloneBook(book), nil
}

func (r *BookRepository) Touch(ctx context.Context, txn usecase.Transaction, id string, updatedAt time.Time) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	book, ok := r.store.books[id]
	if !ok {
		return domain.ErrBookNotFound
	}

	prev := book.UpdatedAt
	book.UpdatedAt = updatedAt
	tx.onRollback(func() { book.UpdatedAt = prev })
	return nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

func (r *LedgerRepository) Create(ctx context.Context, txn usecase.Transaction, ledger *domain.Ledger) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	id := ledger.ID
	r.store.ledgers[id] = cloneLedger(ledger)
	tx.onRollback(func() { delete(r.store.ledgers, id) })
	return nil
}

func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*domain.Ledger, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ledger, ok := r.store.ledgers[id]
	if !ok {
		return nil, domain.ErrLedgerNotFound
	}
	return cloneLedger(ledger), nil
}

func (r *LedgerRepository) ListByBook(ctx context.Context, bookID string) ([]*domain.Ledger, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.Ledger
	for _, ledger := range r.store.ledgers {
		if ledger.BookID == bookID {
			out = append(out, cloneLedger(ledger))
		}
	}
	return out, nil
}

func (r *LedgerRepository) Touch(ctx context.Context, txn usecase.Transaction, id string, updatedAt time.Time) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	ledger, ok := r.store.ledgers[id]
	if !ok {
		return domain.ErrLedgerNotFound
	}

	prev := ledger.UpdatedAt
	ledger.UpdatedAt = updatedAt
	tx.onRollback(func() { ledger.UpdatedAt = prev })
	return nil
}
