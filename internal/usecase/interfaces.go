package usecase

import (
	"context"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
)

// BookRepository defines data access for books.
type BookRepository interface {
	Create(ctx context.Context, tx Transaction, book *domain.Book) error
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	Touch(ctx context.Context, tx Transaction, id string, updatedAt time.Time) error
}

// LedgerRepository defines data access for ledgers.
type LedgerRepository interface {
	Create(ctx context.Context, tx Transaction, ledger *domain.Ledger) error
	GetByID(ctx context.Context, id string) (*domain.Ledger, error)
	ListByBook(ctx context.Context, bookID string) ([]*domain.Ledger, error)
	Touch(ctx context.Context, tx Transaction, id string, updatedAt time.Time) error
}

// AccountRepository defines data access for the chart of accounts.
//
// ApplyDelta and SetBalance are the only balance mutation primitives; they are
// called exclusively from inside a mutation or rebuild transaction.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	GetByPath(ctx context.Context, ledgerID, path string) (*domain.Account, error)
	GetRoot(ctx context.Context, ledgerID string, accountType domain.AccountType) (*domain.Account, error)
	ListByLedger(ctx context.Context, ledgerID string) ([]*domain.Account, error)
	ListByLedgerForUpdate(ctx context.Context, tx Transaction, ledgerID string) ([]*domain.Account, error)
	Update(ctx context.Context, tx Transaction, account *domain.Account) error
	ApplyDelta(ctx context.Context, tx Transaction, id string, delta int64, updatedAt time.Time) error
	SetBalance(ctx context.Context, tx Transaction, id string, balance int64, updatedAt time.Time) error
}

// EntryRepository defines data access for the entry log. Entries persist and
// load together with their lines; lines are never written independently.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Entry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.Entry) error
	MarkDeleted(ctx context.Context, tx Transaction, id string, deletedAt time.Time, version int64) error
	ListByLedger(ctx context.Context, ledgerID string, filter domain.EntryFilter) ([]*domain.Entry, error)
	// ListForReplay returns non-deleted entries in replay order: ascending
	// (date, createdAt, id). A nil asOf replays the full log; tx may be nil
	// for a plain read.
	ListForReplay(ctx context.Context, tx Transaction, ledgerID string, asOf *domain.Date) ([]*domain.Entry, error)
}

// RevisionRepository defines data access for entry revision snapshots.
type RevisionRepository interface {
	Create(ctx context.Context, tx Transaction, revision *domain.EntryRevision) error
	ListByEntry(ctx context.Context, entryID string) ([]*domain.EntryRevision, error)
}

// MemberRepository defines data access for book membership.
type MemberRepository interface {
	Create(ctx context.Context, tx Transaction, member *domain.Member) error
	Get(ctx context.Context, bookID, actorID string) (*domain.Member, error)
	ListByBook(ctx context.Context, bookID string) ([]*domain.Member, error)
}

// Transaction represents a backing-store transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs a transactional operation after transient storage
// failures such as deadlocks. Permanent errors pass through unchanged.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs. Generated IDs must sort by creation time;
// they are the stable tie-break when replaying entries of the same day.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations for derived report data.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyProcessing is the placeholder stored for a claimed idempotency
// key whose final response has not been recorded yet.
const IdempotencyProcessing = "processing"

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
