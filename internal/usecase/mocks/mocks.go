package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// MockBookRepository is a mock implementation of BookRepository.
type MockBookRepository struct {
	mu    sync.RWMutex
	books map[string]*domain.Book

	CreateFunc  func(ctx context.Context, tx usecase.Transaction, book *domain.Book) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Book, error)
	TouchFunc   func(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error
}

func NewMockBookRepository() *MockBookRepository {
	return &MockBookRepository{books: make(map[string]*domain.Book)}
}

func (m *MockBookRepository) Create(ctx context.Context, tx usecase.Transaction, book *domain.Book) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, book)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[book.ID] = book
	return nil
}

func (m *MockBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return book, nil
}

func (m *MockBookRepository) Touch(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, tx, id, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if book, ok := m.books[id]; ok {
		book.UpdatedAt = updatedAt
	}
	return nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	mu      sync.RWMutex
	ledgers map[string]*domain.Ledger

	CreateFunc     func(ctx context.Context, tx usecase.Transaction, ledger *domain.Ledger) error
	GetByIDFunc    func(ctx context.Context, id string) (*domain.Ledger, error)
	ListByBookFunc func(ctx context.Context, bookID string) ([]*domain.Ledger, error)
	TouchFunc      func(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{ledgers: make(map[string]*domain.Ledger)}
}

func (m *MockLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, ledger *domain.Ledger) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, ledger)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledgers[ledger.ID] = ledger
	return nil
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id string) (*domain.Ledger, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ledger, ok := m.ledgers[id]
	if !ok {
		return nil, domain.ErrLedgerNotFound
	}
	return ledger, nil
}

func (m *MockLedgerRepository) ListByBook(ctx context.Context, bookID string) ([]*domain.Ledger, error) {
	if m.ListByBookFunc != nil {
		return m.ListByBookFunc(ctx, bookID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Ledger
	for _, ledger := range m.ledgers {
		if ledger.BookID == bookID {
			out = append(out, ledger)
		}
	}
	return out, nil
}

func (m *MockLedgerRepository) Touch(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, tx, id, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ledger, ok := m.ledgers[id]; ok {
		ledger.UpdatedAt = updatedAt
	}
	return nil
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc                func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc     func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	GetByPathFunc             func(ctx context.Context, ledgerID, path string) (*domain.Account, error)
	GetRootFunc               func(ctx context.Context, ledgerID string, accountType domain.AccountType) (*domain.Account, error)
	ListByLedgerFunc          func(ctx context.Context, ledgerID string) ([]*domain.Account, error)
	ListByLedgerForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ledgerID string) ([]*domain.Account, error)
	UpdateFunc                func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	ApplyDeltaFunc            func(ctx context.Context, tx usecase.Transaction, id string, delta int64, updatedAt time.Time) error
	SetBalanceFunc            func(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*domain.Account)}
}

// Seed installs an account into the default map-backed store.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.LedgerID == account.LedgerID && existing.Path == account.Path {
			return domain.ErrDuplicatePath
		}
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if account, ok := m.accounts[id]; ok {
			out = append(out, account)
		}
	}
	return out, nil
}

func (m *MockAccountRepository) GetByPath(ctx context.Context, ledgerID, path string) (*domain.Account, error) {
	if m.GetByPathFunc != nil {
		return m.GetByPathFunc(ctx, ledgerID, path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, account := range m.accounts {
		if account.LedgerID == ledgerID && account.Path == path {
			return account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetRoot(ctx context.Context, ledgerID string, accountType domain.AccountType) (*domain.Account, error) {
	if m.GetRootFunc != nil {
		return m.GetRootFunc(ctx, ledgerID, accountType)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, account := range m.accounts {
		if account.LedgerID == ledgerID && account.Type == accountType && account.IsRoot() {
			return account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) ListByLedger(ctx context.Context, ledgerID string) ([]*domain.Account, error) {
	if m.ListByLedgerFunc != nil {
		return m.ListByLedgerFunc(ctx, ledgerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Account
	for _, account := range m.accounts {
		if account.LedgerID == ledgerID {
			out = append(out, account)
		}
	}
	return out, nil
}

func (m *MockAccountRepository) ListByLedgerForUpdate(ctx context.Context, tx usecase.Transaction, ledgerID string) ([]*domain.Account, error) {
	if m.ListByLedgerForUpdateFunc != nil {
		return m.ListByLedgerForUpdateFunc(ctx, tx, ledgerID)
	}
	return m.ListByLedger(ctx, ledgerID)
}

func (m *MockAccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta int64, updatedAt time.Time) error {
	if m.ApplyDeltaFunc != nil {
		return m.ApplyDeltaFunc(ctx, tx, id, delta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Balance += delta
	account.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) SetBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	if m.SetBalanceFunc != nil {
		return m.SetBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Balance = balance
	account.UpdatedAt = updatedAt
	return nil
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.Entry

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Entry, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	MarkDeletedFunc      func(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time, version int64) error
	ListByLedgerFunc     func(ctx context.Context, ledgerID string, filter domain.EntryFilter) ([]*domain.Entry, error)
	ListForReplayFunc    func(ctx context.Context, tx usecase.Transaction, ledgerID string, asOf *domain.Date) ([]*domain.Entry, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{entries: make(map[string]*domain.Entry)}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return entry, nil
}

func (m *MockEntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockEntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return domain.ErrEntryNotFound
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockEntryRepository) MarkDeleted(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time, version int64) error {
	if m.MarkDeletedFunc != nil {
		return m.MarkDeletedFunc(ctx, tx, id, deletedAt, version)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}
	at := deletedAt
	entry.DeletedAt = &at
	entry.Version = version
	entry.UpdatedAt = deletedAt
	return nil
}

func (m *MockEntryRepository) ListByLedger(ctx context.Context, ledgerID string, filter domain.EntryFilter) ([]*domain.Entry, error) {
	if m.ListByLedgerFunc != nil {
		return m.ListByLedgerFunc(ctx, ledgerID, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, entry := range m.entries {
		if entry.LedgerID == ledgerID && filter.Matches(entry) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *MockEntryRepository) ListForReplay(ctx context.Context, tx usecase.Transaction, ledgerID string, asOf *domain.Date) ([]*domain.Entry, error) {
	if m.ListForReplayFunc != nil {
		return m.ListForReplayFunc(ctx, tx, ledgerID, asOf)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, entry := range m.entries {
		if entry.LedgerID != ledgerID || entry.Deleted() {
			continue
		}
		if asOf != nil && entry.Date.After(*asOf) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// MockRevisionRepository is a mock implementation of RevisionRepository.
type MockRevisionRepository struct {
	mu        sync.RWMutex
	revisions []*domain.EntryRevision

	CreateFunc      func(ctx context.Context, tx usecase.Transaction, revision *domain.EntryRevision) error
	ListByEntryFunc func(ctx context.Context, entryID string) ([]*domain.EntryRevision, error)
}

func NewMockRevisionRepository() *MockRevisionRepository {
	return &MockRevisionRepository{}
}

func (m *MockRevisionRepository) Create(ctx context.Context, tx usecase.Transaction, revision *domain.EntryRevision) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, revision)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revisions = append(m.revisions, revision)
	return nil
}

func (m *MockRevisionRepository) ListByEntry(ctx context.Context, entryID string) ([]*domain.EntryRevision, error) {
	if m.ListByEntryFunc != nil {
		return m.ListByEntryFunc(ctx, entryID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.EntryRevision
	for _, revision := range m.revisions {
		if revision.EntryID == entryID {
			out = append(out, revision)
		}
	}
	return out, nil
}

// MockMemberRepository is a mock implementation of MemberRepository.
type MockMemberRepository struct {
	mu      sync.RWMutex
	members map[string]*domain.Member

	CreateFunc     func(ctx context.Context, tx usecase.Transaction, member *domain.Member) error
	GetFunc        func(ctx context.Context, bookID, actorID string) (*domain.Member, error)
	ListByBookFunc func(ctx context.Context, bookID string) ([]*domain.Member, error)
}

func NewMockMemberRepository() *MockMemberRepository {
	return &MockMemberRepository{members: make(map[string]*domain.Member)}
}

func memberKey(bookID, actorID string) string {
	return bookID + "/" + actorID
}

func (m *MockMemberRepository) Create(ctx context.Context, tx usecase.Transaction, member *domain.Member) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, member)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[memberKey(member.BookID, member.ActorID)] = member
	return nil
}

func (m *MockMemberRepository) Get(ctx context.Context, bookID, actorID string) (*domain.Member, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, bookID, actorID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	member, ok := m.members[memberKey(bookID, actorID)]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return member, nil
}

func (m *MockMemberRepository) ListByBook(ctx context.Context, bookID string) ([]*domain.Member, error) {
	if m.ListByBookFunc != nil {
		return m.ListByBookFunc(ctx, bookID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Member
	for _, member := range m.members {
		if member.BookID == bookID {
			out = append(out, member)
		}
	}
	return out, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	Last *MockTransaction
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.Last = &MockTransaction{}
	return m.Last, nil
}

// MockIDGenerator returns sequential IDs for deterministic tests.
type MockIDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func NewMockIDGenerator(prefix string) *MockIDGenerator {
	return &MockIDGenerator{prefix: prefix}
}

func (m *MockIDGenerator) Generate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("%s-%07d", m.prefix, m.next)
}
