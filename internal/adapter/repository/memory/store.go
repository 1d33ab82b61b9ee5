// Package memory provides an in-memory backing store with transactional
// semantics. It serves demo mode and the test suite; the postgres adapter is
// the production store.
package memory

import (
	"sync"

	"github.com/iho/bookkeeper/internal/domain"
)

// Store holds all records behind one mutex. A transaction owns the mutex for
// its whole lifetime, so transactions serialize; plain reads block while one
// is open. Repositories must therefore never do plain reads inside a
// transaction.
type Store struct {
	mu        sync.Mutex
	books     map[string]*domain.Book
	ledgers   map[string]*domain.Ledger
	accounts  map[string]*domain.Account
	entries   map[string]*domain.Entry
	revisions map[string][]*domain.EntryRevision
	members   map[string]*domain.Member
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		books:     make(map[string]*domain.Book),
		ledgers:   make(map[string]*domain.Ledger),
		accounts:  make(map[string]*domain.Account),
		entries:   make(map[string]*domain.Entry),
		revisions: make(map[string][]*domain.EntryRevision),
		members:   make(map[string]*domain.Member),
	}
}

func memberKey(bookID, actorID string) string {
	return bookID + "/" + actorID
}

func cloneBook(b *domain.Book) *domain.Book {
	out := *b
	return &out
}

func cloneLedger(l *domain.Ledger) *domain.Ledger {
	out := *l
	return &out
}

func cloneAccount(a *domain.Account) *domain.Account {
	out := *a
	return &out
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	out := *e
	out.Lines = make([]domain.EntryLine, len(e.Lines))
	copy(out.Lines, e.Lines)
	if e.Tags != nil {
		out.Tags = make([]string, len(e.Tags))
		copy(out.Tags, e.Tags)
	}
	if e.DeletedAt != nil {
		at := *e.DeletedAt
		out.DeletedAt = &at
	}
	return &out
}

func cloneRevision(r *domain.EntryRevision) *domain.EntryRevision {
	out := *r
	out.Snapshot = *cloneEntry(&r.Snapshot)
	return &out
}

func cloneMember(m *domain.Member) *domain.Member {
	out := *m
	return &out
}
