package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

func (r *EntryRepository) Create(ctx context.Context, txn usecase.Transaction, entry *domain.Entry) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	id := entry.ID
	r.store.entries[id] = cloneEntry(entry)
	tx.onRollback(func() { delete(r.store.entries, id) })
	return nil
}

func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	entry, ok := r.store.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return cloneEntry(entry), nil
}

func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, txn usecase.Transaction, id string) (*domain.Entry, error) {
	if _, err := r.store.tx(txn); err != nil {
		return nil, err
	}

	entry, ok := r.store.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return cloneEntry(entry), nil
}

func (r *EntryRepository) Update(ctx context.Context, txn usecase.Transaction, entry *domain.Entry) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	prev, ok := r.store.entries[entry.ID]
	if !ok {
		return domain.ErrEntryNotFound
	}

	id := entry.ID
	r.store.entries[id] = cloneEntry(entry)
	tx.onRollback(func() { r.store.entries[id] = prev })
	return nil
}

func (r *EntryRepository) MarkDeleted(ctx context.Context, txn usecase.Transaction, id string, deletedAt time.Time, version int64) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	entry, ok := r.store.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}

	prev := cloneEntry(entry)
	at := deletedAt
	entry.DeletedAt = &at
	entry.Version = version
	entry.UpdatedAt = deletedAt
	tx.onRollback(func() { r.store.entries[id] = prev })
	return nil
}

func (r *EntryRepository) ListByLedger(ctx context.Context, ledgerID string, filter domain.EntryFilter) ([]*domain.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.Entry
	for _, entry := range r.store.entries {
		if entry.LedgerID == ledgerID && filter.Matches(entry) {
			out = append(out, cloneEntry(entry))
		}
	}

	// Newest first; replay order reversed.
	sort.Slice(out, func(i, j int) bool { return replayLess(out[j], out[i]) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *EntryRepository) ListForReplay(ctx context.Context, txn usecase.Transaction, ledgerID string, asOf *domain.Date) ([]*domain.Entry, error) {
	if txn != nil {
		if _, err := r.store.tx(txn); err != nil {
			return nil, err
		}
	} else {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}

	var out []*domain.Entry
	for _, entry := range r.store.entries {
		if entry.LedgerID != ledgerID || entry.Deleted() {
			continue
		}
		if asOf != nil && entry.Date.After(*asOf) {
			continue
		}
		out = append(out, cloneEntry(entry))
	}

	sort.Slice(out, func(i, j int) bool { return replayLess(out[i], out[j]) })
	return out, nil
}

// replayLess orders entries by (date, createdAt, id) ascending. The id is a
// ULID, so it breaks ties in creation order.
func replayLess(a, b *domain.Entry) bool {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c < 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
