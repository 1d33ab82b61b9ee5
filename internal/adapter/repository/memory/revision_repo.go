package memory

import (
	"context"
	"sort"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// RevisionRepository implements usecase.RevisionRepository.
type RevisionRepository struct {
	store *Store
}

// NewRevisionRepository creates a new RevisionRepository.
func NewRevisionRepository(store *Store) *RevisionRepository {
	return &RevisionRepository{store: store}
}

func (r *RevisionRepository) Create(ctx context.Context, txn usecase.Transaction, revision *domain.EntryRevision) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	entryID := revision.EntryID
	r.store.revisions[entryID] = append(r.store.revisions[entryID], cloneRevision(revision))
	tx.onRollback(func() {
		list := r.store.revisions[entryID]
		r.store.revisions[entryID] = list[:len(list)-1]
	})
	return nil
}

func (r *RevisionRepository) ListByEntry(ctx context.Context, entryID string) ([]*domain.EntryRevision, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	list := r.store.revisions[entryID]
	out := make([]*domain.EntryRevision, 0, len(list))
	for _, revision := range list {
		out = append(out, cloneRevision(revision))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
