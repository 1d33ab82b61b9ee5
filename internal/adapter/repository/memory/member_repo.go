package memory

import (
	"context"
	"sort"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// MemberRepository implements usecase.MemberRepository.
type MemberRepository struct {
	store *Store
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(store *Store) *MemberRepository {
	return &MemberRepository{store: store}
}

func (r *MemberRepository) Create(ctx context.Context, txn usecase.Transaction, member *domain.Member) error {
	tx, err := r.store.tx(txn)
	if err != nil {
		return err
	}

	key := memberKey(member.BookID, member.ActorID)
	prev, existed := r.store.members[key]
	r.store.members[key] = cloneMember(member)
	tx.onRollback(func() {
		if existed {
			r.store.members[key] = prev
		} else {
			delete(r.store.members, key)
		}
	})
	return nil
}

func (r *MemberRepository) Get(ctx context.Context, bookID, actorID string) (*domain.Member, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	member, ok := r.store.members[memberKey(bookID, actorID)]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return cloneMember(member), nil
}

func (r *MemberRepository) ListByBook(ctx context.Context, bookID string) ([]*domain.Member, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*domain.Member
	for _, member := range r.store.members {
		if member.BookID == bookID {
			out = append(out, cloneMember(member))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	return out, nil
}
