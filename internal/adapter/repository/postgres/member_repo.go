package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// MemberRepository implements usecase.MemberRepository.
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// Create inserts a membership, replacing the role on re-invite.
func (r *MemberRepository) Create(ctx context.Context, tx usecase.Transaction, member *domain.Member) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO members (book_id, actor_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (book_id, actor_id) DO UPDATE SET role = EXCLUDED.role`,
		member.BookID, member.ActorID, member.Role, member.CreatedAt,
	)

	return err
}

// Get retrieves one membership.
func (r *MemberRepository) Get(ctx context.Context, bookID, actorID string) (*domain.Member, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT book_id, actor_id, role, created_at
		FROM members WHERE book_id = $1 AND actor_id = $2`, bookID, actorID)

	var member domain.Member

	err := row.Scan(&member.BookID, &member.ActorID, &member.Role, &member.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}

		return nil, err
	}

	return &member, nil
}

// ListByBook lists the members of a book.
func (r *MemberRepository) ListByBook(ctx context.Context, bookID string) ([]*domain.Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT book_id, actor_id, role, created_at
		FROM members WHERE book_id = $1 ORDER BY created_at, actor_id`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.Member

	for rows.Next() {
		var member domain.Member

		err := rows.Scan(&member.BookID, &member.ActorID, &member.Role, &member.CreatedAt)
		if err != nil {
			return nil, err
		}

		members = append(members, &member)
	}

	return members, rows.Err()
}
