package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// RevisionRepository implements usecase.RevisionRepository. Snapshots are
// stored as jsonb; they are written once and never updated.
type RevisionRepository struct {
	pool *pgxpool.Pool
}

// NewRevisionRepository creates a new RevisionRepository.
func NewRevisionRepository(pool *pgxpool.Pool) *RevisionRepository {
	return &RevisionRepository{pool: pool}
}

// Create inserts a revision snapshot.
func (r *RevisionRepository) Create(ctx context.Context, tx usecase.Transaction, revision *domain.EntryRevision) error {
	snapshot, err := json.Marshal(revision.Snapshot)
	if err != nil {
		return err
	}

	_, err = txQuerier(tx).Exec(ctx, `
		INSERT INTO entry_revisions (id, entry_id, reason, actor_id, snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		revision.ID, revision.EntryID, revision.Reason, revision.ActorID, snapshot, revision.CreatedAt,
	)

	return err
}

// ListByEntry lists the revisions of an entry, oldest first.
func (r *RevisionRepository) ListByEntry(ctx context.Context, entryID string) ([]*domain.EntryRevision, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, entry_id, reason, actor_id, snapshot, created_at
		FROM entry_revisions WHERE entry_id = $1 ORDER BY created_at, id`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []*domain.EntryRevision

	for rows.Next() {
		var (
			revision domain.EntryRevision
			snapshot []byte
		)

		err := rows.Scan(&revision.ID, &revision.EntryID, &revision.Reason, &revision.ActorID, &snapshot, &revision.CreatedAt)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(snapshot, &revision.Snapshot); err != nil {
			return nil, err
		}

		revisions = append(revisions, &revision)
	}

	return revisions, rows.Err()
}
