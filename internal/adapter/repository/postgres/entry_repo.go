package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

const entryColumns = `id, ledger_id, entry_date, description, currency, payee, tags, transfer_group_id, version, created_at, updated_at, deleted_at`

// EntryRepository implements usecase.EntryRepository. An entry and its lines
// are written together; lines are immutable between entry versions, so Update
// replaces them wholesale.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts an entry with its lines.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	q := txQuerier(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.LedgerID, entry.Date.Time(), entry.Description, entry.Currency,
		entry.Payee, textArray(entry.Tags), entry.TransferGroupID, entry.Version,
		entry.CreatedAt, entry.UpdatedAt, entry.DeletedAt,
	)
	if err != nil {
		return err
	}

	return insertLines(ctx, q, entry)
}

// GetByID retrieves an entry with its lines.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	if err := loadLines(ctx, r.pool, []*domain.Entry{entry}); err != nil {
		return nil, err
	}

	return entry, nil
}

// GetByIDForUpdate retrieves an entry with a FOR UPDATE lock on its row.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	q := txQuerier(tx)

	entry, err := scanEntry(q.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err := loadLines(ctx, q, []*domain.Entry{entry}); err != nil {
		return nil, err
	}

	return entry, nil
}

// Update rewrites the entry row and replaces its lines.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	q := txQuerier(tx)

	tag, err := q.Exec(ctx, `
		UPDATE entries
		SET entry_date = $2, description = $3, currency = $4, payee = $5, tags = $6, version = $7, updated_at = $8
		WHERE id = $1`,
		entry.ID, entry.Date.Time(), entry.Description, entry.Currency,
		entry.Payee, textArray(entry.Tags), entry.Version, entry.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	if _, err := q.Exec(ctx, `DELETE FROM entry_lines WHERE entry_id = $1`, entry.ID); err != nil {
		return err
	}

	return insertLines(ctx, q, entry)
}

// MarkDeleted soft-deletes an entry and bumps its version. Lines stay in
// place for the audit trail.
func (r *EntryRepository) MarkDeleted(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time, version int64) error {
	tag, err := txQuerier(tx).Exec(ctx, `
		UPDATE entries SET deleted_at = $2, version = $3, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL`,
		id, deletedAt, version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// ListByLedger lists entries of a ledger, newest date first.
func (r *EntryRepository) ListByLedger(ctx context.Context, ledgerID string, filter domain.EntryFilter) ([]*domain.Entry, error) {
	sql := `SELECT ` + entryColumns + ` FROM entries WHERE ledger_id = $1`
	args := []any{ledgerID}

	if !filter.IncludeDeleted {
		sql += ` AND deleted_at IS NULL`
	}
	if filter.From != nil {
		args = append(args, filter.From.Time())
		sql += fmt.Sprintf(` AND entry_date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, filter.To.Time())
		sql += fmt.Sprintf(` AND entry_date <= $%d`, len(args))
	}
	if filter.Payee != "" {
		args = append(args, filter.Payee)
		sql += fmt.Sprintf(` AND payee = $%d`, len(args))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		sql += fmt.Sprintf(` AND $%d = ANY(tags)`, len(args))
	}
	if filter.TransferGroup != "" {
		args = append(args, filter.TransferGroup)
		sql += fmt.Sprintf(` AND transfer_group_id = $%d`, len(args))
	}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		sql += fmt.Sprintf(` AND id IN (SELECT entry_id FROM entry_lines WHERE account_id = $%d)`, len(args))
	}

	sql += ` ORDER BY entry_date DESC, created_at DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sql += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, err
	}

	if err := loadLines(ctx, r.pool, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// ListForReplay lists non-deleted entries in replay order: ascending
// (entry_date, created_at, id). A nil asOf replays the full log.
func (r *EntryRepository) ListForReplay(ctx context.Context, tx usecase.Transaction, ledgerID string, asOf *domain.Date) ([]*domain.Entry, error) {
	var q querier = r.pool
	if tx != nil {
		q = txQuerier(tx)
	}

	sql := `SELECT ` + entryColumns + ` FROM entries WHERE ledger_id = $1 AND deleted_at IS NULL`
	args := []any{ledgerID}

	if asOf != nil {
		args = append(args, asOf.Time())
		sql += fmt.Sprintf(` AND entry_date <= $%d`, len(args))
	}

	sql += ` ORDER BY entry_date, created_at, id`

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, err
	}

	if err := loadLines(ctx, q, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// textArray coalesces a nil slice to an empty one. pgx encodes a nil []string
// as SQL NULL, which the NOT NULL tags column rejects.
func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}

func insertLines(ctx context.Context, q querier, entry *domain.Entry) error {
	for _, line := range entry.Lines {
		_, err := q.Exec(ctx, `
			INSERT INTO entry_lines (id, entry_id, account_id, direction, amount, note)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			line.ID, entry.ID, line.AccountID, line.Direction, line.Amount, line.Note,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// loadLines fetches the lines of all given entries in one query. Line IDs are
// ULIDs assigned in order, so ordering by id preserves line order.
func loadLines(ctx context.Context, q querier, entries []*domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Entry, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
		ids = append(ids, entry.ID)
	}

	rows, err := q.Query(ctx, `
		SELECT id, entry_id, account_id, direction, amount, note
		FROM entry_lines WHERE entry_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.EntryLine

		err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Direction, &line.Amount, &line.Note)
		if err != nil {
			return err
		}

		if entry, ok := byID[line.EntryID]; ok {
			entry.Lines = append(entry.Lines, line)
		}
	}

	return rows.Err()
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		entry     domain.Entry
		entryDate time.Time
	)

	err := row.Scan(
		&entry.ID, &entry.LedgerID, &entryDate, &entry.Description, &entry.Currency,
		&entry.Payee, &entry.Tags, &entry.TransferGroupID, &entry.Version,
		&entry.CreatedAt, &entry.UpdatedAt, &entry.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	entry.Date = domain.DateOf(entryDate)

	return &entry, nil
}

func collectEntries(rows pgx.Rows) ([]*domain.Entry, error) {
	var entries []*domain.Entry

	for rows.Next() {
		var (
			entry     domain.Entry
			entryDate time.Time
		)

		err := rows.Scan(
			&entry.ID, &entry.LedgerID, &entryDate, &entry.Description, &entry.Currency,
			&entry.Payee, &entry.Tags, &entry.TransferGroupID, &entry.Version,
			&entry.CreatedAt, &entry.UpdatedAt, &entry.DeletedAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Date = domain.DateOf(entryDate)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
