package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

const accountColumns = `id, ledger_id, name, type, currency, parent_id, path, balance, archived, icon, note, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account. A path collision within the ledger maps to
// ErrDuplicatePath via the unique index on (ledger_id, path).
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		account.ID, account.LedgerID, account.Name, account.Type, account.Currency,
		account.ParentID, account.Path, account.Balance, account.Archived,
		account.Icon, account.Note, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePath
		}

		return err
	}

	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// GetByIDsForUpdate retrieves multiple accounts with FOR UPDATE locks.
// Callers pass ids sorted so concurrent transactions lock in the same order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	rows, err := txQuerier(tx).Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// GetByPath retrieves an account by its materialized path.
func (r *AccountRepository) GetByPath(ctx context.Context, ledgerID, path string) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE ledger_id = $1 AND path = $2`, ledgerID, path))
}

// GetRoot retrieves the type root account of a ledger.
func (r *AccountRepository) GetRoot(ctx context.Context, ledgerID string, accountType domain.AccountType) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE ledger_id = $1 AND type = $2 AND parent_id = ''`, ledgerID, accountType))
}

// ListByLedger lists all accounts of a ledger ordered by path.
func (r *AccountRepository) ListByLedger(ctx context.Context, ledgerID string) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE ledger_id = $1 ORDER BY path`, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// ListByLedgerForUpdate lists all accounts of a ledger with FOR UPDATE locks.
// Tree restructuring locks the whole chart so path rewrites are atomic.
func (r *AccountRepository) ListByLedgerForUpdate(ctx context.Context, tx usecase.Transaction, ledgerID string) ([]*domain.Account, error) {
	rows, err := txQuerier(tx).Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE ledger_id = $1 ORDER BY id FOR UPDATE`, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// Update rewrites the mutable columns of an account.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	_, err := txQuerier(tx).Exec(ctx, `
		UPDATE accounts
		SET name = $2, parent_id = $3, path = $4, archived = $5, icon = $6, note = $7, updated_at = $8
		WHERE id = $1`,
		account.ID, account.Name, account.ParentID, account.Path,
		account.Archived, account.Icon, account.Note, account.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicatePath
	}

	return err
}

// ApplyDelta adds a signed delta to the cached balance.
func (r *AccountRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta int64, updatedAt time.Time) error {
	_, err := txQuerier(tx).Exec(ctx,
		`UPDATE accounts SET balance = balance + $2, updated_at = $3 WHERE id = $1`,
		id, delta, updatedAt,
	)

	return err
}

// SetBalance overwrites the cached balance. Used by the rebuild path only.
func (r *AccountRepository) SetBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	_, err := txQuerier(tx).Exec(ctx,
		`UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`,
		id, balance, updatedAt,
	)

	return err
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account

	err := row.Scan(
		&account.ID, &account.LedgerID, &account.Name, &account.Type, &account.Currency,
		&account.ParentID, &account.Path, &account.Balance, &account.Archived,
		&account.Icon, &account.Note, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return &account, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	var accounts []*domain.Account

	for rows.Next() {
		var account domain.Account

		err := rows.Scan(
			&account.ID, &account.LedgerID, &account.Name, &account.Type, &account.Currency,
			&account.ParentID, &account.Path, &account.Balance, &account.Archived,
			&account.Icon, &account.Note, &account.CreatedAt, &account.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, &account)
	}

	return accounts, rows.Err()
}
