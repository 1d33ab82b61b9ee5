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

// BookRepository implements usecase.BookRepository.
type BookRepository struct {
	pool *pgxpool.Pool
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

// Create creates a new book.
func (r *BookRepository) Create(ctx context.Context, tx usecase.Transaction, book *domain.Book) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO books (id, name, default_currency, main_ledger_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		book.ID, book.Name, book.DefaultCurrency, book.MainLedgerID, book.CreatedAt, book.UpdatedAt,
	)

	return err
}

// GetByID retrieves a book by ID.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	return scanBook(r.pool.QueryRow(ctx, `
		SELECT id, name, default_currency, main_ledger_id, created_at, updated_at
		FROM books WHERE id = $1`, id))
}

// Touch bumps the book's updated_at.
func (r *BookRepository) Touch(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	_, err := txQuerier(tx).Exec(ctx,
		`UPDATE books SET updated_at = $2 WHERE id = $1`, id, updatedAt)

	return err
}

func scanBook(row pgx.Row) (*domain.Book, error) {
	var book domain.Book

	err := row.Scan(&book.ID, &book.Name, &book.DefaultCurrency, &book.MainLedgerID, &book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookNotFound
		}

		return nil, err
	}

	return &book, nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Create creates a new ledger.
func (r *LedgerRepository) Create(ctx context.Context, tx usecase.Transaction, ledger *domain.Ledger) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO ledgers (id, book_id, name, type, default_currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ledger.ID, ledger.BookID, ledger.Name, ledger.Type, ledger.DefaultCurrency, ledger.CreatedAt, ledger.UpdatedAt,
	)

	return err
}

// GetByID retrieves a ledger by ID.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*domain.Ledger, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, book_id, name, type, default_currency, created_at, updated_at
		FROM ledgers WHERE id = $1`, id)

	var ledger domain.Ledger

	err := row.Scan(&ledger.ID, &ledger.BookID, &ledger.Name, &ledger.Type, &ledger.DefaultCurrency, &ledger.CreatedAt, &ledger.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerNotFound
		}

		return nil, err
	}

	return &ledger, nil
}

// ListByBook lists the ledgers of a book.
func (r *LedgerRepository) ListByBook(ctx context.Context, bookID string) ([]*domain.Ledger, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, book_id, name, type, default_currency, created_at, updated_at
		FROM ledgers WHERE book_id = $1 ORDER BY created_at`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ledgers []*domain.Ledger

	for rows.Next() {
		var ledger domain.Ledger

		err := rows.Scan(&ledger.ID, &ledger.BookID, &ledger.Name, &ledger.Type, &ledger.DefaultCurrency, &ledger.CreatedAt, &ledger.UpdatedAt)
		if err != nil {
			return nil, err
		}

		ledgers = append(ledgers, &ledger)
	}

	return ledgers, rows.Err()
}

// Touch bumps the ledger's updated_at.
func (r *LedgerRepository) Touch(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	_, err := txQuerier(tx).Exec(ctx,
		`UPDATE ledgers SET updated_at = $2 WHERE id = $1`, id, updatedAt)

	return err
}
