package domain

import "time"

// Book is the top-level container for one user or household. It owns one or
// more ledgers and always has exactly one main ledger.
type Book struct {
	ID              string
	Name            string
	DefaultCurrency string
	MainLedgerID    string

	CreatedAt time.Time
	UpdatedAt time.Time // bumped on any structural change beneath the book
}

// LedgerType distinguishes the main ledger from additional sub-ledgers.
type LedgerType string

const (
	LedgerMain LedgerType = "main"
	LedgerSub  LedgerType = "sub"
)

// Ledger is a chart of accounts plus its journal, scoped within a Book.
type Ledger struct {
	ID              string
	BookID          string
	Name            string
	Type            LedgerType
	DefaultCurrency string

	CreatedAt time.Time
	UpdatedAt time.Time
}
