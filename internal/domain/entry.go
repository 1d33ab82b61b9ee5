package domain

import (
	"fmt"
	"time"
)

// Direction is the side of a journal line.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Debit || d == Credit
}

// EntryLine is one leg of a journal entry against one account. Amounts are
// non-negative minor units; the side is carried by Direction. The same
// account may appear on more than one line of an entry.
type EntryLine struct {
	ID        string
	EntryID   string
	AccountID string
	Direction Direction
	Amount    int64 // minor units, >= 0
	Note      string
}

// Entry is one balanced journal transaction. Every line references an account
// whose currency equals the entry's currency; cross-currency movement is two
// linked entries sharing a TransferGroupID, never one multi-currency entry.
//
// Version supports optimistic concurrency: a caller proposing a modify or
// delete presents the version it last read, and the commit aborts with
// ErrWriteConflict if the stored version has moved on.
type Entry struct {
	ID              string
	LedgerID        string
	Date            Date
	Description     string
	Currency        string
	Payee           string
	Tags            []string
	TransferGroupID string
	Lines           []EntryLine
	Version         int64

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time // soft delete; set by the delete path, never cleared
}

// Deleted reports whether the entry has been soft-deleted.
func (e *Entry) Deleted() bool {
	return e.DeletedAt != nil
}

// CheckBalanced enforces the shape invariants that do not need account
// lookups: at least two lines, a valid direction and non-negative amount per
// line, and sum(debits) == sum(credits) exactly, in minor units.
func (e *Entry) CheckBalanced() error {
	if len(e.Lines) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewLines, len(e.Lines))
	}

	var debits, credits int64
	for _, line := range e.Lines {
		if !line.Direction.Valid() {
			return fmt.Errorf("%w: direction %q", ErrInvalidAmount, line.Direction)
		}

		if line.Amount < 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidAmount, line.Amount)
		}

		switch line.Direction {
		case Debit:
			debits += line.Amount
		case Credit:
			credits += line.Amount
		}
	}

	if debits != credits {
		return fmt.Errorf("%w: debits=%d credits=%d", ErrImbalancedEntry, debits, credits)
	}

	return nil
}

// EntryFilter narrows an entry listing. The zero value lists all non-deleted
// entries of the ledger, newest date first.
type EntryFilter struct {
	From           *Date
	To             *Date
	AccountID      string
	Payee          string
	Tag            string
	TransferGroup  string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// Matches reports whether e passes the filter. Pagination is not applied
// here; stores handle Limit/Offset after ordering.
func (f EntryFilter) Matches(e *Entry) bool {
	if e.Deleted() && !f.IncludeDeleted {
		return false
	}

	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}

	if f.To != nil && e.Date.After(*f.To) {
		return false
	}

	if f.Payee != "" && e.Payee != f.Payee {
		return false
	}

	if f.TransferGroup != "" && e.TransferGroupID != f.TransferGroup {
		return false
	}

	if f.AccountID != "" {
		found := false
		for _, line := range e.Lines {
			if line.AccountID == f.AccountID {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	if f.Tag != "" {
		found := false
		for _, tag := range e.Tags {
			if tag == f.Tag {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}
