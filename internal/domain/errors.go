package domain

import "errors"

var (
	// Lookup errors
	ErrBookNotFound    = errors.New("book not found")
	ErrLedgerNotFound  = errors.New("ledger not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrMemberNotFound  = errors.New("member not found")

	// Account tree errors
	ErrUnknownParent     = errors.New("unknown parent account")
	ErrArchivedParent    = errors.New("parent account is archived")
	ErrDuplicatePath     = errors.New("account path already exists in ledger")
	ErrRootAccount       = errors.New("type root accounts cannot be modified")
	ErrParentTypeChange  = errors.New("new parent belongs to a different account type")
	ErrHasNonZeroBalance = errors.New("account balance is not zero")

	// Entry validation errors
	ErrImbalancedEntry  = errors.New("entry debits and credits are not equal")
	ErrTooFewLines      = errors.New("entry requires at least two lines")
	ErrUnknownAccount   = errors.New("entry line references unknown account")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrUnknownCurrency  = errors.New("unknown currency code")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("line amount must be non-negative")
	ErrEntryDeleted     = errors.New("entry is deleted")

	// Concurrency errors
	ErrWriteConflict = errors.New("entry was modified by a concurrent writer")

	// Policy errors
	ErrInsufficientRole = errors.New("actor role does not permit this operation")
)
