package domain

import (
	"strings"
	"time"
)

// AccountType is one of the five accounting types rooting every ledger tree.
type AccountType string

const (
	TypeAssets      AccountType = "assets"
	TypeLiabilities AccountType = "liabilities"
	TypeEquity      AccountType = "equity"
	TypeIncome      AccountType = "income"
	TypeExpenses    AccountType = "expenses"
)

// AccountTypes lists the five types in their conventional display order.
// A ledger is created with exactly one root account per type; roots are never
// deleted.
var AccountTypes = []AccountType{
	TypeAssets,
	TypeLiabilities,
	TypeEquity,
	TypeIncome,
	TypeExpenses,
}

// RootName returns the display name of the type's root account.
func (t AccountType) RootName() string {
	switch t {
	case TypeAssets:
		return "Assets"
	case TypeLiabilities:
		return "Liabilities"
	case TypeEquity:
		return "Equity"
	case TypeIncome:
		return "Income"
	case TypeExpenses:
		return "Expenses"
	}

	return string(t)
}

// Valid reports whether t is one of the five accounting types.
func (t AccountType) Valid() bool {
	switch t {
	case TypeAssets, TypeLiabilities, TypeEquity, TypeIncome, TypeExpenses:
		return true
	}

	return false
}

// NormalBalance returns the side on which an account of this type increases:
// assets and expenses increase on debit, liabilities, equity and income on
// credit. Both the mutation path and the rebuild path consult this single
// table so the two can never disagree.
func (t AccountType) NormalBalance() Direction {
	switch t {
	case TypeAssets, TypeExpenses:
		return Debit
	default:
		return Credit
	}
}

// SignedDelta converts one entry line into the signed minor-unit change of
// the account's stored balance. A line on the account's normal side increases
// the balance; the opposite side decreases it. Under this convention the
// stored balance of a healthy account of any type is positive.
func SignedDelta(t AccountType, dir Direction, amount int64) int64 {
	if dir == t.NormalBalance() {
		return amount
	}

	return -amount
}

// PathSeparator joins ancestor names into the materialized account path.
const PathSeparator = ":"

// Account is a node in a ledger's chart-of-accounts tree.
//
// Balance is a derived value in minor units, owned by the ledger: it is
// mutated only through the mutation protocol or a rebuild, and must always be
// re-derivable to the identical value by replaying the entry log.
type Account struct {
	ID       string
	LedgerID string
	Name     string
	Type     AccountType
	Currency string
	ParentID string // empty marks one of the five immutable type roots
	Path     string // colon-joined ancestor names, unique within the ledger
	Balance  int64  // minor units, derived
	Archived bool
	Icon     string
	Note     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRoot reports whether the account is one of the five type roots.
func (a *Account) IsRoot() bool {
	return a.ParentID == ""
}

// Depth returns the tree depth of the account; roots are depth 0.
func (a *Account) Depth() int {
	return strings.Count(a.Path, PathSeparator)
}

// ChildPath computes the materialized path of a child named name under
// parentPath.
func ChildPath(parentPath, name string) string {
	return parentPath + PathSeparator + name
}

// IsDescendantPath reports whether path lies strictly below ancestorPath.
func IsDescendantPath(path, ancestorPath string) bool {
	return strings.HasPrefix(path, ancestorPath+PathSeparator)
}

// RebasePath rewrites a descendant path after its ancestor moved or was
// renamed from oldAncestor to newAncestor.
func RebasePath(path, oldAncestor, newAncestor string) string {
	return newAncestor + strings.TrimPrefix(path, oldAncestor)
}
