package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

// AccountUseCase handles chart-of-accounts business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	bookRepo    BookRepository
	ledgerRepo  LedgerRepository
	accountRepo AccountRepository
	entryRepo   EntryRepository
	memberRepo  MemberRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	bookRepo BookRepository,
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	memberRepo MemberRepository,
	idGen IDGenerator,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		bookRepo:    bookRepo,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		memberRepo:  memberRepo,
		idGen:       idGen,
	}
}

// AddAccountInput represents input for creating an account. Either ParentID
// or Type is given: with a parent the account nests under it and inherits its
// type; with only a type it becomes a direct child of that type's root.
// InitialBalance is a major-unit amount booked through an opening entry.
type AddAccountInput struct {
	Actor          domain.Actor
	LedgerID       string
	Name           string
	Type           domain.AccountType
	ParentID       string
	Currency       string // defaults to the ledger currency
	Icon           string
	Note           string
	InitialBalance decimal.Decimal
}

// AddAccount creates an account with its materialized path computed from the
// parent chain. A non-zero initial balance is not written to the cache
// directly: it is booked as a balanced opening entry against an equity
// counter-account, so a full rebuild reproduces it.
func (uc *AccountUseCase) AddAccount(ctx context.Context, input AddAccountInput) (*domain.Account, error) {
	ledger, err := uc.ledgerRepo.GetByID(ctx, input.LedgerID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeManager(ctx, ledger, input.Actor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if err := domain.ValidateAccountName(name); err != nil {
		return nil, err
	}

	parent, err := uc.resolveParent(ctx, ledger, input)
	if err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = ledger.DefaultCurrency
	}

	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	path := domain.ChildPath(parent.Path, name)
	if _, err := uc.accountRepo.GetByPath(ctx, ledger.ID, path); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicatePath, path)
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		LedgerID:  ledger.ID,
		Name:      name,
		Type:      parent.Type,
		Currency:  currency,
		ParentID:  parent.ID,
		Path:      path,
		Icon:      input.Icon,
		Note:      input.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	opening, counter, err := uc.planOpeningEntry(ctx, ledger, account, input.InitialBalance, now)
	if err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	if opening != nil {
		if counter != nil {
			if err := uc.accountRepo.Create(ctx, tx, counter); err != nil {
				return nil, err
			}
		}

		if err := uc.entryRepo.Create(ctx, tx, opening); err != nil {
			return nil, err
		}

		for _, line := range opening.Lines {
			lineAccount := account
			if line.AccountID != account.ID {
				lineAccount = counter
			}

			delta := domain.SignedDelta(lineAccount.Type, line.Direction, line.Amount)
			if err := uc.accountRepo.ApplyDelta(ctx, tx, line.AccountID, delta, now); err != nil {
				return nil, err
			}
		}

		account.Balance = domain.SignedDelta(account.Type, opening.Lines[0].Direction, opening.Lines[0].Amount)
	}

	if err := uc.touch(ctx, tx, ledger, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// resolveParent finds the parent account for AddAccount: either the given
// parent or the root of the given type.
func (uc *AccountUseCase) resolveParent(ctx context.Context, ledger *domain.Ledger, input AddAccountInput) (*domain.Account, error) {
	if input.ParentID == "" {
		if !input.Type.Valid() {
			return nil, fmt.Errorf("%w: account type %q", domain.ErrUnknownParent, input.Type)
		}

		return uc.accountRepo.GetRoot(ctx, ledger.ID, input.Type)
	}

	parent, err := uc.accountRepo.GetByID(ctx, input.ParentID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownParent, input.ParentID)
		}

		return nil, err
	}

	if parent.LedgerID != ledger.ID {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownParent, input.ParentID)
	}

	if parent.Archived {
		return nil, fmt.Errorf("%w: %s", domain.ErrArchivedParent, parent.Path)
	}

	if input.Type.Valid() && input.Type != parent.Type {
		return nil, fmt.Errorf("%w: parent is %s", domain.ErrParentTypeChange, parent.Type)
	}

	return parent, nil
}

// planOpeningEntry prepares the opening entry for a non-zero initial balance,
// plus the equity counter-account if one has to be created for the currency.
// Returns (nil, nil, nil) when no opening entry is needed.
func (uc *AccountUseCase) planOpeningEntry(ctx context.Context, ledger *domain.Ledger, account *domain.Account, initial decimal.Decimal, now time.Time) (*domain.Entry, *domain.Account, error) {
	if initial.IsZero() {
		return nil, nil, nil
	}

	money, err := domain.MoneyFromDecimal(initial, account.Currency)
	if err != nil {
		return nil, nil, err
	}

	if money.IsZero() {
		return nil, nil, nil
	}

	counter, created, err := uc.openingCounterAccount(ctx, ledger, account.Currency, now)
	if err != nil {
		return nil, nil, err
	}

	// A positive opening balance sits on the account's normal side; a
	// negative one on the opposite side.
	amount := money.Amount
	accountSide := account.Type.NormalBalance()
	if amount < 0 {
		amount = -amount
		accountSide = opposite(accountSide)
	}

	entry := &domain.Entry{
		ID:          uc.idGen.Generate(),
		LedgerID:    ledger.ID,
		Date:        domain.DateOf(now),
		Description: "Opening balance",
		Currency:    account.Currency,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	entry.Lines = []domain.EntryLine{
		{
			ID:        uc.idGen.Generate(),
			EntryID:   entry.ID,
			AccountID: account.ID,
			Direction: accountSide,
			Amount:    amount,
		},
		{
			ID:        uc.idGen.Generate(),
			EntryID:   entry.ID,
			AccountID: counter.ID,
			Direction: opposite(accountSide),
			Amount:    amount,
		},
	}

	if err := entry.CheckBalanced(); err != nil {
		return nil, nil, err
	}

	if !created {
		counter = nil
	}

	return entry, counter, nil
}

// openingCounterAccount finds or prepares the per-currency "Opening Balances"
// child of the equity root. The bool result reports whether the account is
// new and still has to be persisted.
func (uc *AccountUseCase) openingCounterAccount(ctx context.Context, ledger *domain.Ledger, currency string, now time.Time) (*domain.Account, bool, error) {
	root, err := uc.accountRepo.GetRoot(ctx, ledger.ID, domain.TypeEquity)
	if err != nil {
		return nil, false, err
	}

	name := "Opening Balances"
	if currency != ledger.DefaultCurrency {
		name += " " + currency
	}

	path := domain.ChildPath(root.Path, name)

	existing, err := uc.accountRepo.GetByPath(ctx, ledger.ID, path)
	if err == nil {
		return existing, false, nil
	}

	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, false, err
	}

	return &domain.Account{
		ID:        uc.idGen.Generate(),
		LedgerID:  ledger.ID,
		Name:      name,
		Type:      domain.TypeEquity,
		Currency:  currency,
		ParentID:  root.ID,
		Path:      path,
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}

// RenameAccountInput represents input for renaming an account.
type RenameAccountInput struct {
	Actor     domain.Actor
	LedgerID  string
	AccountID string
	NewName   string
}

// RenameAccount renames an account and recomputes the materialized path of
// the node and every descendant, atomically.
func (uc *AccountUseCase) RenameAccount(ctx context.Context, input RenameAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.NewName)
	if err := domain.ValidateAccountName(name); err != nil {
		return nil, err
	}

	ledger, err := uc.ledgerRepo.GetByID(ctx, input.LedgerID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeManager(ctx, ledger, input.Actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	all, account, err := uc.lockLedgerAccounts(ctx, tx, ledger.ID, input.AccountID)
	if err != nil {
		return nil, err
	}

	if account.IsRoot() {
		return nil, domain.ErrRootAccount
	}

	parentPath := parentPathOf(account.Path)
	newPath := domain.ChildPath(parentPath, name)

	if err := uc.rebaseSubtree(ctx, tx, all, account, name, account.ParentID, newPath, now); err != nil {
		return nil, err
	}

	if err := uc.touch(ctx, tx, ledger, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// MoveAccountInput represents input for moving an account under a new parent.
type MoveAccountInput struct {
	Actor       domain.Actor
	LedgerID    string
	AccountID   string
	NewParentID string
}

// MoveAccount re-parents an account within its type subtree and recomputes
// the paths of the node and every descendant. Moving across type roots is not
// allowed: an account keeps its accounting type for life.
func (uc *AccountUseCase) MoveAccount(ctx context.Context, input MoveAccountInput) (*domain.Account, error) {
	ledger, err := uc.ledgerRepo.GetByID(ctx, input.LedgerID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeManager(ctx, ledger, input.Actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	all, account, err := uc.lockLedgerAccounts(ctx, tx, ledger.ID, input.AccountID)
	if err != nil {
		return nil, err
	}

	if account.IsRoot() {
		return nil, domain.ErrRootAccount
	}

	var parent *domain.Account
	for _, candidate := range all {
		if candidate.ID == input.NewParentID {
			parent = candidate
			break
		}
	}

	if parent == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownParent, input.NewParentID)
	}

	if parent.Archived {
		return nil, fmt.Errorf("%w: %s", domain.ErrArchivedParent, parent.Path)
	}

	if parent.Type != account.Type {
		return nil, fmt.Errorf("%w: parent is %s", domain.ErrParentTypeChange, parent.Type)
	}

	if parent.ID == account.ID || domain.IsDescendantPath(parent.Path, account.Path) {
		return nil, fmt.Errorf("%w: cannot move %s under its own subtree", domain.ErrUnknownParent, account.Path)
	}

	newPath := domain.ChildPath(parent.Path, account.Name)

	if err := uc.rebaseSubtree(ctx, tx, all, account, account.Name, parent.ID, newPath, now); err != nil {
		return nil, err
	}

	if err := uc.touch(ctx, tx, ledger, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// rebaseSubtree applies a rename or move: the account takes newName,
// newParentID and newPath, and every descendant path is rewritten.
func (uc *AccountUseCase) rebaseSubtree(ctx context.Context, tx Transaction, all []*domain.Account, account *domain.Account, newName, newParentID, newPath string, now time.Time) error {
	if newPath == account.Path && newParentID == account.ParentID {
		return nil
	}

	for _, other := range all {
		if other.ID != account.ID && other.Path == newPath {
			return fmt.Errorf("%w: %s", domain.ErrDuplicatePath, newPath)
		}
	}

	oldPath := account.Path
	account.Name = newName
	account.ParentID = newParentID
	account.Path = newPath
	account.UpdatedAt = now

	if err := uc.accountRepo.Update(ctx, tx, account); err != nil {
		return err
	}

	for _, descendant := range all {
		if !domain.IsDescendantPath(descendant.Path, oldPath) {
			continue
		}

		descendant.Path = domain.RebasePath(descendant.Path, oldPath, newPath)
		descendant.UpdatedAt = now

		if err := uc.accountRepo.Update(ctx, tx, descendant); err != nil {
			return err
		}
	}

	return nil
}

// ArchiveAccountInput represents input for archiving an account.
type ArchiveAccountInput struct {
	Actor     domain.Actor
	LedgerID  string
	AccountID string
	// Force archives the account even with a non-zero balance.
	Force bool
}

// ArchiveAccount soft-hides an account: it disappears from pickers and
// overview totals but is retained for history. Archiving a non-zero balance
// requires an explicit override.
func (uc *AccountUseCase) ArchiveAccount(ctx context.Context, input ArchiveAccountInput) (*domain.Account, error) {
	ledger, err := uc.ledgerRepo.GetByID(ctx, input.LedgerID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeManager(ctx, ledger, input.Actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, []string{input.AccountID})
	if err != nil {
		return nil, err
	}

	if len(accounts) != 1 || accounts[0].LedgerID != ledger.ID {
		return nil, domain.ErrAccountNotFound
	}

	account := accounts[0]

	if account.IsRoot() {
		return nil, domain.ErrRootAccount
	}

	if account.Balance != 0 && !input.Force {
		return nil, fmt.Errorf("%w: balance is %d minor units", domain.ErrHasNonZeroBalance, account.Balance)
	}

	account.Archived = true
	account.UpdatedAt = now

	if err := uc.accountRepo.Update(ctx, tx, account); err != nil {
		return nil, err
	}

	if err := uc.touch(ctx, tx, ledger, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// AccountGroupRow is one row of the tree display: the account with its depth
// level, ordered by path.
type AccountGroupRow struct {
	AccountID string
	Name      string
	Path      string
	Level     int
	Type      domain.AccountType
	Currency  string
	Balance   int64
	Archived  bool
}

// GetAccountGroups returns the chart of accounts as display rows, sorted by
// path, optionally restricted to the given types.
func (uc *AccountUseCase) GetAccountGroups(ctx context.Context, ledgerID string, types []domain.AccountType) ([]AccountGroupRow, error) {
	if _, err := uc.ledgerRepo.GetByID(ctx, ledgerID); err != nil {
		return nil, err
	}

	accounts, err := uc.accountRepo.ListByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[domain.AccountType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	rows := make([]AccountGroupRow, 0, len(accounts))
	for _, account := range accounts {
		if len(wanted) > 0 && !wanted[account.Type] {
			continue
		}

		rows = append(rows, AccountGroupRow{
			AccountID: account.ID,
			Name:      account.Name,
			Path:      account.Path,
			Level:     account.Depth(),
			Type:      account.Type,
			Currency:  account.Currency,
			Balance:   account.Balance,
			Archived:  account.Archived,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })

	return rows, nil
}

// authorizeManager verifies the actor holds a membership of the ledger's book
// that permits account tree changes.
func (uc *AccountUseCase) authorizeManager(ctx context.Context, ledger *domain.Ledger, actor domain.Actor) error {
	role, err := memberRole(ctx, uc.memberRepo, ledger.BookID, actor)
	if err != nil {
		return err
	}

	if !role.CanManageAccounts() {
		return domain.ErrInsufficientRole
	}

	return nil
}

// lockLedgerAccounts locks the whole chart of a ledger and returns it plus
// the requested account. Tree restructuring touches an unbounded set of
// descendant paths, so it takes the coarse lock.
func (uc *AccountUseCase) lockLedgerAccounts(ctx context.Context, tx Transaction, ledgerID, accountID string) ([]*domain.Account, *domain.Account, error) {
	all, err := uc.accountRepo.ListByLedgerForUpdate(ctx, tx, ledgerID)
	if err != nil {
		return nil, nil, err
	}

	for _, account := range all {
		if account.ID == accountID {
			return all, account, nil
		}
	}

	return nil, nil, domain.ErrAccountNotFound
}

func (uc *AccountUseCase) touch(ctx context.Context, tx Transaction, ledger *domain.Ledger, now time.Time) error {
	if err := uc.ledgerRepo.Touch(ctx, tx, ledger.ID, now); err != nil {
		return err
	}

	return uc.bookRepo.Touch(ctx, tx, ledger.BookID, now)
}

func parentPathOf(path string) string {
	idx := strings.LastIndex(path, domain.PathSeparator)
	if idx < 0 {
		return ""
	}

	return path[:idx]
}

func opposite(d domain.Direction) domain.Direction {
	if d == domain.Debit {
		return domain.Credit
	}

	return domain.Debit
}
