package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
)

// EntryUseCase implements the entry mutation protocol: add, modify and delete
// run as one atomic transaction against the entry log, the affected account
// balances and the ledger timestamp. Every write either commits completely or
// leaves no visible effect.
type EntryUseCase struct {
	txManager    TransactionManager
	bookRepo     BookRepository
	ledgerRepo   LedgerRepository
	accountRepo  AccountRepository
	entryRepo    EntryRepository
	revisionRepo RevisionRepository
	memberRepo   MemberRepository
	idGen        IDGenerator
	cache        Cache   // optional report cache, invalidated on commit
	retrier      Retrier // optional, for transient storage failures
}

// NewEntryUseCase creates a new EntryUseCase. cache may be nil.
func NewEntryUseCase(
	txManager TransactionManager,
	bookRepo BookRepository,
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	revisionRepo RevisionRepository,
	memberRepo MemberRepository,
	idGen IDGenerator,
	cache Cache,
) *EntryUseCase {
	return &EntryUseCase{
		txManager:    txManager,
		bookRepo:     bookRepo,
		ledgerRepo:   ledgerRepo,
		accountRepo:  accountRepo,
		entryRepo:    entryRepo,
		revisionRepo: revisionRepo,
		memberRepo:   memberRepo,
		idGen:        idGen,
		cache:        cache,
	}
}

// WithRetrier returns the use case with transaction retry enabled. Retried
// operations are whole transactions, so a retry never observes partial
// writes of a failed attempt.
func (uc *EntryUseCase) WithRetrier(retrier Retrier) *EntryUseCase {
	uc.retrier = retrier
	return uc
}

// runTx executes a transactional operation, retrying when a retrier is set.
func (uc *EntryUseCase) runTx(ctx context.Context, operation func() error) error {
	if uc.retrier == nil {
		return operation()
	}
	return uc.retrier.Retry(ctx, operation)
}

// LineInput represents one leg of a proposed entry. Amount is in minor units.
type LineInput struct {
	AccountID string
	Direction domain.Direction
	Amount    int64
	Note      string
}

// EntryDraft is the caller-provided body of an entry.
type EntryDraft struct {
	Description string
	Currency    string // defaults to the ledger currency when empty
	Payee       string
	Tags        []string
	Lines       []LineInput
}

// AddEntryInput represents input for adding an entry.
type AddEntryInput struct {
	Actor    domain.Actor
	LedgerID string
	Date     domain.Date
	EntryDraft
}

// AddEntry validates and commits a new journal entry, applying its line
// deltas to the affected account balances in the same transaction.
func (uc *EntryUseCase) AddEntry(ctx context.Context, input AddEntryInput) (*domain.Entry, error) {
	ledger, err := uc.ledgerRepo.GetByID(ctx, input.LedgerID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeWriter(ctx, ledger, input.Actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	entry, err := uc.buildEntry(ledger, input.Date, input.EntryDraft, "", now)
	if err != nil {
		return nil, err
	}

	err = uc.runTx(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		accounts, err := uc.lockAccounts(ctx, tx, entry.Lines)
		if err != nil {
			return err
		}

		if err := validateLineAccounts(entry, accounts); err != nil {
			return err
		}

		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return err
		}

		if err := uc.applyDeltas(ctx, tx, accounts, entry, +1, now); err != nil {
			return err
		}

		if err := uc.touch(ctx, tx, ledger, now); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateReports(ctx, ledger.ID)

	return entry, nil
}

// ModifyEntryInput represents input for modifying an entry. ExpectedVersion
// is the version the caller last read.
type ModifyEntryInput struct {
	Actor           domain.Actor
	LedgerID        string
	EntryID         string
	ExpectedVersion int64
	Date            domain.Date
	EntryDraft
}

// ModifyEntry replaces an entry wholesale. The old lines' deltas are rolled
// back and the new line set is validated and applied as if freshly added;
// this stays correct even when the touched account set changes between
// versions. The pre-image is captured as a revision snapshot.
func (uc *EntryUseCase) ModifyEntry(ctx context.Context, input ModifyEntryInput) (*domain.Entry, error) {
	ledger, err := uc.ledgerRepo.GetByID(ctx, input.LedgerID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeWriter(ctx, ledger, input.Actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	var updated *domain.Entry

	err = uc.runTx(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		current, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, input.EntryID)
		if err != nil {
			return err
		}

		if current.LedgerID != ledger.ID {
			return domain.ErrEntryNotFound
		}

		if current.Deleted() {
			return domain.ErrEntryDeleted
		}

		// Conflict check runs inside the same transaction as the rollback and
		// reapply below; on mismatch nothing has been written yet.
		if current.Version != input.ExpectedVersion {
			return fmt.Errorf("%w: have version %d, expected %d",
				domain.ErrWriteConflict, current.Version, input.ExpectedVersion)
		}

		updated, err = uc.buildEntry(ledger, input.Date, input.EntryDraft, current.TransferGroupID, now)
		if err != nil {
			return err
		}

		updated.ID = current.ID
		updated.CreatedAt = current.CreatedAt
		updated.Version = current.Version + 1
		for i := range updated.Lines {
			updated.Lines[i].EntryID = current.ID
		}

		accounts, err := uc.lockAccounts(ctx, tx, append(current.Lines[:len(current.Lines):len(current.Lines)], updated.Lines...))
		if err != nil {
			return err
		}

		if err := validateLineAccounts(updated, accounts); err != nil {
			return err
		}

		// Roll back the old effect, then apply the new set.
		if err := uc.applyDeltas(ctx, tx, accounts, current, -1, now); err != nil {
			return err
		}

		if err := uc.applyDeltas(ctx, tx, accounts, updated, +1, now); err != nil {
			return err
		}

		if err := uc.snapshot(ctx, tx, current, domain.RevisionModify, input.Actor, now); err != nil {
			return err
		}

		if err := uc.entryRepo.Update(ctx, tx, updated); err != nil {
			return err
		}

		if err := uc.touch(ctx, tx, ledger, now); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateReports(ctx, ledger.ID)

	return updated, nil
}

// DeleteEntryInput represents input for soft-deleting an entry.
type DeleteEntryInput struct {
	Actor           domain.Actor
	LedgerID        string
	EntryID         string
	ExpectedVersion int64
}

// DeleteEntry rolls back the entry's balance effect and marks it deleted.
// Lines are retained; the entry stays queryable for audit.
func (uc *EntryUseCase) DeleteEntry(ctx context.Context, input DeleteEntryInput) error {
	ledger, err := uc.ledgerRepo.GetByID(ctx, input.LedgerID)
	if err != nil {
		return err
	}

	if err := uc.authorizeWriter(ctx, ledger, input.Actor); err != nil {
		return err
	}

	now := time.Now().UTC()

	err = uc.runTx(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		current, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, input.EntryID)
		if err != nil {
			return err
		}

		if current.LedgerID != ledger.ID {
			return domain.ErrEntryNotFound
		}

		if current.Deleted() {
			return domain.ErrEntryDeleted
		}

		if current.Version != input.ExpectedVersion {
			return fmt.Errorf("%w: have version %d, expected %d",
				domain.ErrWriteConflict, current.Version, input.ExpectedVersion)
		}

		accounts, err := uc.lockAccounts(ctx, tx, current.Lines)
		if err != nil {
			return err
		}

		if err := uc.applyDeltas(ctx, tx, accounts, current, -1, now); err != nil {
			return err
		}

		if err := uc.snapshot(ctx, tx, current, domain.RevisionDelete, input.Actor, now); err != nil {
			return err
		}

		if err := uc.entryRepo.MarkDeleted(ctx, tx, current.ID, now, current.Version+1); err != nil {
			return err
		}

		if err := uc.touch(ctx, tx, ledger, now); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return err
	}

	uc.invalidateReports(ctx, ledger.ID)

	return nil
}

// AddTransferPairInput represents a cross-currency transfer: two complete
// single-currency entries committed atomically under one transfer group.
type AddTransferPairInput struct {
	Actor    domain.Actor
	LedgerID string
	Date     domain.Date
	From     EntryDraft
	To       EntryDraft
}

// AddTransferPair commits two linked entries sharing a transfer group ID.
// Each entry validates and balances independently in its own currency; no
// cross-entry balance check exists.
func (uc *EntryUseCase) AddTransferPair(ctx context.Context, input AddTransferPairInput) ([]*domain.Entry, error) {
	ledger, err := uc.ledgerRepo.GetByID(ctx, input.LedgerID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeWriter(ctx, ledger, input.Actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	group := uc.idGen.Generate()

	entries := make([]*domain.Entry, 0, 2)
	for _, draft := range []EntryDraft{input.From, input.To} {
		entry, err := uc.buildEntry(ledger, input.Date, draft, group, now)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	err = uc.runTx(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		allLines := append(entries[0].Lines[:len(entries[0].Lines):len(entries[0].Lines)], entries[1].Lines...)

		accounts, err := uc.lockAccounts(ctx, tx, allLines)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if err := validateLineAccounts(entry, accounts); err != nil {
				return err
			}
		}

		for _, entry := range entries {
			if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
				return err
			}

			if err := uc.applyDeltas(ctx, tx, accounts, entry, +1, now); err != nil {
				return err
			}
		}

		if err := uc.touch(ctx, tx, ledger, now); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateReports(ctx, ledger.ID)

	return entries, nil
}

// GetEntry retrieves an entry by ID, soft-deleted entries included.
func (uc *EntryUseCase) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// GetEntries lists entries of a ledger, newest date first.
func (uc *EntryUseCase) GetEntries(ctx context.Context, ledgerID string, filter domain.EntryFilter) ([]*domain.Entry, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.entryRepo.ListByLedger(ctx, ledgerID, filter)
}

// GetRevisions lists the revision snapshots of an entry, oldest first.
func (uc *EntryUseCase) GetRevisions(ctx context.Context, entryID string) ([]*domain.EntryRevision, error) {
	return uc.revisionRepo.ListByEntry(ctx, entryID)
}

// authorizeWriter verifies the actor holds a membership of the ledger's book
// that permits entry writes.
func (uc *EntryUseCase) authorizeWriter(ctx context.Context, ledger *domain.Ledger, actor domain.Actor) error {
	role, err := memberRole(ctx, uc.memberRepo, ledger.BookID, actor)
	if err != nil {
		return err
	}

	if !role.CanWriteEntries() {
		return domain.ErrInsufficientRole
	}

	return nil
}

// buildEntry assembles and shape-validates a proposed entry. No state is
// touched; validation failures leave nothing to undo.
func (uc *EntryUseCase) buildEntry(ledger *domain.Ledger, date domain.Date, draft EntryDraft, transferGroup string, now time.Time) (*domain.Entry, error) {
	if date.IsZero() {
		return nil, domain.ErrInvalidDate
	}

	currency := draft.Currency
	if currency == "" {
		currency = ledger.DefaultCurrency
	}

	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	// Tag-less drafts normalize to an empty set so both storage backends see
	// the same value.
	tags := draft.Tags
	if tags == nil {
		tags = []string{}
	}

	entry := &domain.Entry{
		ID:              uc.idGen.Generate(),
		LedgerID:        ledger.ID,
		Date:            date,
		Description:     draft.Description,
		Currency:        currency,
		Payee:           draft.Payee,
		Tags:            tags,
		TransferGroupID: transferGroup,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	entry.Lines = make([]domain.EntryLine, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		entry.Lines = append(entry.Lines, domain.EntryLine{
			ID:        uc.idGen.Generate(),
			EntryID:   entry.ID,
			AccountID: line.AccountID,
			Direction: line.Direction,
			Amount:    line.Amount,
			Note:      line.Note,
		})
	}

	if err := entry.CheckBalanced(); err != nil {
		return nil, err
	}

	return entry, nil
}

// lockAccounts locks the accounts referenced by lines in sorted ID order
// (deadlock prevention) and returns them keyed by ID. A missing account is
// reported as ErrUnknownAccount.
func (uc *EntryUseCase) lockAccounts(ctx context.Context, tx Transaction, lines []domain.EntryLine) (map[string]*domain.Account, error) {
	seen := make(map[string]bool, len(lines))

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			ids = append(ids, line.AccountID)
		}
	}

	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(ids) {
		return nil, domain.ErrUnknownAccount
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, account := range accounts {
		byID[account.ID] = account
	}

	return byID, nil
}

// validateLineAccounts enforces the invariants that need account lookups:
// every line's account belongs to the entry's ledger and carries the entry's
// currency.
func validateLineAccounts(entry *domain.Entry, accounts map[string]*domain.Account) error {
	for _, line := range entry.Lines {
		account := accounts[line.AccountID]
		if account == nil || account.LedgerID != entry.LedgerID {
			return fmt.Errorf("%w: %s", domain.ErrUnknownAccount, line.AccountID)
		}

		if account.Currency != entry.Currency {
			return fmt.Errorf("%w: account %s holds %s, entry is %s",
				domain.ErrCurrencyMismatch, account.ID, account.Currency, entry.Currency)
		}
	}

	return nil
}

// applyDeltas converts the entry's lines into signed balance deltas using the
// normal-balance rule, aggregates them per account (an account may appear on
// several lines) and applies them. sign -1 rolls an entry's effect back.
func (uc *EntryUseCase) applyDeltas(ctx context.Context, tx Transaction, accounts map[string]*domain.Account, entry *domain.Entry, sign int64, now time.Time) error {
	deltas := make(map[string]int64, len(entry.Lines))

	order := make([]string, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		account := accounts[line.AccountID]
		if account == nil {
			return fmt.Errorf("%w: %s", domain.ErrUnknownAccount, line.AccountID)
		}

		if _, ok := deltas[line.AccountID]; !ok {
			order = append(order, line.AccountID)
		}

		deltas[line.AccountID] += sign * domain.SignedDelta(account.Type, line.Direction, line.Amount)
	}

	for _, id := range order {
		if err := uc.accountRepo.ApplyDelta(ctx, tx, id, deltas[id], now); err != nil {
			return err
		}
	}

	return nil
}

// snapshot writes the pre-image of an entry as an immutable revision.
func (uc *EntryUseCase) snapshot(ctx context.Context, tx Transaction, entry *domain.Entry, reason domain.RevisionReason, actor domain.Actor, now time.Time) error {
	return uc.revisionRepo.Create(ctx, tx, &domain.EntryRevision{
		ID:        uc.idGen.Generate(),
		EntryID:   entry.ID,
		Reason:    reason,
		ActorID:   actor.ID,
		Snapshot:  *entry,
		CreatedAt: now,
	})
}

// touch bumps the ledger and book updated timestamps.
func (uc *EntryUseCase) touch(ctx context.Context, tx Transaction, ledger *domain.Ledger, now time.Time) error {
	if err := uc.ledgerRepo.Touch(ctx, tx, ledger.ID, now); err != nil {
		return err
	}

	return uc.bookRepo.Touch(ctx, tx, ledger.BookID, now)
}

func (uc *EntryUseCase) invalidateReports(ctx context.Context, ledgerID string) {
	if uc.cache == nil {
		return
	}

	_ = uc.cache.Delete(ctx, overviewCacheKey(ledgerID))
}
