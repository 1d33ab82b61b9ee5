package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
)

// RebuildUseCase is the reconstruction engine: it re-derives account balances
// from the entry log. The entry log is the single source of truth; the cached
// balances must always replay to identical values.
type RebuildUseCase struct {
	txManager   TransactionManager
	ledgerRepo  LedgerRepository
	accountRepo AccountRepository
	entryRepo   EntryRepository
	cache       Cache // optional
}

// NewRebuildUseCase creates a new RebuildUseCase. cache may be nil.
func NewRebuildUseCase(
	txManager TransactionManager,
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	cache Cache,
) *RebuildUseCase {
	return &RebuildUseCase{
		txManager:   txManager,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		cache:       cache,
	}
}

// RebuildResult reports what a full rebuild touched.
type RebuildResult struct {
	LedgerID    string    `json:"ledger_id"`
	Accounts    int       `json:"accounts"`
	Entries     int       `json:"entries"`
	CompletedAt time.Time `json:"completed_at"`
}

// FullRebuild zeroes every cached balance of the ledger and replays every
// non-deleted entry in ascending (date, createdAt, id) order, applying line
// deltas through the same normal-balance rule as the mutation path. Used to
// repair drift; correct at any time the ledger is at rest.
func (uc *RebuildUseCase) FullRebuild(ctx context.Context, ledgerID string) (*RebuildResult, error) {
	ledger, err := uc.ledgerRepo.GetByID(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.ListByLedgerForUpdate(ctx, tx, ledger.ID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListForReplay(ctx, tx, ledger.ID, nil)
	if err != nil {
		return nil, err
	}

	balances := replayBalances(accounts, entries)

	for _, account := range accounts {
		if err := uc.accountRepo.SetBalance(ctx, tx, account.ID, balances[account.ID], now); err != nil {
			return nil, err
		}
	}

	if err := uc.ledgerRepo.Touch(ctx, tx, ledger.ID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, overviewCacheKey(ledger.ID))
	}

	return &RebuildResult{
		LedgerID:    ledger.ID,
		Accounts:    len(accounts),
		Entries:     len(entries),
		CompletedAt: now,
	}, nil
}

// AccountBalance is one account's balance in a point-in-time view.
type AccountBalance struct {
	AccountID string             `json:"account_id"`
	Path      string             `json:"path"`
	Type      domain.AccountType `json:"type"`
	Currency  string             `json:"currency"`
	Balance   int64              `json:"balance"`
}

// BalanceAsOf computes every account's balance as of the end of the given
// day by replaying entries dated on or before it. O(entries) per call;
// snapshots would be a future optimization, not part of the core contract.
func (uc *RebuildUseCase) BalanceAsOf(ctx context.Context, ledgerID string, asOf domain.Date) ([]AccountBalance, error) {
	if asOf.IsZero() {
		return nil, domain.ErrInvalidDate
	}

	if _, err := uc.ledgerRepo.GetByID(ctx, ledgerID); err != nil {
		return nil, err
	}

	accounts, err := uc.accountRepo.ListByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListForReplay(ctx, nil, ledgerID, &asOf)
	if err != nil {
		return nil, err
	}

	balances := replayBalances(accounts, entries)

	rows := make([]AccountBalance, 0, len(accounts))
	for _, account := range accounts {
		rows = append(rows, AccountBalance{
			AccountID: account.ID,
			Path:      account.Path,
			Type:      account.Type,
			Currency:  account.Currency,
			Balance:   balances[account.ID],
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })

	return rows, nil
}

// BalanceDrift is a divergence between a cached balance and its replayed
// value.
type BalanceDrift struct {
	AccountID string `json:"account_id"`
	Path      string `json:"path"`
	Cached    int64  `json:"cached"`
	Replayed  int64  `json:"replayed"`
}

// VerifyResult is the outcome of a rebuild/compare integrity check.
type VerifyResult struct {
	LedgerID  string         `json:"ledger_id"`
	Checked   int            `json:"checked"`
	Drift     []BalanceDrift `json:"drift,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

// VerifyBalances replays the entry log and compares the result against the
// live balance cache. Drift is a data-repair event surfaced to the operator,
// not a runtime error: the remedy is FullRebuild.
func (uc *RebuildUseCase) VerifyBalances(ctx context.Context, ledgerID string) (*VerifyResult, error) {
	if _, err := uc.ledgerRepo.GetByID(ctx, ledgerID); err != nil {
		return nil, err
	}

	accounts, err := uc.accountRepo.ListByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListForReplay(ctx, nil, ledgerID, nil)
	if err != nil {
		return nil, err
	}

	balances := replayBalances(accounts, entries)

	result := &VerifyResult{
		LedgerID:  ledgerID,
		Checked:   len(accounts),
		CheckedAt: time.Now().UTC(),
	}

	for _, account := range accounts {
		if account.Balance != balances[account.ID] {
			result.Drift = append(result.Drift, BalanceDrift{
				AccountID: account.ID,
				Path:      account.Path,
				Cached:    account.Balance,
				Replayed:  balances[account.ID],
			})
		}
	}

	sort.Slice(result.Drift, func(i, j int) bool { return result.Drift[i].Path < result.Drift[j].Path })

	return result, nil
}

// replayBalances folds entry lines into per-account balances, starting from
// zero, using the shared normal-balance sign rule.
func replayBalances(accounts []*domain.Account, entries []*domain.Entry) map[string]int64 {
	typeByID := make(map[string]domain.AccountType, len(accounts))

	balances := make(map[string]int64, len(accounts))
	for _, account := range accounts {
		typeByID[account.ID] = account.Type
		balances[account.ID] = 0
	}

	for _, entry := range entries {
		for _, line := range entry.Lines {
			accountType, ok := typeByID[line.AccountID]
			if !ok {
				continue
			}

			balances[line.AccountID] += domain.SignedDelta(accountType, line.Direction, line.Amount)
		}
	}

	return balances
}
