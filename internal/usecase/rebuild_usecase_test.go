package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

func seedReplayEntries(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	entryUC := f.entryUseCase()

	add := func(date domain.Date, description string, entryLines []usecase.LineInput) *domain.Entry {
		entry, err := entryUC.AddEntry(ctx, usecase.AddEntryInput{
			Actor:    ownerActor,
			LedgerID: "ledger-1",
			Date:     date,
			EntryDraft: usecase.EntryDraft{
				Description: description,
				Lines:       entryLines,
			},
		})
		if err != nil {
			t.Fatalf("add %s: %v", description, err)
		}
		return entry
	}

	add(mustDate(2026, time.August, 10), "salary",
		lines(debit("acc-cash", 100000), credit("acc-salary", 100000)))
	add(mustDate(2026, time.August, 20), "groceries",
		lines(debit("acc-food", 4000), credit("acc-cash", 4000)))

	// A deleted entry must leave no trace in replayed balances.
	dining := add(mustDate(2026, time.August, 25), "dining",
		lines(debit("acc-food", 2500), credit("acc-cash", 2500)))
	if err := entryUC.DeleteEntry(ctx, usecase.DeleteEntryInput{
		Actor: ownerActor, LedgerID: "ledger-1", EntryID: dining.ID, ExpectedVersion: 1,
	}); err != nil {
		t.Fatalf("delete dining: %v", err)
	}
}

func TestRebuildUseCase_FullRebuild(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedReplayEntries(t, f)

	// Corrupt the cached balance so the rebuild has something to repair.
	if err := f.accounts.SetBalance(ctx, nil, "acc-cash", 999, time.Now().UTC()); err != nil {
		t.Fatalf("corrupt balance: %v", err)
	}

	result, err := f.rebuildUseCase().FullRebuild(ctx, "ledger-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.LedgerID != "ledger-1" || result.Accounts != 9 || result.Entries != 2 {
		t.Errorf("result = %+v", result)
	}
	if f.txManager.Last == nil || !f.txManager.Last.Committed {
		t.Error("rebuild transaction was not committed")
	}

	if got := f.balance("acc-cash"); got != 96000 {
		t.Errorf("cash = %d, want 96000", got)
	}
	if got := f.balance("acc-food"); got != 4000 {
		t.Errorf("food = %d, want 4000", got)
	}
	if got := f.balance("acc-salary"); got != 100000 {
		t.Errorf("salary = %d, want 100000", got)
	}
}

func TestRebuildUseCase_VerifyBalances(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedReplayEntries(t, f)
	uc := f.rebuildUseCase()

	result, err := uc.VerifyBalances(ctx, "ledger-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Checked != 9 || len(result.Drift) != 0 {
		t.Errorf("clean ledger reported drift: %+v", result)
	}

	if err := f.accounts.SetBalance(ctx, nil, "acc-cash", 999, time.Now().UTC()); err != nil {
		t.Fatalf("corrupt balance: %v", err)
	}

	result, err = uc.VerifyBalances(ctx, "ledger-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Drift) != 1 {
		t.Fatalf("drift = %+v, want one row", result.Drift)
	}

	drift := result.Drift[0]
	if drift.AccountID != "acc-cash" || drift.Cached != 999 || drift.Replayed != 96000 {
		t.Errorf("drift = %+v", drift)
	}
}

func TestRebuildUseCase_BalanceAsOf(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedReplayEntries(t, f)
	uc := f.rebuildUseCase()

	byID := func(rows []usecase.AccountBalance, id string) int64 {
		for _, row := range rows {
			if row.AccountID == id {
				return row.Balance
			}
		}
		t.Fatalf("account %s missing from view", id)
		return 0
	}

	// Mid-month: only the salary entry has landed.
	rows, err := uc.BalanceAsOf(ctx, "ledger-1", mustDate(2026, time.August, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 9 {
		t.Fatalf("rows = %d, want 9", len(rows))
	}
	if got := byID(rows, "acc-cash"); got != 100000 {
		t.Errorf("cash as of Aug 15 = %d, want 100000", got)
	}
	if got := byID(rows, "acc-food"); got != 0 {
		t.Errorf("food as of Aug 15 = %d, want 0", got)
	}

	for i := 1; i < len(rows); i++ {
		if rows[i-1].Path > rows[i].Path {
			t.Fatalf("rows not sorted by path: %q before %q", rows[i-1].Path, rows[i].Path)
		}
	}

	// End of month: both surviving entries are included.
	rows, err = uc.BalanceAsOf(ctx, "ledger-1", mustDate(2026, time.August, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := byID(rows, "acc-cash"); got != 96000 {
		t.Errorf("cash as of Aug 31 = %d, want 96000", got)
	}
	if got := byID(rows, "acc-food"); got != 4000 {
		t.Errorf("food as of Aug 31 = %d, want 4000", got)
	}

	if _, err := uc.BalanceAsOf(ctx, "ledger-1", domain.Date{}); !errors.Is(err, domain.ErrInvalidDate) {
		t.Errorf("error = %v, want ErrInvalidDate", err)
	}
	if _, err := uc.BalanceAsOf(ctx, "ledger-x", mustDate(2026, time.August, 31)); !errors.Is(err, domain.ErrLedgerNotFound) {
		t.Errorf("error = %v, want ErrLedgerNotFound", err)
	}
}

func TestRebuildUseCase_FullRebuildIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedReplayEntries(t, f)
	uc := f.rebuildUseCase()

	if _, err := uc.FullRebuild(ctx, "ledger-1"); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}

	first := make(map[string]int64)
	accounts, err := f.accounts.ListByLedger(ctx, "ledger-1")
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	for _, account := range accounts {
		first[account.ID] = account.Balance
	}

	// Replaying the same log again must land on identical balances.
	if _, err := uc.FullRebuild(ctx, "ledger-1"); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	for _, account := range accounts {
		got, err := f.accounts.GetByID(ctx, account.ID)
		if err != nil {
			t.Fatalf("get %s: %v", account.ID, err)
		}
		if got.Balance != first[account.ID] {
			t.Errorf("%s balance = %d after second rebuild, want %d",
				account.Path, got.Balance, first[account.ID])
		}
	}
}
