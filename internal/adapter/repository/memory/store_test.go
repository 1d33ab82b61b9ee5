package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

func newTestAccount(id, path string) *domain.Account {
	return &domain.Account{
		ID:       id,
		LedgerID: "ledger-1",
		Name:     path,
		Type:     domain.TypeAssets,
		Currency: "USD",
		Path:     path,
	}
}

func TestTxCommitPersists(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	mgr := NewTxManager(store)
	accounts := NewAccountRepository(store)

	tx, err := mgr.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := accounts.Create(ctx, tx, newTestAccount("acc-1", "Assets:Cash")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	account, err := accounts.GetByID(ctx, "acc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if account.Path != "Assets:Cash" {
		t.Errorf("path = %s", account.Path)
	}

	// Rollback after Commit is a no-op.
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback after commit: %v", err)
	}
	if _, err := accounts.GetByID(ctx, "acc-1"); err != nil {
		t.Errorf("account vanished after no-op rollback: %v", err)
	}
}

func TestTxRollbackUndoesWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	mgr := NewTxManager(store)
	accounts := NewAccountRepository(store)

	tx, _ := mgr.Begin(ctx)
	if err := accounts.Create(ctx, tx, newTestAccount("acc-1", "Assets:Cash")); err != nil {
		t.Fatalf("create: %v", err)
	}
	tx.Commit(ctx)

	now := time.Now().UTC()

	tx, _ = mgr.Begin(ctx)
	if err := accounts.ApplyDelta(ctx, tx, "acc-1", 500, now); err != nil {
		t.Fatalf("apply delta: %v", err)
	}
	if err := accounts.Create(ctx, tx, newTestAccount("acc-2", "Assets:Bank")); err != nil {
		t.Fatalf("create second: %v", err)
	}
	if err := accounts.SetBalance(ctx, tx, "acc-1", 9999, now); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	account, err := accounts.GetByID(ctx, "acc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if account.Balance != 0 {
		t.Errorf("balance = %d, want 0 after rollback", account.Balance)
	}
	if _, err := accounts.GetByID(ctx, "acc-2"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("rolled back create still visible: %v", err)
	}
}

func TestTxFinishedRejected(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	mgr := NewTxManager(store)
	accounts := NewAccountRepository(store)

	tx, _ := mgr.Begin(ctx)
	tx.Commit(ctx)

	if err := accounts.Create(ctx, tx, newTestAccount("acc-1", "Assets:Cash")); !errors.Is(err, errTxDone) {
		t.Errorf("error = %v, want errTxDone", err)
	}
	if err := tx.Commit(ctx); !errors.Is(err, errTxDone) {
		t.Errorf("second commit = %v, want errTxDone", err)
	}
}

func TestTxForeignStoreRejected(t *testing.T) {
	ctx := context.Background()
	other := NewTxManager(NewStore())
	accounts := NewAccountRepository(NewStore())

	tx, _ := other.Begin(ctx)
	defer tx.Rollback(ctx)

	if err := accounts.Create(ctx, tx, newTestAccount("acc-1", "Assets:Cash")); !errors.Is(err, errInvalidTx) {
		t.Errorf("error = %v, want errInvalidTx", err)
	}
}

func TestAccountDuplicatePath(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	mgr := NewTxManager(store)
	accounts := NewAccountRepository(store)

	tx, _ := mgr.Begin(ctx)
	if err := accounts.Create(ctx, tx, newTestAccount("acc-1", "Assets:Cash")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := accounts.Create(ctx, tx, newTestAccount("acc-2", "Assets:Cash")); !errors.Is(err, domain.ErrDuplicatePath) {
		t.Errorf("error = %v, want ErrDuplicatePath", err)
	}
	if err := accounts.Create(ctx, tx, newTestAccount("acc-2", "Assets:Bank")); err != nil {
		t.Fatalf("create second: %v", err)
	}

	moved := newTestAccount("acc-2", "Assets:Cash")
	if err := accounts.Update(ctx, tx, moved); !errors.Is(err, domain.ErrDuplicatePath) {
		t.Errorf("update error = %v, want ErrDuplicatePath", err)
	}
	tx.Rollback(ctx)
}

func TestEntryMarkDeletedRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	mgr := NewTxManager(store)
	entries := NewEntryRepository(store)

	now := time.Now().UTC()
	tx, _ := mgr.Begin(ctx)
	if err := entries.Create(ctx, tx, &domain.Entry{
		ID:        "entry-1",
		LedgerID:  "ledger-1",
		Date:      domain.NewDate(2026, time.August, 10),
		Currency:  "USD",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	tx.Commit(ctx)

	tx, _ = mgr.Begin(ctx)
	if err := entries.MarkDeleted(ctx, tx, "entry-1", now.Add(time.Minute), 2); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	tx.Rollback(ctx)

	entry, err := entries.GetByID(ctx, "entry-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.Deleted() || entry.Version != 1 {
		t.Errorf("entry = %+v, want undeleted version 1", entry)
	}
}

func TestEntryReplayOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	mgr := NewTxManager(store)
	entries := NewEntryRepository(store)

	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)

	seed := []*domain.Entry{
		{ID: "01B", LedgerID: "ledger-1", Date: domain.NewDate(2026, time.August, 5), CreatedAt: base, Version: 1},
		{ID: "01A", LedgerID: "ledger-1", Date: domain.NewDate(2026, time.August, 5), CreatedAt: base, Version: 1},
		{ID: "01C", LedgerID: "ledger-1", Date: domain.NewDate(2026, time.August, 5), CreatedAt: base.Add(time.Hour), Version: 1},
		{ID: "01D", LedgerID: "ledger-1", Date: domain.NewDate(2026, time.August, 2), CreatedAt: base.Add(2 * time.Hour), Version: 1},
		{ID: "01E", LedgerID: "ledger-1", Date: domain.NewDate(2026, time.August, 9), CreatedAt: base, Version: 1},
	}

	tx, _ := mgr.Begin(ctx)
	for _, entry := range seed {
		if err := entries.Create(ctx, tx, entry); err != nil {
			t.Fatalf("create %s: %v", entry.ID, err)
		}
	}
	if err := entries.MarkDeleted(ctx, tx, "01E", base.Add(3*time.Hour), 2); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	tx.Commit(ctx)

	// Ascending (date, createdAt, id); the deleted entry never replays.
	replay, err := entries.ListForReplay(ctx, nil, "ledger-1", nil)
	if err != nil {
		t.Fatalf("list for replay: %v", err)
	}
	wantReplay := []string{"01D", "01A", "01B", "01C"}
	if len(replay) != len(wantReplay) {
		t.Fatalf("replay = %d entries, want %d", len(replay), len(wantReplay))
	}
	for i, want := range wantReplay {
		if replay[i].ID != want {
			t.Errorf("replay[%d] = %s, want %s", i, replay[i].ID, want)
		}
	}

	asOf := domain.NewDate(2026, time.August, 2)
	replay, err = entries.ListForReplay(ctx, nil, "ledger-1", &asOf)
	if err != nil {
		t.Fatalf("list as of: %v", err)
	}
	if len(replay) != 1 || replay[0].ID != "01D" {
		t.Errorf("as-of replay = %+v, want only 01D", replay)
	}

	// Listing shows newest first and paginates.
	listing, err := entries.ListByLedger(ctx, "ledger-1", domain.EntryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantListing := []string{"01C", "01B", "01A", "01D"}
	for i, want := range wantListing {
		if listing[i].ID != want {
			t.Errorf("listing[%d] = %s, want %s", i, listing[i].ID, want)
		}
	}

	page, err := entries.ListByLedger(ctx, "ledger-1", domain.EntryFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 2 || page[0].ID != "01B" || page[1].ID != "01A" {
		t.Errorf("page = %+v, want 01B, 01A", page)
	}

	empty, err := entries.ListByLedger(ctx, "ledger-1", domain.EntryFilter{Offset: 10})
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("past-end page = %d entries, want none", len(empty))
	}
}

func TestCacheTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewCache()

	if _, err := cache.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("error = %v, want ErrCacheMiss", err)
	}

	if err := cache.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := cache.Get(ctx, "k")
	if err != nil || string(value) != "v" {
		t.Errorf("get = %q, %v", value, err)
	}

	if err := cache.Set(ctx, "expired", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("set expired: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := cache.Get(ctx, "expired"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired key error = %v, want ErrCacheMiss", err)
	}

	cache.Delete(ctx, "k")
	if _, err := cache.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("deleted key error = %v, want ErrCacheMiss", err)
	}
}

func TestIdempotencyStoreCheckAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()

	seen, _, err := store.CheckAndSet(ctx, "key-1", []byte("pending"), time.Minute)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if seen {
		t.Error("fresh key reported as seen")
	}

	if err := store.Update(ctx, "key-1", []byte("final"), time.Minute); err != nil {
		t.Fatalf("update: %v", err)
	}

	seen, stored, err := store.CheckAndSet(ctx, "key-1", []byte("other"), time.Minute)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !seen || string(stored) != "final" {
		t.Errorf("replay = %v, %q, want true, final", seen, stored)
	}

	// A nil response claims the key with the in-flight placeholder, same as
	// the redis store.
	seen, _, err = store.CheckAndSet(ctx, "key-2", nil, time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if seen {
		t.Error("fresh claim reported as seen")
	}

	seen, stored, err = store.CheckAndSet(ctx, "key-2", nil, time.Minute)
	if err != nil {
		t.Fatalf("repeat claim: %v", err)
	}
	if !seen || string(stored) != usecase.IdempotencyProcessing {
		t.Errorf("claim replay = %v, %q, want true, %q", seen, stored, usecase.IdempotencyProcessing)
	}
}
