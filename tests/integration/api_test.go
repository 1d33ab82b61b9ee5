package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/usecase"
	"github.com/iho/bookkeeper/tests/testutil"
)

const (
	owner = "user-owner"
)

func createBook(t *testing.T, app *testutil.App) *dto.BookResponse {
	t.Helper()

	var book dto.BookResponse
	resp := app.Do(http.MethodPost, "/api/v1/books", owner, "owner", dto.CreateBookRequest{
		Name:            "Household",
		DefaultCurrency: "USD",
	}, &book)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return &book
}

func createAccount(t *testing.T, app *testutil.App, ledgerID string, req dto.CreateAccountRequest) *dto.AccountResponse {
	t.Helper()

	var account dto.AccountResponse
	resp := app.Do(http.MethodPost, fmt.Sprintf("/api/v1/ledgers/%s/accounts", ledgerID), owner, "owner", req, &account)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return &account
}

func TestBookBootstrap(t *testing.T) {
	app := testutil.NewApp(t)

	book := createBook(t, app)
	assert.NotEmpty(t, book.ID)
	assert.NotEmpty(t, book.MainLedgerID)
	assert.Equal(t, "USD", book.DefaultCurrency)

	// The five type roots exist from the start.
	var rows []dto.AccountGroupRowResponse
	resp := app.Do(http.MethodGet, fmt.Sprintf("/api/v1/ledgers/%s/accounts", book.MainLedgerID), owner, "owner", nil, &rows)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, rows, 5)

	paths := make([]string, 0, len(rows))
	for _, row := range rows {
		paths = append(paths, row.Path)
		assert.Equal(t, 0, row.Level)
	}
	assert.ElementsMatch(t, []string{"Assets", "Liabilities", "Equity", "Income", "Expenses"}, paths)
}

func TestEntryLifecycle(t *testing.T) {
	app := testutil.NewApp(t)
	book := createBook(t, app)
	ledgerPath := "/api/v1/ledgers/" + book.MainLedgerID

	cash := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{Name: "Cash", Type: "assets"})
	salary := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{Name: "Salary", Type: "income"})

	// Income into an asset account: both balances grow.
	var entry dto.EntryResponse
	resp := app.Do(http.MethodPost, ledgerPath+"/entries", owner, "owner", dto.EntryBodyRequest{
		Date:        "2026-08-01",
		Description: "August salary",
		Lines: []dto.LineRequest{
			{AccountID: cash.ID, Direction: "debit", Amount: decimal.RequireFromString("1000.00")},
			{AccountID: salary.ID, Direction: "credit", Amount: decimal.RequireFromString("1000.00")},
		},
	}, &entry)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, int64(1), entry.Version)

	var got dto.AccountResponse
	app.Do(http.MethodGet, ledgerPath+"/accounts/"+cash.ID, owner, "owner", nil, &got)
	assert.Equal(t, int64(100000), got.BalanceMinor)

	app.Do(http.MethodGet, ledgerPath+"/accounts/"+salary.ID, owner, "owner", nil, &got)
	assert.Equal(t, int64(100000), got.BalanceMinor)

	// Modify with a stale version is rejected.
	modify := dto.ModifyEntryRequest{ExpectedVersion: 99}
	modify.Date = "2026-08-01"
	modify.Description = "corrected"
	modify.Lines = []dto.LineRequest{
		{AccountID: cash.ID, Direction: "debit", Amount: decimal.RequireFromString("900.00")},
		{AccountID: salary.ID, Direction: "credit", Amount: decimal.RequireFromString("900.00")},
	}
	resp = app.Do(http.MethodPut, ledgerPath+"/entries/"+entry.ID, owner, "owner", modify, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Modify with the right version replaces the body and reapplies deltas.
	modify.ExpectedVersion = entry.Version
	var modified dto.EntryResponse
	resp = app.Do(http.MethodPut, ledgerPath+"/entries/"+entry.ID, owner, "owner", modify, &modified)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(2), modified.Version)

	app.Do(http.MethodGet, ledgerPath+"/accounts/"+cash.ID, owner, "owner", nil, &got)
	assert.Equal(t, int64(90000), got.BalanceMinor)

	// Soft delete reverses the deltas and keeps the entry readable.
	resp = app.Do(http.MethodDelete, ledgerPath+"/entries/"+entry.ID, owner, "owner",
		dto.DeleteEntryRequest{ExpectedVersion: modified.Version}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	app.Do(http.MethodGet, ledgerPath+"/accounts/"+cash.ID, owner, "owner", nil, &got)
	assert.Equal(t, int64(0), got.BalanceMinor)

	var deleted dto.EntryResponse
	resp = app.Do(http.MethodGet, ledgerPath+"/entries/"+entry.ID, owner, "owner", nil, &deleted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, deleted.DeletedAt)

	// Deleted entries are hidden from the default listing.
	var listing dto.ListEntriesResponse
	app.Do(http.MethodGet, ledgerPath+"/entries", owner, "owner", nil, &listing)
	assert.Empty(t, listing.Entries)

	// Two revisions: the pre-modify and pre-delete snapshots.
	var revisions []dto.RevisionResponse
	app.Do(http.MethodGet, ledgerPath+"/entries/"+entry.ID+"/revisions", owner, "owner", nil, &revisions)
	require.Len(t, revisions, 2)
	assert.Equal(t, "modify", revisions[0].Reason)
	assert.Equal(t, "delete", revisions[1].Reason)
}

func TestMemberRoleEnforcement(t *testing.T) {
	app := testutil.NewApp(t)
	book := createBook(t, app)
	ledgerPath := "/api/v1/ledgers/" + book.MainLedgerID

	// No actor header at all.
	resp := app.Do(http.MethodGet, ledgerPath+"/accounts", "", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cash := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{Name: "Cash", Type: "assets"})
	income := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{Name: "Gifts", Type: "income"})

	// An actor without a membership cannot write, whatever role the header
	// claims.
	resp = app.Do(http.MethodPost, ledgerPath+"/entries", "user-two", "owner", dto.EntryBodyRequest{
		Date:        "2026-08-10",
		Description: "intrusion",
		Lines: []dto.LineRequest{
			{AccountID: cash.ID, Direction: "debit", Amount: decimal.RequireFromString("50.00")},
			{AccountID: income.ID, Direction: "credit", Amount: decimal.RequireFromString("50.00")},
		},
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The owner grants membership.
	resp = app.Do(http.MethodPost, "/api/v1/books/"+book.ID+"/members", owner, "owner",
		dto.AddMemberRequest{ActorID: "user-two", Role: "member"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// A plain member cannot manage accounts.
	resp = app.Do(http.MethodPost, ledgerPath+"/accounts", "user-two", "member",
		dto.CreateAccountRequest{Name: "Wallet", Type: "assets"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// But can write entries.
	resp = app.Do(http.MethodPost, ledgerPath+"/entries", "user-two", "member", dto.EntryBodyRequest{
		Date:        "2026-08-10",
		Description: "birthday gift",
		Lines: []dto.LineRequest{
			{AccountID: cash.ID, Direction: "debit", Amount: decimal.RequireFromString("50.00")},
			{AccountID: income.ID, Direction: "credit", Amount: decimal.RequireFromString("50.00")},
		},
	}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRebuildAndVerify(t *testing.T) {
	app := testutil.NewApp(t)
	book := createBook(t, app)
	ledgerPath := "/api/v1/ledgers/" + book.MainLedgerID

	cash := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{
		Name:           "Cash",
		Type:           "assets",
		InitialBalance: decimal.RequireFromString("250.00"),
	})
	groceries := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{Name: "Groceries", Type: "expenses"})

	resp := app.Do(http.MethodPost, ledgerPath+"/entries", owner, "owner", dto.EntryBodyRequest{
		Date:        "2026-08-07",
		Description: "weekly shop",
		Lines: []dto.LineRequest{
			{AccountID: groceries.ID, Direction: "debit", Amount: decimal.RequireFromString("86.40")},
			{AccountID: cash.ID, Direction: "credit", Amount: decimal.RequireFromString("86.40")},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Clean books verify with no drift.
	var verify usecase.VerifyResult
	resp = app.Do(http.MethodGet, ledgerPath+"/verify", owner, "owner", nil, &verify)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, verify.Drift)

	// Rebuild reproduces the same balances from the entry log alone.
	var rebuild usecase.RebuildResult
	resp = app.Do(http.MethodPost, ledgerPath+"/rebuild", owner, "owner", nil, &rebuild)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got dto.AccountResponse
	app.Do(http.MethodGet, ledgerPath+"/accounts/"+cash.ID, owner, "owner", nil, &got)
	assert.Equal(t, int64(25000-8640), got.BalanceMinor)

	// Overview nets assets against liabilities per currency.
	var overview usecase.Overview
	resp = app.Do(http.MethodGet, ledgerPath+"/overview", owner, "owner", nil, &overview)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, overview.Totals, 1)
	assert.Equal(t, "USD", overview.Totals[0].Currency)
	assert.Equal(t, int64(25000-8640), overview.Totals[0].Assets)
	assert.Equal(t, int64(25000-8640), overview.Totals[0].NetWorth)
}
