package integration

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/tests/testutil"
)

func TestCrossCurrencyTransfer(t *testing.T) {
	app := testutil.NewApp(t)
	book := createBook(t, app)
	ledgerPath := "/api/v1/ledgers/" + book.MainLedgerID

	checkingUSD := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{
		Name: "Checking", Type: "assets",
		InitialBalance: decimal.RequireFromString("500.00"),
	})
	savingsEUR := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{
		Name: "Savings EUR", Type: "assets", Currency: "EUR",
	})
	exchangeUSD := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{
		Name: "Exchange USD", Type: "equity",
	})
	exchangeEUR := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{
		Name: "Exchange EUR", Type: "equity", Currency: "EUR",
	})

	var entries []dto.EntryResponse
	resp := app.Do(http.MethodPost, ledgerPath+"/transfers", owner, "owner", dto.CreateTransferRequest{
		Date: "2026-08-15",
		From: dto.EntryBodyRequest{
			Description: "to EUR savings",
			Currency:    "USD",
			Lines: []dto.LineRequest{
				{AccountID: exchangeUSD.ID, Direction: "debit", Amount: decimal.RequireFromString("100.00")},
				{AccountID: checkingUSD.ID, Direction: "credit", Amount: decimal.RequireFromString("100.00")},
			},
		},
		To: dto.EntryBodyRequest{
			Description: "from USD checking",
			Currency:    "EUR",
			Lines: []dto.LineRequest{
				{AccountID: savingsEUR.ID, Direction: "debit", Amount: decimal.RequireFromString("92.00")},
				{AccountID: exchangeEUR.ID, Direction: "credit", Amount: decimal.RequireFromString("92.00")},
			},
		},
	}, &entries)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, entries, 2)

	// Both legs carry the same group and date but their own currencies.
	assert.NotEmpty(t, entries[0].TransferGroupID)
	assert.Equal(t, entries[0].TransferGroupID, entries[1].TransferGroupID)
	assert.Equal(t, "USD", entries[0].Currency)
	assert.Equal(t, "EUR", entries[1].Currency)
	assert.Equal(t, "2026-08-15", entries[0].Date)
	assert.Equal(t, "2026-08-15", entries[1].Date)

	var got dto.AccountResponse
	app.Do(http.MethodGet, ledgerPath+"/accounts/"+checkingUSD.ID, owner, "owner", nil, &got)
	assert.Equal(t, int64(40000), got.BalanceMinor)

	app.Do(http.MethodGet, ledgerPath+"/accounts/"+savingsEUR.ID, owner, "owner", nil, &got)
	assert.Equal(t, int64(9200), got.BalanceMinor)

	// The pair is retrievable by its group.
	var listing dto.ListEntriesResponse
	app.Do(http.MethodGet, ledgerPath+"/entries?transfer_group="+entries[0].TransferGroupID, owner, "owner", nil, &listing)
	assert.Len(t, listing.Entries, 2)
}

func TestTransferRejectsImbalancedLeg(t *testing.T) {
	app := testutil.NewApp(t)
	book := createBook(t, app)
	ledgerPath := "/api/v1/ledgers/" + book.MainLedgerID

	checking := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{Name: "Checking", Type: "assets"})
	exchange := createAccount(t, app, book.MainLedgerID, dto.CreateAccountRequest{Name: "Exchange", Type: "equity"})

	resp := app.Do(http.MethodPost, ledgerPath+"/transfers", owner, "owner", dto.CreateTransferRequest{
		Date: "2026-08-15",
		From: dto.EntryBodyRequest{
			Description: "lopsided",
			Lines: []dto.LineRequest{
				{AccountID: exchange.ID, Direction: "debit", Amount: decimal.RequireFromString("100.00")},
				{AccountID: checking.ID, Direction: "credit", Amount: decimal.RequireFromString("90.00")},
			},
		},
		To: dto.EntryBodyRequest{
			Description: "fine",
			Lines: []dto.LineRequest{
				{AccountID: checking.ID, Direction: "debit", Amount: decimal.RequireFromString("90.00")},
				{AccountID: exchange.ID, Direction: "credit", Amount: decimal.RequireFromString("90.00")},
			},
		},
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Nothing committed from either leg.
	var got dto.AccountResponse
	app.Do(http.MethodGet, ledgerPath+"/accounts/"+checking.ID, owner, "owner", nil, &got)
	assert.Equal(t, int64(0), got.BalanceMinor)
}
