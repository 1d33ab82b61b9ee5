package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
)

// ReportUseCase builds read-only views over the ledger: overview totals and
// period summaries. Totals are computed per currency; there is no
// cross-currency summation because no exchange-rate source is defined.
type ReportUseCase struct {
	ledgerRepo  LedgerRepository
	accountRepo AccountRepository
	entryRepo   EntryRepository
	cache       Cache // optional
	cacheTTL    time.Duration
}

// NewReportUseCase creates a new ReportUseCase. cache may be nil.
func NewReportUseCase(
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	cache Cache,
	cacheTTL time.Duration,
) *ReportUseCase {
	return &ReportUseCase{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

func overviewCacheKey(ledgerID string) string {
	return "report:overview:" + ledgerID
}

// CurrencyTotal is the overview of one currency, in minor units.
type CurrencyTotal struct {
	Currency    string `json:"currency"`
	Assets      int64  `json:"assets"`
	Liabilities int64  `json:"liabilities"`
	NetWorth    int64  `json:"net_worth"`
}

// Overview is the per-currency assets/liabilities/net-worth view of a ledger.
// Archived accounts are excluded from the totals.
type Overview struct {
	LedgerID    string          `json:"ledger_id"`
	Totals      []CurrencyTotal `json:"totals"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// GetOverview computes (or serves from cache) the overview totals.
func (uc *ReportUseCase) GetOverview(ctx context.Context, ledgerID string) (*Overview, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, overviewCacheKey(ledgerID)); err == nil {
			var cached Overview
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	if _, err := uc.ledgerRepo.GetByID(ctx, ledgerID); err != nil {
		return nil, err
	}

	accounts, err := uc.accountRepo.ListByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	type pair struct{ assets, liabilities int64 }

	byCurrency := make(map[string]*pair)
	for _, account := range accounts {
		if account.Archived {
			continue
		}

		totals := byCurrency[account.Currency]
		if totals == nil {
			totals = &pair{}
			byCurrency[account.Currency] = totals
		}

		switch account.Type {
		case domain.TypeAssets:
			totals.assets += account.Balance
		case domain.TypeLiabilities:
			totals.liabilities += account.Balance
		}
	}

	overview := &Overview{
		LedgerID:    ledgerID,
		Totals:      make([]CurrencyTotal, 0, len(byCurrency)),
		GeneratedAt: time.Now().UTC(),
	}

	for currency, totals := range byCurrency {
		overview.Totals = append(overview.Totals, CurrencyTotal{
			Currency:    currency,
			Assets:      totals.assets,
			Liabilities: totals.liabilities,
			NetWorth:    totals.assets - totals.liabilities,
		})
	}

	sort.Slice(overview.Totals, func(i, j int) bool {
		return overview.Totals[i].Currency < overview.Totals[j].Currency
	})

	if uc.cache != nil {
		if data, err := json.Marshal(overview); err == nil {
			_ = uc.cache.Set(ctx, overviewCacheKey(ledgerID), data, uc.cacheTTL)
		}
	}

	return overview, nil
}

// PeriodTotal is the income/expense movement of one currency over a period,
// in minor units.
type PeriodTotal struct {
	Currency  string `json:"currency"`
	Income    int64  `json:"income"`
	Expenses  int64  `json:"expenses"`
	NetChange int64  `json:"net_change"`
}

// PeriodSummary aggregates income and expense movement over a date range.
type PeriodSummary struct {
	LedgerID string        `json:"ledger_id"`
	From     domain.Date   `json:"from"`
	To       domain.Date   `json:"to"`
	Totals   []PeriodTotal `json:"totals"`
}

// GetPeriodSummary replays non-deleted entries dated within [from, to] and
// sums the movement of income and expense accounts per currency.
func (uc *ReportUseCase) GetPeriodSummary(ctx context.Context, ledgerID string, from, to domain.Date) (*PeriodSummary, error) {
	if from.IsZero() || to.IsZero() || from.After(to) {
		return nil, domain.ErrInvalidDate
	}

	if _, err := uc.ledgerRepo.GetByID(ctx, ledgerID); err != nil {
		return nil, err
	}

	accounts, err := uc.accountRepo.ListByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	typeByID := make(map[string]domain.AccountType, len(accounts))
	for _, account := range accounts {
		typeByID[account.ID] = account.Type
	}

	entries, err := uc.entryRepo.ListForReplay(ctx, nil, ledgerID, &to)
	if err != nil {
		return nil, err
	}

	type pair struct{ income, expenses int64 }

	byCurrency := make(map[string]*pair)
	for _, entry := range entries {
		if entry.Date.Before(from) {
			continue
		}

		totals := byCurrency[entry.Currency]
		if totals == nil {
			totals = &pair{}
			byCurrency[entry.Currency] = totals
		}

		for _, line := range entry.Lines {
			switch typeByID[line.AccountID] {
			case domain.TypeIncome:
				totals.income += domain.SignedDelta(domain.TypeIncome, line.Direction, line.Amount)
			case domain.TypeExpenses:
				totals.expenses += domain.SignedDelta(domain.TypeExpenses, line.Direction, line.Amount)
			}
		}
	}

	summary := &PeriodSummary{
		LedgerID: ledgerID,
		From:     from,
		To:       to,
		Totals:   make([]PeriodTotal, 0, len(byCurrency)),
	}

	for currency, totals := range byCurrency {
		summary.Totals = append(summary.Totals, PeriodTotal{
			Currency:  currency,
			Income:    totals.income,
			Expenses:  totals.expenses,
			NetChange: totals.income - totals.expenses,
		})
	}

	sort.Slice(summary.Totals, func(i, j int) bool {
		return summary.Totals[i].Currency < summary.Totals[j].Currency
	})

	return summary, nil
}
