package usecase_test

import (
	"context"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
	"github.com/iho/bookkeeper/internal/usecase/mocks"
)

var (
	ownerActor  = domain.Actor{ID: "user-1", Role: domain.RoleOwner}
	memberActor = domain.Actor{ID: "user-2", Role: domain.RoleMember}
)

// fixture wires every use case against map-backed mock repositories seeded
// with one book, its main ledger, a small chart of accounts and two recorded
// members (an owner and a plain member).
type fixture struct {
	txManager *mocks.MockTransactionManager
	books     *mocks.MockBookRepository
	ledgers   *mocks.MockLedgerRepository
	accounts  *mocks.MockAccountRepository
	entries   *mocks.MockEntryRepository
	revisions *mocks.MockRevisionRepository
	members   *mocks.MockMemberRepository
	idGen     *mocks.MockIDGenerator

	ledger *domain.Ledger
}

func newFixture() *fixture {
	f := &fixture{
		txManager: &mocks.MockTransactionManager{},
		books:     mocks.NewMockBookRepository(),
		ledgers:   mocks.NewMockLedgerRepository(),
		accounts:  mocks.NewMockAccountRepository(),
		entries:   mocks.NewMockEntryRepository(),
		revisions: mocks.NewMockRevisionRepository(),
		members:   mocks.NewMockMemberRepository(),
		idGen:     mocks.NewMockIDGenerator("id"),
	}

	ctx := context.Background()
	now := time.Now().UTC()

	f.ledger = &domain.Ledger{
		ID:              "ledger-1",
		BookID:          "book-1",
		Name:            "main",
		Type:            domain.LedgerMain,
		DefaultCurrency: "USD",
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	f.books.Create(ctx, nil, &domain.Book{
		ID:              "book-1",
		Name:            "Test Book",
		DefaultCurrency: "USD",
		MainLedgerID:    "ledger-1",
	})
	f.ledgers.Create(ctx, nil, f.ledger)

	f.members.Create(ctx, nil, &domain.Member{
		BookID: "book-1", ActorID: ownerActor.ID, Role: domain.RoleOwner, CreatedAt: now,
	})
	f.members.Create(ctx, nil, &domain.Member{
		BookID: "book-1", ActorID: memberActor.ID, Role: domain.RoleMember, CreatedAt: now,
	})

	for _, accountType := range domain.AccountTypes {
		f.accounts.Seed(&domain.Account{
			ID:       "root-" + string(accountType),
			LedgerID: "ledger-1",
			Name:     accountType.RootName(),
			Type:     accountType,
			Currency: "USD",
			Path:     accountType.RootName(),
		})
	}

	f.seedAccount("acc-cash", "Cash", domain.TypeAssets, "USD")
	f.seedAccount("acc-salary", "Salary", domain.TypeIncome, "USD")
	f.seedAccount("acc-food", "Groceries", domain.TypeExpenses, "USD")
	f.seedAccount("acc-eur", "Savings EUR", domain.TypeAssets, "EUR")

	return f
}

func (f *fixture) seedAccount(id, name string, accountType domain.AccountType, currency string) {
	f.accounts.Seed(&domain.Account{
		ID:       id,
		LedgerID: "ledger-1",
		Name:     name,
		Type:     accountType,
		Currency: currency,
		ParentID: "root-" + string(accountType),
		Path:     domain.ChildPath(accountType.RootName(), name),
	})
}

func (f *fixture) balance(id string) int64 {
	account, err := f.accounts.GetByID(context.Background(), id)
	if err != nil {
		return 0
	}
	return account.Balance
}

func (f *fixture) entryUseCase() *usecase.EntryUseCase {
	return usecase.NewEntryUseCase(
		f.txManager, f.books, f.ledgers, f.accounts, f.entries, f.revisions, f.members, f.idGen, nil,
	)
}

func (f *fixture) accountUseCase() *usecase.AccountUseCase {
	return usecase.NewAccountUseCase(
		f.txManager, f.books, f.ledgers, f.accounts, f.entries, f.members, f.idGen,
	)
}

func (f *fixture) bookUseCase() *usecase.BookUseCase {
	return usecase.NewBookUseCase(
		f.txManager, f.books, f.ledgers, f.accounts, f.members, f.idGen,
	)
}

func (f *fixture) reportUseCase() *usecase.ReportUseCase {
	return usecase.NewReportUseCase(f.ledgers, f.accounts, f.entries, nil, time.Minute)
}

func (f *fixture) rebuildUseCase() *usecase.RebuildUseCase {
	return usecase.NewRebuildUseCase(f.txManager, f.ledgers, f.accounts, f.entries, nil)
}

func lines(pairs ...usecase.LineInput) []usecase.LineInput {
	return pairs
}

func debit(accountID string, amount int64) usecase.LineInput {
	return usecase.LineInput{AccountID: accountID, Direction: domain.Debit, Amount: amount}
}

func credit(accountID string, amount int64) usecase.LineInput {
	return usecase.LineInput{AccountID: accountID, Direction: domain.Credit, Amount: amount}
}

func mustDate(year int, month time.Month, day int) domain.Date {
	return domain.NewDate(year, month, day)
}
