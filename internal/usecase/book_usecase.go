package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
)

// BookUseCase handles book and membership business logic.
type BookUseCase struct {
	txManager   TransactionManager
	bookRepo    BookRepository
	ledgerRepo  LedgerRepository
	accountRepo AccountRepository
	memberRepo  MemberRepository
	idGen       IDGenerator
}

// NewBookUseCase creates a new BookUseCase.
func NewBookUseCase(
	txManager TransactionManager,
	bookRepo BookRepository,
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	memberRepo MemberRepository,
	idGen IDGenerator,
) *BookUseCase {
	return &BookUseCase{
		txManager:   txManager,
		bookRepo:    bookRepo,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		memberRepo:  memberRepo,
		idGen:       idGen,
	}
}

// CreateBookInput represents input for creating a book.
type CreateBookInput struct {
	Actor           domain.Actor
	Name            string
	DefaultCurrency string
}

// CreateBook creates a book with its main ledger and the five immutable type
// root accounts, and records the creating actor as owner.
func (uc *BookUseCase) CreateBook(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	name := strings.TrimSpace(input.Name)
	if err := domain.ValidateAccountName(name); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(input.DefaultCurrency); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	ledger := &domain.Ledger{
		ID:              uc.idGen.Generate(),
		Name:            "main",
		Type:            domain.LedgerMain,
		DefaultCurrency: input.DefaultCurrency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	book := &domain.Book{
		ID:              uc.idGen.Generate(),
		Name:            name,
		DefaultCurrency: input.DefaultCurrency,
		MainLedgerID:    ledger.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	ledger.BookID = book.ID

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.bookRepo.Create(ctx, tx, book); err != nil {
		return nil, err
	}

	if err := uc.ledgerRepo.Create(ctx, tx, ledger); err != nil {
		return nil, err
	}

	for _, accountType := range domain.AccountTypes {
		root := &domain.Account{
			ID:        uc.idGen.Generate(),
			LedgerID:  ledger.ID,
			Name:      accountType.RootName(),
			Type:      accountType,
			Currency:  input.DefaultCurrency,
			Path:      accountType.RootName(),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := uc.accountRepo.Create(ctx, tx, root); err != nil {
			return nil, err
		}
	}

	owner := &domain.Member{
		BookID:    book.ID,
		ActorID:   input.Actor.ID,
		Role:      domain.RoleOwner,
		CreatedAt: now,
	}

	if err := uc.memberRepo.Create(ctx, tx, owner); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return book, nil
}

// GetBook retrieves a book by ID.
func (uc *BookUseCase) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return uc.bookRepo.GetByID(ctx, id)
}

// GetLedger retrieves a ledger by ID.
func (uc *BookUseCase) GetLedger(ctx context.Context, id string) (*domain.Ledger, error) {
	return uc.ledgerRepo.GetByID(ctx, id)
}

// AddMemberInput represents input for adding a book member.
type AddMemberInput struct {
	Actor   domain.Actor
	BookID  string
	ActorID string
	Role    domain.Role
}

// AddMember binds an actor identity to a book. Only recorded owners manage
// membership.
func (uc *BookUseCase) AddMember(ctx context.Context, input AddMemberInput) (*domain.Member, error) {
	if err := domain.ValidateRole(input.Role); err != nil {
		return nil, err
	}

	if _, err := uc.bookRepo.GetByID(ctx, input.BookID); err != nil {
		return nil, err
	}

	role, err := memberRole(ctx, uc.memberRepo, input.BookID, input.Actor)
	if err != nil {
		return nil, err
	}

	if !role.CanManageMembers() {
		return nil, domain.ErrInsufficientRole
	}

	member := &domain.Member{
		BookID:    input.BookID,
		ActorID:   input.ActorID,
		Role:      input.Role,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.memberRepo.Create(ctx, tx, member); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return member, nil
}

// ListMembers lists the members of a book.
func (uc *BookUseCase) ListMembers(ctx context.Context, bookID string) ([]*domain.Member, error) {
	return uc.memberRepo.ListByBook(ctx, bookID)
}
