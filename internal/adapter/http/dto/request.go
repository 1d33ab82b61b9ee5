package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// CreateBookRequest represents a request to create a book.
type CreateBookRequest struct {
	Name            string `json:"name"`
	DefaultCurrency string `json:"default_currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateBookRequest) ToUseCaseInput(actor domain.Actor) usecase.CreateBookInput {
	return usecase.CreateBookInput{
		Actor:           actor,
		Name:            r.Name,
		DefaultCurrency: r.DefaultCurrency,
	}
}

// AddMemberRequest represents a request to add a book member.
type AddMemberRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
}

// ToUseCaseInput converts to use case input.
func (r *AddMemberRequest) ToUseCaseInput(actor domain.Actor, bookID string) usecase.AddMemberInput {
	return usecase.AddMemberInput{
		Actor:   actor,
		BookID:  bookID,
		ActorID: r.ActorID,
		Role:    domain.Role(r.Role),
	}
}

// CreateAccountRequest represents a request to create an account. Amounts are
// major units; the service converts to minor units per the currency.
type CreateAccountRequest struct {
	Name           string          `json:"name"`
	Type           string          `json:"type,omitempty"`
	ParentID       string          `json:"parent_id,omitempty"`
	Currency       string          `json:"currency,omitempty"`
	Icon           string          `json:"icon,omitempty"`
	Note           string          `json:"note,omitempty"`
	InitialBalance decimal.Decimal `json:"initial_balance,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(actor domain.Actor, ledgerID string) usecase.AddAccountInput {
	return usecase.AddAccountInput{
		Actor:          actor,
		LedgerID:       ledgerID,
		Name:           r.Name,
		Type:           domain.AccountType(r.Type),
		ParentID:       r.ParentID,
		Currency:       r.Currency,
		Icon:           r.Icon,
		Note:           r.Note,
		InitialBalance: r.InitialBalance,
	}
}

// PatchAccountRequest renames and/or moves an account. Omitted fields are
// left unchanged.
type PatchAccountRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
}

// ArchiveAccountRequest represents a request to archive an account.
type ArchiveAccountRequest struct {
	Force bool `json:"force,omitempty"`
}

// LineRequest is one leg of a proposed entry, in major units.
type LineRequest struct {
	AccountID string          `json:"account_id"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
}

// EntryBodyRequest is the shared body of entry create and modify requests.
type EntryBodyRequest struct {
	Date        string        `json:"date"`
	Description string        `json:"description"`
	Currency    string        `json:"currency,omitempty"`
	Payee       string        `json:"payee,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Lines       []LineRequest `json:"lines"`
}

// ToDraft converts the body to a use case draft, translating major-unit line
// amounts into minor units of the given currency.
func (r *EntryBodyRequest) ToDraft(defaultCurrency string) (domain.Date, usecase.EntryDraft, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return domain.Date{}, usecase.EntryDraft{}, err
	}

	currency := r.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	lines := make([]usecase.LineInput, 0, len(r.Lines))
	for _, line := range r.Lines {
		money, err := domain.MoneyFromDecimal(line.Amount, currency)
		if err != nil {
			return domain.Date{}, usecase.EntryDraft{}, err
		}

		lines = append(lines, usecase.LineInput{
			AccountID: line.AccountID,
			Direction: domain.Direction(line.Direction),
			Amount:    money.Amount,
			Note:      line.Note,
		})
	}

	return date, usecase.EntryDraft{
		Description: r.Description,
		Currency:    currency,
		Payee:       r.Payee,
		Tags:        r.Tags,
		Lines:       lines,
	}, nil
}

// ModifyEntryRequest represents a request to modify an entry.
type ModifyEntryRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
	EntryBodyRequest
}

// DeleteEntryRequest represents a request to soft-delete an entry.
type DeleteEntryRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
}

// CreateTransferRequest represents a cross-currency transfer: two entry
// bodies committed atomically under one transfer group.
type CreateTransferRequest struct {
	Date string           `json:"date"`
	From EntryBodyRequest `json:"from"`
	To   EntryBodyRequest `json:"to"`
}
