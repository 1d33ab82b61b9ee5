package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// BookResponse represents a book in API responses.
type BookResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DefaultCurrency string    `json:"default_currency"`
	MainLedgerID    string    `json:"main_ledger_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookFromDomain converts a domain book to a response.
func BookFromDomain(b *domain.Book) *BookResponse {
	return &BookResponse{
		ID:              b.ID,
		Name:            b.Name,
		DefaultCurrency: b.DefaultCurrency,
		MainLedgerID:    b.MainLedgerID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// MemberResponse represents a book member in API responses.
type MemberResponse struct {
	BookID    string    `json:"book_id"`
	ActorID   string    `json:"actor_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberFromDomain converts a domain member to a response.
func MemberFromDomain(m *domain.Member) *MemberResponse {
	return &MemberResponse{
		BookID:    m.BookID,
		ActorID:   m.ActorID,
		Role:      string(m.Role),
		CreatedAt: m.CreatedAt,
	}
}

// MembersFromDomain converts domain members to responses.
func MembersFromDomain(members []*domain.Member) []*MemberResponse {
	result := make([]*MemberResponse, len(members))
	for i, m := range members {
		result[i] = MemberFromDomain(m)
	}
	return result
}

// AccountResponse represents an account in API responses. Balance is given
// both in minor units and as a major-unit decimal.
type AccountResponse struct {
	ID           string          `json:"id"`
	LedgerID     string          `json:"ledger_id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Currency     string          `json:"currency"`
	ParentID     string          `json:"parent_id,omitempty"`
	Path         string          `json:"path"`
	BalanceMinor int64           `json:"balance_minor"`
	Balance      decimal.Decimal `json:"balance"`
	Archived     bool            `json:"archived"`
	Icon         string          `json:"icon,omitempty"`
	Note         string          `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:           a.ID,
		LedgerID:     a.LedgerID,
		Name:         a.Name,
		Type:         string(a.Type),
		Currency:     a.Currency,
		ParentID:     a.ParentID,
		Path:         a.Path,
		BalanceMinor: a.Balance,
		Balance:      majorUnits(a.Balance, a.Currency),
		Archived:     a.Archived,
		Icon:         a.Icon,
		Note:         a.Note,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// AccountGroupRowResponse is one row of the account tree display.
type AccountGroupRowResponse struct {
	AccountID    string          `json:"account_id"`
	Name         string          `json:"name"`
	Path         string          `json:"path"`
	Level        int             `json:"level"`
	Type         string          `json:"type"`
	Currency     string          `json:"currency"`
	BalanceMinor int64           `json:"balance_minor"`
	Balance      decimal.Decimal `json:"balance"`
	Archived     bool            `json:"archived"`
}

// AccountGroupsFromUseCase converts account group rows to responses.
func AccountGroupsFromUseCase(rows []usecase.AccountGroupRow) []AccountGroupRowResponse {
	result := make([]AccountGroupRowResponse, len(rows))
	for i, row := range rows {
		result[i] = AccountGroupRowResponse{
			AccountID:    row.AccountID,
			Name:         row.Name,
			Path:         row.Path,
			Level:        row.Level,
			Type:         string(row.Type),
			Currency:     row.Currency,
			BalanceMinor: row.Balance,
			Balance:      majorUnits(row.Balance, row.Currency),
			Archived:     row.Archived,
		}
	}
	return result
}

// LineResponse represents an entry line in API responses.
type LineResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Direction   string          `json:"direction"`
	AmountMinor int64           `json:"amount_minor"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note,omitempty"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID              string         `json:"id"`
	LedgerID        string         `json:"ledger_id"`
	Date            string         `json:"date"`
	Description     string         `json:"description"`
	Currency        string         `json:"currency"`
	Payee           string         `json:"payee,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	TransferGroupID string         `json:"transfer_group_id,omitempty"`
	Lines           []LineResponse `json:"lines"`
	Version         int64          `json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       *time.Time     `json:"deleted_at,omitempty"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	lines := make([]LineResponse, len(e.Lines))
	for i, line := range e.Lines {
		lines[i] = LineResponse{
			ID:          line.ID,
			AccountID:   line.AccountID,
			Direction:   string(line.Direction),
			AmountMinor: line.Amount,
			Amount:      majorUnits(line.Amount, e.Currency),
			Note:        line.Note,
		}
	}

	return &EntryResponse{
		ID:              e.ID,
		LedgerID:        e.LedgerID,
		Date:            e.Date.String(),
		Description:     e.Description,
		Currency:        e.Currency,
		Payee:           e.Payee,
		Tags:            e.Tags,
		TransferGroupID: e.TransferGroupID,
		Lines:           lines,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		DeletedAt:       e.DeletedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse wraps an entry listing.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// RevisionResponse represents an entry revision in API responses.
type RevisionResponse struct {
	ID        string         `json:"id"`
	EntryID   string         `json:"entry_id"`
	Reason    string         `json:"reason"`
	ActorID   string         `json:"actor_id"`
	Snapshot  *EntryResponse `json:"snapshot"`
	CreatedAt time.Time      `json:"created_at"`
}

// RevisionsFromDomain converts domain revisions to responses.
func RevisionsFromDomain(revisions []*domain.EntryRevision) []*RevisionResponse {
	result := make([]*RevisionResponse, len(revisions))
	for i, r := range revisions {
		snapshot := r.Snapshot
		result[i] = &RevisionResponse{
			ID:        r.ID,
			EntryID:   r.EntryID,
			Reason:    string(r.Reason),
			ActorID:   r.ActorID,
			Snapshot:  EntryFromDomain(&snapshot),
			CreatedAt: r.CreatedAt,
		}
	}
	return result
}

// majorUnits converts minor units to a major-unit decimal.
func majorUnits(minor int64, currency string) decimal.Decimal {
	return domain.Money{Amount: minor, Currency: currency}.Major()
}
