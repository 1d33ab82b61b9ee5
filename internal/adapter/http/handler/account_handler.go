package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
	"github.com/iho/bookkeeper/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	AddAccount(ctx context.Context, input usecase.AddAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetAccountGroups(ctx context.Context, ledgerID string, types []domain.AccountType) ([]usecase.AccountGroupRow, error)
	RenameAccount(ctx context.Context, input usecase.RenameAccountInput) (*domain.Account, error)
	MoveAccount(ctx context.Context, input usecase.MoveAccountInput) (*domain.Account, error)
	ArchiveAccount(ctx context.Context, input usecase.ArchiveAccountInput) (*domain.Account, error)
}

// AccountHandler handles chart-of-accounts HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account under a ledger.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")

	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	actor := middleware.ActorFromContext(r.Context())

	account, err := h.accountUC.AddAccount(r.Context(), req.ToUseCaseInput(actor, ledgerID))
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	metrics.AccountsCreated.Inc()
	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Groups returns the chart of accounts as display rows ordered by path. The
// optional "types" query restricts to a comma-separated list of type names.
func (h *AccountHandler) Groups(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")

	var types []domain.AccountType
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			types = append(types, domain.AccountType(strings.TrimSpace(name)))
		}
	}

	rows, err := h.accountUC.GetAccountGroups(r.Context(), ledgerID, types)
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountGroupsFromUseCase(rows))
}

// Patch renames and/or moves an account. Rename applies first so both can be
// combined in one request.
func (h *AccountHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")
	accountID := chi.URLParam(r, "accountID")

	var req dto.PatchAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Name == nil && req.ParentID == nil {
		writeError(w, http.StatusBadRequest, "nothing to change", "provide name and/or parent_id")
		return
	}

	actor := middleware.ActorFromContext(r.Context())

	var (
		account *domain.Account
		err     error
	)

	if req.Name != nil {
		account, err = h.accountUC.RenameAccount(r.Context(), usecase.RenameAccountInput{
			Actor:     actor,
			LedgerID:  ledgerID,
			AccountID: accountID,
			NewName:   *req.Name,
		})
		if err != nil {
			writeDomainError(w, "failed to rename account", err)
			return
		}
	}

	if req.ParentID != nil {
		account, err = h.accountUC.MoveAccount(r.Context(), usecase.MoveAccountInput{
			Actor:       actor,
			LedgerID:    ledgerID,
			AccountID:   accountID,
			NewParentID: *req.ParentID,
		})
		if err != nil {
			writeDomainError(w, "failed to move account", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Archive soft-hides an account.
func (h *AccountHandler) Archive(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")
	accountID := chi.URLParam(r, "accountID")

	var req dto.ArchiveAccountRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	actor := middleware.ActorFromContext(r.Context())

	account, err := h.accountUC.ArchiveAccount(r.Context(), usecase.ArchiveAccountInput{
		Actor:     actor,
		LedgerID:  ledgerID,
		AccountID: accountID,
		Force:     req.Force,
	})
	if err != nil {
		writeDomainError(w, "failed to archive account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
