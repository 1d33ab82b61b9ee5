package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
	"github.com/iho/bookkeeper/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	AddEntry(ctx context.Context, input usecase.AddEntryInput) (*domain.Entry, error)
	ModifyEntry(ctx context.Context, input usecase.ModifyEntryInput) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, input usecase.DeleteEntryInput) error
	AddTransferPair(ctx context.Context, input usecase.AddTransferPairInput) ([]*domain.Entry, error)
	GetEntry(ctx context.Context, id string) (*domain.Entry, error)
	GetEntries(ctx context.Context, ledgerID string, filter domain.EntryFilter) ([]*domain.Entry, error)
	GetRevisions(ctx context.Context, entryID string) ([]*domain.EntryRevision, error)
}

// LedgerResolver resolves a ledger's default currency for request parsing.
type LedgerResolver interface {
	GetLedger(ctx context.Context, id string) (*domain.Ledger, error)
}

// EntryHandler handles journal entry HTTP requests.
type EntryHandler struct {
	entryUC EntryService
	ledgers LedgerResolver
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService, ledgers LedgerResolver) *EntryHandler {
	return &EntryHandler{entryUC: entryUC, ledgers: ledgers}
}

// Create adds a new entry to a ledger.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")

	var req dto.EntryBodyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ledger, err := h.ledgers.GetLedger(r.Context(), ledgerID)
	if err != nil {
		writeDomainError(w, "failed to resolve ledger", err)
		return
	}

	date, draft, err := req.ToDraft(ledger.DefaultCurrency)
	if err != nil {
		writeDomainError(w, "invalid entry", err)
		return
	}

	entry, err := h.entryUC.AddEntry(r.Context(), usecase.AddEntryInput{
		Actor:      middleware.ActorFromContext(r.Context()),
		LedgerID:   ledgerID,
		Date:       date,
		EntryDraft: draft,
	})
	if err != nil {
		writeDomainError(w, "failed to add entry", err)
		return
	}

	metrics.EntriesCreated.Inc()
	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Modify replaces an entry wholesale, guarded by the expected version.
func (h *EntryHandler) Modify(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")
	entryID := chi.URLParam(r, "entryID")

	var req dto.ModifyEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ledger, err := h.ledgers.GetLedger(r.Context(), ledgerID)
	if err != nil {
		writeDomainError(w, "failed to resolve ledger", err)
		return
	}

	date, draft, err := req.ToDraft(ledger.DefaultCurrency)
	if err != nil {
		writeDomainError(w, "invalid entry", err)
		return
	}

	entry, err := h.entryUC.ModifyEntry(r.Context(), usecase.ModifyEntryInput{
		Actor:           middleware.ActorFromContext(r.Context()),
		LedgerID:        ledgerID,
		EntryID:         entryID,
		ExpectedVersion: req.ExpectedVersion,
		Date:            date,
		EntryDraft:      draft,
	})
	if err != nil {
		writeDomainError(w, "failed to modify entry", err)
		return
	}

	metrics.EntriesModified.Inc()
	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Delete soft-deletes an entry, guarded by the expected version.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")
	entryID := chi.URLParam(r, "entryID")

	var req dto.DeleteEntryRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	err := h.entryUC.DeleteEntry(r.Context(), usecase.DeleteEntryInput{
		Actor:           middleware.ActorFromContext(r.Context()),
		LedgerID:        ledgerID,
		EntryID:         entryID,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		writeDomainError(w, "failed to delete entry", err)
		return
	}

	metrics.EntriesDeleted.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// CreateTransfer commits a linked cross-currency entry pair.
func (h *EntryHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")

	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ledger, err := h.ledgers.GetLedger(r.Context(), ledgerID)
	if err != nil {
		writeDomainError(w, "failed to resolve ledger", err)
		return
	}

	// Both legs share the top-level date.
	req.From.Date = req.Date
	req.To.Date = req.Date

	date, fromDraft, err := req.From.ToDraft(ledger.DefaultCurrency)
	if err != nil {
		writeDomainError(w, "invalid transfer", err)
		return
	}

	_, toDraft, err := req.To.ToDraft(ledger.DefaultCurrency)
	if err != nil {
		writeDomainError(w, "invalid transfer", err)
		return
	}

	entries, err := h.entryUC.AddTransferPair(r.Context(), usecase.AddTransferPairInput{
		Actor:    middleware.ActorFromContext(r.Context()),
		LedgerID: ledgerID,
		Date:     date,
		From:     fromDraft,
		To:       toDraft,
	})
	if err != nil {
		writeDomainError(w, "failed to add transfer", err)
		return
	}

	metrics.TransferPairsCreated.Inc()
	writeJSON(w, http.StatusCreated, dto.EntriesFromDomain(entries))
}

// Get retrieves an entry by ID, soft-deleted entries included.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")

	entry, err := h.entryUC.GetEntry(r.Context(), entryID)
	if err != nil {
		writeDomainError(w, "failed to get entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// List lists entries of a ledger, newest date first.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")

	filter, err := entryFilterFromQuery(r)
	if err != nil {
		writeDomainError(w, "invalid filter", err)
		return
	}

	entries, err := h.entryUC.GetEntries(r.Context(), ledgerID, filter)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}

// Revisions lists the audit snapshots of an entry, oldest first.
func (h *EntryHandler) Revisions(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")

	revisions, err := h.entryUC.GetRevisions(r.Context(), entryID)
	if err != nil {
		writeDomainError(w, "failed to list revisions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RevisionsFromDomain(revisions))
}

func entryFilterFromQuery(r *http.Request) (domain.EntryFilter, error) {
	filter := domain.EntryFilter{
		AccountID:      r.URL.Query().Get("account_id"),
		Payee:          r.URL.Query().Get("payee"),
		Tag:            r.URL.Query().Get("tag"),
		TransferGroup:  r.URL.Query().Get("transfer_group"),
		IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
		Limit:          parseIntQuery(r, "limit", 0),
		Offset:         parseIntQuery(r, "offset", 0),
	}

	if raw := r.URL.Query().Get("from"); raw != "" {
		date, err := domain.ParseDate(raw)
		if err != nil {
			return domain.EntryFilter{}, err
		}
		filter.From = &date
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		date, err := domain.ParseDate(raw)
		if err != nil {
			return domain.EntryFilter{}, err
		}
		filter.To = &date
	}

	return filter, nil
}
