package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
	"github.com/iho/bookkeeper/internal/usecase"
)

// ReportService defines the behavior needed by ReportHandler.
type ReportService interface {
	GetOverview(ctx context.Context, ledgerID string) (*usecase.Overview, error)
	GetPeriodSummary(ctx context.Context, ledgerID string, from, to domain.Date) (*usecase.PeriodSummary, error)
}

// RebuildService defines the reconstruction operations needed by ReportHandler.
type RebuildService interface {
	FullRebuild(ctx context.Context, ledgerID string) (*usecase.RebuildResult, error)
	BalanceAsOf(ctx context.Context, ledgerID string, asOf domain.Date) ([]usecase.AccountBalance, error)
	VerifyBalances(ctx context.Context, ledgerID string) (*usecase.VerifyResult, error)
}

// ReportHandler handles report and integrity HTTP requests.
type ReportHandler struct {
	reportUC  ReportService
	rebuildUC RebuildService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC ReportService, rebuildUC RebuildService) *ReportHandler {
	return &ReportHandler{reportUC: reportUC, rebuildUC: rebuildUC}
}

// Overview returns per-currency assets, liabilities and net worth.
func (h *ReportHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")

	overview, err := h.reportUC.GetOverview(r.Context(), ledgerID)
	if err != nil {
		writeDomainError(w, "failed to build overview", err)
		return
	}

	writeJSON(w, http.StatusOK, overview)
}

// Summary returns income and expense movement over ?from=..&to=.. dates.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")

	from, err := domain.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeDomainError(w, "invalid from date", err)
		return
	}

	to, err := domain.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeDomainError(w, "invalid to date", err)
		return
	}

	summary, err := h.reportUC.GetPeriodSummary(r.Context(), ledgerID, from, to)
	if err != nil {
		writeDomainError(w, "failed to build summary", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Balance returns every account's balance as of ?as_of=<date>.
func (h *ReportHandler) Balance(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")

	asOf, err := domain.ParseDate(r.URL.Query().Get("as_of"))
	if err != nil {
		writeDomainError(w, "invalid as_of date", err)
		return
	}

	balances, err := h.rebuildUC.BalanceAsOf(r.Context(), ledgerID, asOf)
	if err != nil {
		writeDomainError(w, "failed to compute balances", err)
		return
	}

	writeJSON(w, http.StatusOK, balances)
}

// Rebuild replays the entry log and rewrites every cached balance.
func (h *ReportHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")

	result, err := h.rebuildUC.FullRebuild(r.Context(), ledgerID)
	if err != nil {
		writeDomainError(w, "failed to rebuild balances", err)
		return
	}

	metrics.RebuildsRun.Inc()
	writeJSON(w, http.StatusOK, result)
}

// Verify compares cached balances against a replay and reports drift.
func (h *ReportHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "id")

	result, err := h.rebuildUC.VerifyBalances(r.Context(), ledgerID)
	if err != nil {
		writeDomainError(w, "failed to verify balances", err)
		return
	}

	metrics.BalanceDriftDetected.Add(float64(len(result.Drift)))
	writeJSON(w, http.StatusOK, result)
}
