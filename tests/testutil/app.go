// Package testutil wires a full application instance on the in-memory store
// for end-to-end API tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	adaptershttp "github.com/iho/bookkeeper/internal/adapter/http"
	"github.com/iho/bookkeeper/internal/adapter/http/handler"
	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/adapter/repository/memory"
	"github.com/iho/bookkeeper/internal/adapter/repository/postgres"
	"github.com/iho/bookkeeper/internal/usecase"
)

// App is a fully wired service instance backed by in-memory storage.
type App struct {
	Server *httptest.Server

	BookUC    *usecase.BookUseCase
	AccountUC *usecase.AccountUseCase
	EntryUC   *usecase.EntryUseCase
	ReportUC  *usecase.ReportUseCase
	RebuildUC *usecase.RebuildUseCase

	t *testing.T
}

// NewApp starts a test server over the full router and use case stack.
func NewApp(t *testing.T) *App {
	t.Helper()

	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	bookRepo := memory.NewBookRepository(store)
	ledgerRepo := memory.NewLedgerRepository(store)
	accountRepo := memory.NewAccountRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	revisionRepo := memory.NewRevisionRepository(store)
	memberRepo := memory.NewMemberRepository(store)
	idGen := postgres.NewULIDGenerator()
	cache := memory.NewCache()
	idempotencyStore := memory.NewIdempotencyStore()

	bookUC := usecase.NewBookUseCase(txManager, bookRepo, ledgerRepo, accountRepo, memberRepo, idGen)
	accountUC := usecase.NewAccountUseCase(txManager, bookRepo, ledgerRepo, accountRepo, entryRepo, memberRepo, idGen)
	entryUC := usecase.NewEntryUseCase(txManager, bookRepo, ledgerRepo, accountRepo, entryRepo, revisionRepo, memberRepo, idGen, cache)
	reportUC := usecase.NewReportUseCase(ledgerRepo, accountRepo, entryRepo, cache, time.Minute)
	rebuildUC := usecase.NewRebuildUseCase(txManager, ledgerRepo, accountRepo, entryRepo, cache)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		BookHandler:      handler.NewBookHandler(bookUC),
		AccountHandler:   handler.NewAccountHandler(accountUC),
		EntryHandler:     handler.NewEntryHandler(entryUC, bookUC),
		ReportHandler:    handler.NewReportHandler(reportUC, rebuildUC),
		HealthHandler:    handler.NewHealthHandler(nil, nil),
		IdempotencyStore: idempotencyStore,
		Logger:           zerolog.Nop(),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &App{
		Server:    server,
		BookUC:    bookUC,
		AccountUC: accountUC,
		EntryUC:   entryUC,
		ReportUC:  reportUC,
		RebuildUC: rebuildUC,
		t:         t,
	}
}

// Do sends a request as the given actor and decodes the JSON response into
// out when out is non-nil. Extra headers come in key, value pairs.
func (a *App) Do(method, path, actorID, role string, body any, out any, headers ...string) *http.Response {
	a.t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, a.Server.URL+path, reqBody)
	if err != nil {
		a.t.Fatalf("build request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set(middleware.ActorIDHeader, actorID)
	}
	if role != "" {
		req.Header.Set(middleware.ActorRoleHeader, role)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			a.t.Fatalf("decode response for %s %s: %v", method, path, err)
		}
	}

	return resp
}
