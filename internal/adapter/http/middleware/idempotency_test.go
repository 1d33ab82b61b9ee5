package middleware_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/usecase/mocks"
)

func idempotencyHandler(t *testing.T, store *mocks.MockIdempotencyStore, status int, body string, wantCalled bool) http.Handler {
	t.Helper()
	called := false
	t.Cleanup(func() {
		if called != wantCalled {
			t.Errorf("handler called = %v, want %v", called, wantCalled)
		}
	})

	return middleware.NewIdempotencyMiddleware(store, zerolog.Nop()).Wrap(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
}

func TestIdempotencyIgnoresReadsAndKeylessRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	handler := idempotencyHandler(t, store, http.StatusOK, `{"ok":true}`, true)

	// GET with a key: reads never consult the store.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.Header.Set(middleware.IdempotencyKeyHeader, "key-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// POST without a key: nothing to deduplicate.
	handler = idempotencyHandler(t, store, http.StatusOK, `{"ok":true}`, true)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/books", nil))
}

func TestIdempotencyStoresSuccessfulResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "key-1", gomock.Nil(), gomock.Any()).Return(false, nil, nil)
	store.EXPECT().Update(gomock.Any(), "key-1", []byte(`{"id":"entry-1"}`), gomock.Any()).Return(nil)

	handler := idempotencyHandler(t, store, http.StatusCreated, `{"id":"entry-1"}`, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledgers/l1/entries", strings.NewReader("{}"))
	req.Header.Set(middleware.IdempotencyKeyHeader, "key-1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if rec.Header().Get("X-Idempotency-Replay") != "" {
		t.Error("first request marked as replay")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "key-1", gomock.Nil(), gomock.Any()).
		Return(true, []byte(`{"id":"entry-1"}`), nil)

	handler := idempotencyHandler(t, store, http.StatusCreated, "should not run", false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledgers/l1/entries", strings.NewReader("{}"))
	req.Header.Set(middleware.IdempotencyKeyHeader, "key-1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Idempotency-Replay") != "true" {
		t.Error("replay header missing")
	}
	if rec.Body.String() != `{"id":"entry-1"}` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestIdempotencySkipsFailedResponses(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	// No Update expectation: error responses must not be replayable.
	store.EXPECT().CheckAndSet(gomock.Any(), "key-1", gomock.Nil(), gomock.Any()).Return(false, nil, nil)

	handler := idempotencyHandler(t, store, http.StatusUnprocessableEntity, `{"error":"imbalanced"}`, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledgers/l1/entries", strings.NewReader("{}"))
	req.Header.Set(middleware.IdempotencyKeyHeader, "key-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestIdempotencyUpdateFailureKeepsResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "key-1", gomock.Nil(), gomock.Any()).Return(false, nil, nil)
	store.EXPECT().Update(gomock.Any(), "key-1", gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))

	var log bytes.Buffer
	handler := middleware.NewIdempotencyMiddleware(store, zerolog.New(&log)).Wrap(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"entry-1"}`))
		}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledgers/l1/entries", strings.NewReader("{}"))
	req.Header.Set(middleware.IdempotencyKeyHeader, "key-1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// The caller still gets the committed response; the stuck claim is logged.
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if !strings.Contains(log.String(), "key-1") {
		t.Errorf("log output missing the idempotency key: %s", log.String())
	}
}

func TestIdempotencyStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "key-1", gomock.Nil(), gomock.Any()).
		Return(false, nil, errors.New("redis down"))

	handler := idempotencyHandler(t, store, http.StatusCreated, "unused", false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledgers/l1/entries", strings.NewReader("{}"))
	req.Header.Set(middleware.IdempotencyKeyHeader, "key-1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
