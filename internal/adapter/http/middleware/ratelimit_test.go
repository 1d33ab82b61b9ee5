package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
)

func TestRateLimiterThrottlesPerActor(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 2)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(actor string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
		req.Header.Set(middleware.ActorIDHeader, actor)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// Burst of 2 passes, the third request is throttled.
	if code := do("user-1"); code != http.StatusOK {
		t.Errorf("first request = %d", code)
	}
	if code := do("user-1"); code != http.StatusOK {
		t.Errorf("second request = %d", code)
	}
	if code := do("user-1"); code != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", code)
	}

	// Another actor has its own budget.
	if code := do("user-2"); code != http.StatusOK {
		t.Errorf("other actor = %d", code)
	}

	rl.Reset()
	if code := do("user-1"); code != http.StatusOK {
		t.Errorf("after reset = %d", code)
	}
}
