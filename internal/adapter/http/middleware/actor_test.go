package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/domain"
)

func TestActorRequiresID(t *testing.T) {
	handler := middleware.Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without an actor")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s", ct)
	}
}

func TestActorFromHeaders(t *testing.T) {
	var got domain.Actor
	handler := middleware.Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.Header.Set(middleware.ActorIDHeader, "user-1")
	req.Header.Set(middleware.ActorRoleHeader, "admin")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.ID != "user-1" || got.Role != domain.RoleAdmin {
		t.Errorf("actor = %+v", got)
	}
}

func TestActorUnknownRoleDefaultsToMember(t *testing.T) {
	var got domain.Actor
	handler := middleware.Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.Header.Set(middleware.ActorIDHeader, "user-1")
	req.Header.Set(middleware.ActorRoleHeader, "visitor")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.Role != domain.RoleMember {
		t.Errorf("role = %s, want member", got.Role)
	}
}
