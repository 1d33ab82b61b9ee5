package middleware

import (
	"context"
	"net/http"

	"github.com/iho/bookkeeper/internal/domain"
)

// Actor identity headers. Authentication happens upstream; the service
// trusts these headers and only enforces the role policy.
const (
	ActorIDHeader   = "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"
)

type actorContextKey struct{}

// Actor extracts the actor identity from headers into the request context.
// Requests without an actor ID are rejected; an absent role defaults to
// member, the least privileged.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ActorIDHeader)
		if id == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"missing ` + ActorIDHeader + ` header"}`))
			return
		}

		role := domain.Role(r.Header.Get(ActorRoleHeader))
		if !role.Valid() {
			role = domain.RoleMember
		}

		actor := domain.Actor{ID: id, Role: role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorContextKey{}, actor)))
	})
}

// ActorFromContext returns the actor stored by the Actor middleware.
func ActorFromContext(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor
}
