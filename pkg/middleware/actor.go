package middleware

import (
	"context"
	"net/http"

	"github.com/trefle-asso/trefle/pkg/accounts"
	"github.com/trefle-asso/trefle/pkg/httputil"
	"github.com/trefle-asso/trefle/pkg/observability"
)

// Header names set by the API gateway after authenticating the caller. This
// service trusts them; it performs authorization, not authentication.
const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"
)

// contextKey is the type for context keys
type contextKey string

// actorKey is the context key for the authenticated actor
const actorKey contextKey = "actor"

// WithActor adds the actor to the context
func WithActor(ctx context.Context, actor accounts.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor retrieves the actor from the request context. The boolean is
// false when the request carried no actor headers.
func GetActor(r *http.Request) (accounts.Actor, bool) {
	actor, ok := r.Context().Value(actorKey).(accounts.Actor)
	return actor, ok
}

// ActorMiddleware extracts the gateway-authenticated actor from the request
// headers into the context. Requests without actor headers pass through
// untouched; handlers that need an actor use RequireActor.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := r.Header.Get(HeaderActorID)
		actorRole := r.Header.Get(HeaderActorRole)
		if actorID == "" || actorRole == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := WithActor(r.Context(), accounts.Actor{IdentityID: actorID, RoleID: actorRole})
		ctx = observability.WithActorID(ctx, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireActor rejects requests that carry no actor with 401.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetActor(r); !ok {
			httputil.WriteUnauthorized(w, "missing actor identity")
			return
		}
		next.ServeHTTP(w, r)
	})
}
