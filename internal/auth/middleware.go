package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"pronto-core/internal/workflow"
)

type contextKey string

const actorKey contextKey = "actor"

// Middleware verifies bearer tokens against the OIDC issuer and stores
// the resolved actor (id, role, extra permission grants) in the request
// context. Everything behind it can trust ActorFromContext.
func Middleware(issuer string) func(http.Handler) http.Handler {
	provider, err := oidc.NewProvider(context.Background(), issuer)
	if err != nil {
		panic(fmt.Sprintf("failed to create OIDC provider for %s: %v", issuer, err))
	}

	verifier := provider.Verifier(&oidc.Config{
		SkipClientIDCheck: true,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			if _, err := verifier.Verify(r.Context(), rawToken); err != nil {
				http.Error(w, "invalid token: "+err.Error(), http.StatusUnauthorized)
				return
			}

			// signature checked above; now read the claims
			token, _, err := new(jwt.Parser).ParseUnverified(rawToken, jwt.MapClaims{})
			if err != nil {
				http.Error(w, "unreadable token claims", http.StatusUnauthorized)
				return
			}
			actor, err := ActorFromClaims(token.Claims.(jwt.MapClaims))
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the authenticated actor stored by Middleware.
func ActorFromContext(ctx context.Context) (workflow.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(workflow.Actor)
	return actor, ok
}

// WithActor stores an actor in the context; used by tests and internal
// callers that bypass HTTP auth.
func WithActor(ctx context.Context, actor workflow.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}
