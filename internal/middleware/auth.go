// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/formset/backend/internal/access"
	"github.com/formset/backend/internal/core"
)

const actorKey contextKey = "actor"

// ActorResolver turns a bearer credential into a live principal. The
// credential only proves the user id; role and account status are read
// fresh from the user row, never trusted from the token payload.
type ActorResolver interface {
	ResolveActor(ctx context.Context, token string) (access.Actor, error)
}

// Authenticator rejects requests without a valid bearer credential and
// stores the resolved actor in the request context.
func Authenticator(resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			actor, err := resolver.ResolveActor(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves a bearer credential when one is present but
// lets anonymous requests through. Used on the public submission
// endpoint, where the actor may legitimately be anonymous.
func OptionalAuth(resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token != "" {
				actor, err := resolver.ResolveActor(r.Context(), token)
				if err == nil {
					ctx := context.WithValue(r.Context(), actorKey, actor)
					r = r.WithContext(ctx)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := GetActor(r.Context())

		if actor.IsAnonymous() {
			core.JSONError(
				w,
				core.UnauthorizedError("authentication required"),
			)
			return
		}

		if !actor.IsAdmin() {
			core.JSONError(
				w,
				core.ForbiddenError("insufficient permissions"),
			)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

// GetActor returns the request's principal; the zero value means
// anonymous.
func GetActor(ctx context.Context) access.Actor {
	if actor, ok := ctx.Value(actorKey).(access.Actor); ok {
		return actor
	}
	return access.Anonymous
}

func IsAuthenticated(ctx context.Context) bool {
	return !GetActor(ctx).IsAnonymous()
}
