package access

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tessera-hq/tessera/internal/shared"
)

// Resolver loads the principal behind a session user ID.
type Resolver interface {
	ResolvePrincipal(ctx context.Context, id string) (*Principal, error)
}

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Resolver Resolver
	Logger   *slog.Logger
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// Authenticate resolves the session principal and stores it in the
// request context. Requests without a session proceed with no principal;
// the access predicates treat that as denial.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.currentUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.Resolver.ResolvePrincipal(r.Context(), id)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("resolve principal", slog.String("id", id), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// Require ensures the current principal may perform the action.
func (m Middleware) Require(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !CanPerform(principal, action) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) currentUserID(r *http.Request) (string, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return "", false
	}
	id := strings.TrimSpace(sess.User())
	if id == "" {
		return "", false
	}
	return id, true
}
