package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/shop-backoffice/internal/transport"
)

// RBACAuthorization exposes the gate as chi middleware. It must run after
// AuthMiddleware so the principal is in the request context.
type RBACAuthorization struct {
	*transport.BaseHandler
	gate *Gate
}

func NewRBACAuthorization(gate *Gate, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		gate:        gate,
	}
}

func (ra *RBACAuthorization) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ra.gate.CheckRole(r.Context(), PrincipalFromContext(r.Context()), roles...); err != nil {
				ra.HandleServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ra.gate.CheckPermission(r.Context(), PrincipalFromContext(r.Context()), permissions...); err != nil {
				ra.HandleServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
