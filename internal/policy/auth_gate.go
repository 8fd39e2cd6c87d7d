package policy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/gate"
	"github.com/diewo77/multisarl/internal/httpx"
	"gorm.io/gorm"
)

// AuthGate holds the configured Gate with caching.
// Use this as a central authorization point in the application.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate creates a fully configured authorization gate.
// - db: GORM database connection for role and permission lookups
// - cacheTTL: how long to cache principals (e.g., 5*time.Minute)
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	dbResolver := NewDBPrincipalResolver(db)
	cachedResolver := gate.NewCachedResolver[uint](dbResolver, cacheTTL)
	return &AuthGate{
		Gate:          gate.NewGate[uint](cachedResolver),
		CacheResolver: cachedResolver,
	}
}

// RegisterPolicy adds an object-level policy for a module.
// Example: authGate.RegisterPolicy(models.ModuleNotifications, policy.NewOwnershipPolicy())
func (ag *AuthGate) RegisterPolicy(module string, p gate.Policy[uint]) {
	ag.Gate.Register(module, p)
}

// Principal returns the principal of the current request, resolving it when
// no middleware attached one yet.
func (ag *AuthGate) Principal(ctx context.Context) (*gate.Principal, error) {
	if p, ok := gate.PrincipalFromContext(ctx); ok {
		return p, nil
	}
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, gate.ErrUnauthorized
	}
	return ag.Gate.Principal(ctx, userID)
}

// Authorize checks if the current user can perform an action on a resource.
// Returns nil if authorized, gate.ErrUnauthorized or gate.ErrForbidden otherwise.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, module string, resource any) error {
	p, err := ag.Principal(ctx)
	if err != nil {
		return err
	}
	return ag.Gate.AuthorizePrincipal(ctx, p, p.UserID, action, module, resource)
}

// Can is a convenience method that returns bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, module string, resource any) bool {
	return ag.Authorize(ctx, action, module, resource) == nil
}

// InvalidateUser clears the cache for a specific user.
// Call this when a user's role assignment changes.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// InvalidateAll clears the entire principal cache.
// Call this when role permissions are modified.
func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// WriteError maps gate errors to JSON responses.
func WriteError(w http.ResponseWriter, err error) {
	if errors.Is(err, gate.ErrForbidden) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
}

// RequirePermission returns middleware that checks the role permission for
// module and action, then stores the principal in the request context.
func (ag *AuthGate) RequirePermission(module string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := ag.Principal(r.Context())
			if err != nil {
				WriteError(w, err)
				return
			}
			if !gate.Decide(p, module, action) {
				WriteError(w, gate.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(gate.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireSuperuser returns middleware that only lets superusers through.
func (ag *AuthGate) RequireSuperuser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := ag.Principal(r.Context())
			if err != nil {
				WriteError(w, err)
				return
			}
			if !p.Superuser {
				WriteError(w, gate.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(gate.WithPrincipal(r.Context(), p)))
		})
	}
}
