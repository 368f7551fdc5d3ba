// Package policy decides which roles may call which routes. Permissions are
// "resource:action" pairs granted per role; admins hold "*:*".
package policy

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/diewo77/go-pos/auth"
	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/models"
)

var (
	ErrUnauthenticated = errors.New("policy: no authenticated user")
	ErrForbidden       = errors.New("policy: permission denied")
)

// DefaultPermissions is the built-in role table.
func DefaultPermissions() map[models.UserRole][]Permission {
	return map[models.UserRole][]Permission{
		models.RoleAdmin: {PermissionAll},
		models.RoleEmployee: {
			"product:list", "product:view",
			"category:list", "category:view",
			"customer:*",
			"invoice:*",
			"report:view",
		},
	}
}

// RoleResolver looks up the current role of a user. It lets role changes
// apply before the user's token expires.
type RoleResolver func(ctx context.Context, userID uint) (models.UserRole, error)

type cacheEntry struct {
	role      models.UserRole
	expiresAt time.Time
}

// Gate checks permissions for the user attached to a request context.
type Gate struct {
	perms    map[models.UserRole][]Permission
	resolver RoleResolver
	ttl      time.Duration

	mu    sync.RWMutex
	cache map[uint]cacheEntry
}

// NewGate builds a gate over perms. When resolver is nil the role carried
// by the token is trusted as is; otherwise roles are re-read through
// resolver and cached for ttl.
func NewGate(perms map[models.UserRole][]Permission, resolver RoleResolver, ttl time.Duration) *Gate {
	if perms == nil {
		perms = DefaultPermissions()
	}
	return &Gate{perms: perms, resolver: resolver, ttl: ttl, cache: make(map[uint]cacheEntry)}
}

// Can reports whether role holds resource:action.
func (g *Gate) Can(role models.UserRole, resource string, action Action) bool {
	requested := NewPermission(resource, action)
	for _, p := range g.perms[role] {
		if p.Matches(requested) {
			return true
		}
	}
	return false
}

// Role returns the role of the user in ctx.
func (g *Gate) Role(ctx context.Context) (models.UserRole, error) {
	uid, ok := auth.UserIDFromContext(ctx)
	if !ok || uid == 0 {
		return "", ErrUnauthenticated
	}
	if g.resolver == nil {
		return models.UserRole(auth.RoleFromContext(ctx)), nil
	}

	g.mu.RLock()
	entry, ok := g.cache[uid]
	g.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.role, nil
	}

	role, err := g.resolver(ctx, uid)
	if err != nil {
		return "", err
	}
	g.mu.Lock()
	g.cache[uid] = cacheEntry{role: role, expiresAt: time.Now().Add(g.ttl)}
	g.mu.Unlock()
	return role, nil
}

// Invalidate drops the cached role of userID.
func (g *Gate) Invalidate(userID uint) {
	g.mu.Lock()
	delete(g.cache, userID)
	g.mu.Unlock()
}

// Authorize returns nil when the user in ctx may perform action on resource.
func (g *Gate) Authorize(ctx context.Context, resource string, action Action) error {
	role, err := g.Role(ctx)
	if err != nil {
		return err
	}
	if !g.Can(role, resource, action) {
		return ErrForbidden
	}
	return nil
}

// RequirePermission rejects requests lacking resource:action with 401 or 403.
func (g *Gate) RequirePermission(resource string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch err := g.Authorize(r.Context(), resource, action); {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, ErrUnauthenticated):
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			case errors.Is(err, ErrForbidden):
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			default:
				httpx.Error(w, err)
			}
		})
	}
}

// RequireAdmin only lets admins through.
func (g *Gate) RequireAdmin() func(http.Handler) http.Handler {
	return g.RequirePermission(WildcardAll, WildcardAll)
}
