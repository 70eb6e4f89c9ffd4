package rbac

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/observability"
)

const defaultCacheSize = 4096

// Checker evaluates whether a user holds a permission. Resolution order:
// superuser bypass, then direct grants, then group permissions.
type Checker struct {
	store   *Store
	cache   *lru.LRU[string, bool]
	metrics *observability.Metrics
}

// NewChecker creates a permission checker. A cacheTTL of zero disables the
// decision cache. Metrics may be nil.
func NewChecker(store *Store, cacheTTL time.Duration, metrics *observability.Metrics) *Checker {
	c := &Checker{
		store:   store,
		metrics: metrics,
	}
	if cacheTTL > 0 {
		c.cache = lru.NewLRU[string, bool](defaultCacheSize, nil, cacheTTL)
	}
	return c
}

// HasPermission reports whether the user holds the permission
func (c *Checker) HasPermission(ctx context.Context, user *auth.User, perm Permission) (bool, error) {
	result, err := c.Check(ctx, user, perm)
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// Check evaluates the permission and explains the decision
func (c *Checker) Check(ctx context.Context, user *auth.User, perm Permission) (*CheckResult, error) {
	if user == nil {
		return &CheckResult{Allowed: false, Reason: "no user", CheckedAt: time.Now()}, nil
	}

	// Superusers bypass all checks and the cache
	if user.IsSuperuser {
		c.recordCheck(perm, "allowed")
		return &CheckResult{Allowed: true, Reason: "superuser", CheckedAt: time.Now()}, nil
	}

	cacheKey := cacheKey(user.ID, perm)
	if c.cache != nil {
		if allowed, ok := c.cache.Get(cacheKey); ok {
			c.recordCacheHit()
			c.recordCheck(perm, outcome(allowed))
			return &CheckResult{Allowed: allowed, Reason: "cached result", CheckedAt: time.Now()}, nil
		}
		c.recordCacheMiss()
	}

	allowed, reason, err := c.resolve(ctx, user.ID, perm)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(cacheKey, allowed)
	}
	c.recordCheck(perm, outcome(allowed))
	return &CheckResult{Allowed: allowed, Reason: reason, CheckedAt: time.Now()}, nil
}

// resolve checks direct grants, then group permissions
func (c *Checker) resolve(ctx context.Context, userID int64, perm Permission) (bool, string, error) {
	direct, err := c.store.GetDirectPermissions(ctx, userID)
	if err != nil {
		return false, "", fmt.Errorf("failed to get direct permissions: %w", err)
	}
	if direct[perm.Code()] {
		return true, "direct grant", nil
	}

	groups, err := c.store.GetUserGroups(ctx, userID)
	if err != nil {
		return false, "", fmt.Errorf("failed to get user groups: %w", err)
	}
	for _, group := range groups {
		if group.HasPermission(perm) {
			return true, fmt.Sprintf("granted by group %s", group.Name), nil
		}
	}

	return false, "no matching grant or group", nil
}

// InvalidateUser drops all cached decisions for a user. Call after changing
// the user's grants or memberships. The server itself only mutates grants
// during seeding, before the cache sees any traffic, so nothing in the
// request path calls this today; it exists for callers that manage grants
// at runtime.
func (c *Checker) InvalidateUser(userID int64) {
	if c.cache == nil {
		return
	}
	prefix := fmt.Sprintf("%d:", userID)
	for _, key := range c.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Remove(key)
		}
	}
}

func cacheKey(userID int64, perm Permission) string {
	return fmt.Sprintf("%d:%s", userID, perm.Code())
}

func outcome(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func (c *Checker) recordCheck(perm Permission, outcome string) {
	if c.metrics != nil {
		c.metrics.PermissionChecksTotal.WithLabelValues(perm.Code(), outcome).Inc()
	}
}

func (c *Checker) recordCacheHit() {
	if c.metrics != nil {
		c.metrics.PermissionCacheHits.Inc()
	}
}

func (c *Checker) recordCacheMiss() {
	if c.metrics != nil {
		c.metrics.PermissionCacheMisses.Inc()
	}
}
