package moderation

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/PancyStudios/MarvinGo/pkg/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxScopes bounds the number of chats whose privileges are remembered
const DefaultMaxScopes = 1024

// Probe asks the chat platform whether the bot holds elevated rights in scope
type Probe func(ctx context.Context, scope int64) (bool, error)

// ChatPermission is a memoized probe result
type ChatPermission struct {
	ScopeID      int64
	IsPrivileged bool
}

// PermissionCache memoizes one probe result per chat for the lifetime of the
// process. Results are never refreshed, even if the bot is promoted or demoted
// later. Concurrent first lookups for the same chat share a single probe.
// Failed probes are not cached.
type PermissionCache struct {
	entries *lru.Cache[int64, bool]
	group   singleflight.Group
	probes  atomic.Int64
}

// NewPermissionCache builds a cache remembering at most maxScopes chats
func NewPermissionCache(maxScopes int) *PermissionCache {
	if maxScopes <= 0 {
		maxScopes = DefaultMaxScopes
	}
	// lru.New only fails on a non-positive size
	entries, _ := lru.New[int64, bool](maxScopes)
	return &PermissionCache{entries: entries}
}

// IsPrivileged returns the cached result for scope, invoking probe on the first call only
func (c *PermissionCache) IsPrivileged(ctx context.Context, scope int64, probe Probe) (bool, error) {
	if ok, cached := c.entries.Get(scope); cached {
		return ok, nil
	}

	v, err, _ := c.group.Do(strconv.FormatInt(scope, 10), func() (any, error) {
		if ok, cached := c.entries.Get(scope); cached {
			return ok, nil
		}

		c.probes.Add(1)
		ok, err := probe(ctx, scope)
		if err != nil {
			metrics.PermissionProbes.WithLabelValues("error").Inc()
			return false, err
		}

		if ok {
			metrics.PermissionProbes.WithLabelValues("privileged").Inc()
		} else {
			metrics.PermissionProbes.WithLabelValues("unprivileged").Inc()
		}
		c.entries.Add(scope, ok)
		return ok, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Lookup returns the cached result without probing
func (c *PermissionCache) Lookup(scope int64) (ChatPermission, bool) {
	ok, cached := c.entries.Peek(scope)
	if !cached {
		return ChatPermission{}, false
	}
	return ChatPermission{ScopeID: scope, IsPrivileged: ok}, true
}

// Probes returns how many probes were issued
func (c *PermissionCache) Probes() int64 {
	return c.probes.Load()
}

// Len returns the number of remembered chats
func (c *PermissionCache) Len() int {
	return c.entries.Len()
}
