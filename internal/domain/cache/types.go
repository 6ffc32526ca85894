// Package cache contains the pooled response cache used in front of the REST gateway.
//
// Each resource family (projects, keywords, subreddits, project settings, mentions,
// everything else) lives in its own pool so that invalidating one family never
// evicts another. Entries expire lazily: an expired entry is removed the next time
// it is looked up, never by a background sweep.
package cache

import (
	"errors"
	"time"
)

// PoolName identifies an independently managed cache namespace.
type PoolName string

const (
	// PoolProjects caches project listings and project details.
	PoolProjects PoolName = "projects"
	// PoolKeywords caches keyword listings per project.
	PoolKeywords PoolName = "keywords"
	// PoolSubreddits caches subreddit listings per project.
	PoolSubreddits PoolName = "subreddits"
	// PoolProjectSettings caches per-project settings.
	PoolProjectSettings PoolName = "project-settings"
	// PoolMentions caches mention pages. Expiry is dictated by the server.
	PoolMentions PoolName = "mentions"
	// PoolGeneric caches responses that belong to no other family.
	PoolGeneric PoolName = "generic"

	// AllPools targets every pool in Invalidate.
	AllPools PoolName = "*"
)

// DefaultPools lists the pools a Manager is created with when no config is given.
var DefaultPools = []PoolName{
	PoolProjects,
	PoolKeywords,
	PoolSubreddits,
	PoolProjectSettings,
	PoolMentions,
	PoolGeneric,
}

// ErrUnknownPool is returned by Set when the pool was not configured.
var ErrUnknownPool = errors.New("cache: unknown pool")

// PoolConfig configures a single pool.
type PoolConfig struct {
	// DefaultTTL is applied by SetDefault. Zero means entries stored through
	// SetDefault are never readable, which effectively disables the pool.
	DefaultTTL time.Duration
	// MaxEntries bounds the pool. When a new key would exceed it, expired entries
	// are dropped first and then the oldest entry. Zero means unbounded.
	MaxEntries int
}

// Entry is a cached value together with the moment it was stored and its policy.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
	Policy   Policy
}

// Readable reports whether the entry may still be served at now.
func (e *Entry[V]) Readable(now time.Time) bool {
	return now.Before(e.Policy.Deadline(e.StoredAt))
}

// Observer receives cache events. Implementations must be safe for concurrent use
// and must not call back into the Manager.
type Observer interface {
	OnLookup(pool PoolName, hit bool)
	OnInvalidate(pool PoolName, removed int)
}
