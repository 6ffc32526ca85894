package cache

import (
	"fmt"
	"time"
)

type policyKind uint8

const (
	kindTTL policyKind = iota + 1
	kindAbsolute
)

// Policy is the expiration rule of an entry: either a fixed duration after storage
// or an absolute instant. The zero Policy expires immediately.
type Policy struct {
	kind policyKind
	ttl  time.Duration
	at   time.Time
}

// TTL returns a policy that keeps an entry readable for d after it is stored.
func TTL(d time.Duration) Policy {
	return Policy{kind: kindTTL, ttl: d}
}

// ExpiresAt returns a policy that keeps an entry readable until t, regardless of
// when it was stored.
func ExpiresAt(t time.Time) Policy {
	return Policy{kind: kindAbsolute, at: t}
}

// Deadline returns the first instant at which an entry stored at storedAt is no
// longer readable.
func (p Policy) Deadline(storedAt time.Time) time.Time {
	switch p.kind {
	case kindTTL:
		return storedAt.Add(p.ttl)
	case kindAbsolute:
		return p.at
	default:
		return storedAt
	}
}

// IsAbsolute reports whether the policy carries a server-dictated instant.
func (p Policy) IsAbsolute() bool {
	return p.kind == kindAbsolute
}

func (p Policy) String() string {
	switch p.kind {
	case kindTTL:
		return fmt.Sprintf("ttl(%s)", p.ttl)
	case kindAbsolute:
		return fmt.Sprintf("expires(%s)", p.at.UTC().Format(time.RFC3339))
	default:
		return "expired"
	}
}
