package redis

import "strings"

// DefaultNamespace prefixes every key this service writes.
const DefaultNamespace = "j4e"

// Keyspace builds colon-separated keys under one namespace. Blank parts are
// dropped so optional scopes do not leave empty segments.
type Keyspace string

func (k Keyspace) join(kind string, parts ...string) string {
	ns := string(k)
	if ns == "" {
		ns = DefaultNamespace
	}
	segments := make([]string, 0, len(parts)+2)
	segments = append(segments, ns, kind)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}
	return strings.Join(segments, ":")
}

// IdempotencyKey names a replay or dedupe marker.
func (k Keyspace) IdempotencyKey(scope, id string) string {
	return k.join("idempotency", scope, id)
}

// RateLimitKey names a fixed-window counter.
func (k Keyspace) RateLimitKey(scope string) string {
	return k.join("rate_limit", scope)
}

// LockKey names a distributed lock.
func (k Keyspace) LockKey(name string) string {
	return k.join("lock", name)
}
