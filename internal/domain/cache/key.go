package cache

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MaxKeyValueLen is the longest query value kept verbatim in a cache key. Longer
// values (free-text searches, cursors) are replaced by their hash.
const MaxKeyValueLen = 64

// ProjectScope returns the key scope shared by every entry that depends on a project.
// Mutations invalidate by this scope.
func ProjectScope(projectID string) string {
	return "proj:" + projectID
}

// Key builds a deterministic cache key from a scope, an optional sub-resource and
// the request's query parameters. Parameters are sorted by name and value, empty
// values are dropped, so equivalent requests always produce the same key.
//
//	Key("proj:42", "", nil)                          -> "proj:42"
//	Key("list", "", url.Values{"page": {"2"}})       -> "list?page=2"
//	Key("proj:42", "stats", url.Values{"a": {"1"}})  -> "proj:42:stats?a=1"
func Key(scope, sub string, query url.Values) string {
	var sb strings.Builder
	sb.WriteString(scope)
	if sub != "" {
		sb.WriteByte(':')
		sb.WriteString(sub)
	}

	names := make([]string, 0, len(query))
	for name, values := range query {
		for _, v := range values {
			if v != "" {
				names = append(names, name)
				break
			}
		}
	}
	if len(names) == 0 {
		return sb.String()
	}
	sort.Strings(names)

	sb.WriteByte('?')
	first := true
	for _, name := range names {
		values := make([]string, 0, len(query[name]))
		for _, v := range query[name] {
			if v != "" {
				values = append(values, normalizeValue(v))
			}
		}
		sort.Strings(values)
		for _, v := range values {
			if !first {
				sb.WriteByte('&')
			}
			first = false
			sb.WriteString(url.QueryEscape(name))
			sb.WriteByte('=')
			sb.WriteString(v)
		}
	}
	return sb.String()
}

func normalizeValue(v string) string {
	if len(v) <= MaxKeyValueLen {
		return url.QueryEscape(v)
	}
	return "x" + strconv.FormatUint(xxhash.Sum64String(v), 16)
}
