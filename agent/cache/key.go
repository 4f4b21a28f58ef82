package cache

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

// Key builds the deterministic fingerprint for a tool invocation so
// that identical logical requests collapse to the same cache entry.
// Parameter keys are sorted and values normalized, so ordering and
// casing differences in the source query do not defeat the cache.
func Key(tool string, params contractx.Params) string {
	if len(params) == 0 {
		return tool
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(tool)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(normalizeValue(params[name]))
	}
	return b.String()
}

func normalizeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(val))
	case []string:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = strings.ToLower(strings.TrimSpace(item))
		}
		return strings.Join(parts, ",")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = normalizeValue(item)
		}
		return strings.Join(parts, ",")
	default:
		return strings.ToLower(strings.TrimSpace(fmt.Sprint(val)))
	}
}
