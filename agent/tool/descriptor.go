// Package tool holds the registry of data-retrieval capabilities, the
// built-in crypto tool clients, and the invocation runner that applies
// caching, retry, and circuit-breaking policy.
package tool

import (
	"context"
	"regexp"
	"time"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

// InvokeFunc performs one upstream call with fully resolved parameters.
// Failures are classified by wrapping them in a contract.ToolError.
type InvokeFunc func(ctx context.Context, params contractx.Params) (any, error)

// Pattern is one prioritized intent rule. Expressions are compiled
// case-insensitively; a higher priority wins when a tool matches twice.
type Pattern struct {
	Expr     *regexp.Regexp
	Priority int
}

// MustPattern compiles a case-insensitive intent rule, panicking on a
// bad expression. Registration happens once at process start, so a
// panic here is a programming error surfaced immediately.
func MustPattern(expr string, priority int) Pattern {
	return Pattern{
		Expr:     regexp.MustCompile(`(?i)` + expr),
		Priority: priority,
	}
}

// Descriptor is the immutable capability record for one tool. It is
// owned by the Registry and never mutated after registration.
type Descriptor struct {
	Name          string
	Desc          string
	Patterns      []Pattern
	Params        map[string]contractx.ParamSpec
	CacheCategory string
	Timeout       time.Duration
	Retries       int
	Invoke        InvokeFunc
}
