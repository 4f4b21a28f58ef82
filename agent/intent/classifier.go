// Package intent maps a raw user query onto candidate tools using the
// prioritized pattern rules each tool declares.
package intent

import (
	"regexp"
	"sort"
	"strings"

	contractx "github.com/lenoxhq/lenox/agent/contract"
	toolx "github.com/lenoxhq/lenox/agent/tool"
)

// chitChatExprs force classification to no-intent: answering a greeting
// literally beats an unrelated data lookup.
var chitChatExprs = []string{
	`^\s*(hello|hi|hey|greetings|yo)\b`,
	`\bhow are you\b`,
	`\bwhat'?s up\b`,
	`\bgood (morning|afternoon|evening|night)\b`,
	`^\s*(thanks|thank you)\b`,
}

type Classifier struct {
	registry *toolx.Registry
	chitChat []*regexp.Regexp
}

type Option func(*Classifier)

// WithChitChatExprs replaces the built-in chit-chat rules.
func WithChitChatExprs(exprs []string) Option {
	return func(c *Classifier) {
		c.chitChat = compile(exprs)
	}
}

func NewClassifier(registry *toolx.Registry, opts ...Option) *Classifier {
	c := &Classifier{
		registry: registry,
		chitChat: compile(chitChatExprs),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Classify tests every registered tool's patterns against the query and
// returns the deduplicated candidates, highest priority first. Equal
// top priorities are preserved so the orchestrator can fan out. An
// empty result signals the free-form completion path.
func (c *Classifier) Classify(query string) []contractx.Intent {
	normalized := strings.TrimSpace(query)
	if normalized == "" {
		return nil
	}

	for _, expr := range c.chitChat {
		if expr.MatchString(normalized) {
			return nil
		}
	}

	best := make(map[string]int)
	for _, desc := range c.registry.List() {
		for _, pat := range desc.Patterns {
			if !pat.Expr.MatchString(normalized) {
				continue
			}
			if prev, ok := best[desc.Name]; !ok || pat.Priority > prev {
				best[desc.Name] = pat.Priority
			}
		}
	}
	if len(best) == 0 {
		return nil
	}

	intents := make([]contractx.Intent, 0, len(best))
	for tool, priority := range best {
		intents = append(intents, contractx.Intent{Tool: tool, Priority: priority})
	}
	sort.Slice(intents, func(i, j int) bool {
		if intents[i].Priority != intents[j].Priority {
			return intents[i].Priority > intents[j].Priority
		}
		return intents[i].Tool < intents[j].Tool
	})
	return intents
}

func compile(exprs []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+expr))
	}
	return compiled
}
