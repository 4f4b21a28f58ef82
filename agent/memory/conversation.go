// Package memory keeps per-session conversation history bounded: a full
// ordered turn log is periodically folded into a summary digest so LLM
// context stays within budget.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

const (
	// defaultSummarizeAfter is the raw-turn count that triggers folding
	// older turns into the summary.
	defaultSummarizeAfter = 12
	// defaultKeepRecent is how many raw turns the digest keeps verbatim.
	defaultKeepRecent = 6
	// defaultDigestBudget bounds the rendered digest length in bytes.
	defaultDigestBudget = 4096
)

// SummarizeFunc folds conversation text into a shorter summary. The
// orchestrator binds this to the completion-service collaborator.
type SummarizeFunc func(ctx context.Context, text string) (string, error)

type settings struct {
	summarizeAfter int
	keepRecent     int
	digestBudget   int
}

// Conversation is one session's ordered turn log plus its cached
// summary. All mutation runs under a single mutex so same-session
// requests serialize; separate sessions are fully independent.
type Conversation struct {
	mu      sync.Mutex
	turns   []contractx.Turn
	summary string
	cfg     settings
}

func newConversation(cfg settings) *Conversation {
	return &Conversation{cfg: cfg}
}

// RecordExchange appends a user/assistant turn pair atomically, then
// compacts if the raw log has outgrown its threshold. Summarization is
// synchronous relative to the calling request; the latency is an
// accepted cost to keep ordering simple.
func (c *Conversation) RecordExchange(ctx context.Context, user, assistant contractx.Turn, summarize SummarizeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, user, assistant)

	if len(c.turns) > c.cfg.summarizeAfter && summarize != nil {
		c.compactLocked(ctx, summarize)
	}
	c.enforceBudgetLocked()
}

// Digest returns the bounded textual history: the running summary
// followed by the most recent raw turns.
func (c *Conversation) Digest() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked()
}

// TurnCount reports the raw-turn log length.
func (c *Conversation) TurnCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

func (c *Conversation) compactLocked(ctx context.Context, summarize SummarizeFunc) {
	cut := len(c.turns) - c.cfg.keepRecent
	if cut <= 0 {
		return
	}
	older := c.turns[:cut]

	var b strings.Builder
	if c.summary != "" {
		b.WriteString("Previous summary: ")
		b.WriteString(c.summary)
		b.WriteString("\n")
	}
	for _, turn := range older {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}

	summary, err := summarize(ctx, b.String())
	if err != nil {
		// Keep the raw turns; the budget enforcement below still bounds
		// the digest by dropping oldest turns.
		log.Warn().Err(err).Msg("conversation summarization failed")
		return
	}

	c.summary = strings.TrimSpace(summary)
	c.turns = append([]contractx.Turn(nil), c.turns[cut:]...)
}

// enforceBudgetLocked drops oldest raw turns unconditionally when the
// digest still exceeds its budget after summarization. The newest turn
// always survives.
func (c *Conversation) enforceBudgetLocked() {
	for len(c.turns) > 1 && len(c.renderLocked()) > c.cfg.digestBudget {
		c.turns = c.turns[1:]
	}
	if len(c.renderLocked()) > c.cfg.digestBudget && c.summary != "" {
		c.summary = ""
	}
}

func (c *Conversation) renderLocked() string {
	var b strings.Builder
	if c.summary != "" {
		b.WriteString("Summary: ")
		b.WriteString(c.summary)
		b.WriteString("\n")
	}
	start := 0
	if len(c.turns) > c.cfg.keepRecent {
		start = len(c.turns) - c.cfg.keepRecent
	}
	for _, turn := range c.turns[start:] {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	return b.String()
}
