package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/lenoxhq/lenox/agent/contract"
	memoryx "github.com/lenoxhq/lenox/agent/memory"
	paramsx "github.com/lenoxhq/lenox/agent/params"
	toolx "github.com/lenoxhq/lenox/agent/tool"
	metricsx "github.com/lenoxhq/lenox/pkg/metrics"
)

type GraphInput struct {
	SessionID string
	Query     string
}

// plannedCall is one tool ready to run with resolved parameters.
type plannedCall struct {
	desc     *toolx.Descriptor
	params   contractx.Params
	priority int
}

// GraphState carries one turn through the pipeline.
type GraphState struct {
	Query   string
	Session *memoryx.Session

	Intents []contractx.Intent
	calls   []plannedCall
	Results []contractx.ToolResult

	Reply     string
	ReplyType contractx.ResponseType
}

func (o *Orchestrator) validateRequest(in GraphInput) (*GraphState, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, contractx.ErrInvalidQuery
	}

	return &GraphState{
		Query:   query,
		Session: o.sessions.Acquire(strings.TrimSpace(in.SessionID)),
	}, nil
}

func (o *Orchestrator) classifyIntent(st *GraphState) (*GraphState, error) {
	st.Intents = o.classifier.Classify(st.Query)
	log.Debug().
		Str("session", st.Session.ID).
		Int("candidates", len(st.Intents)).
		Msg("classified query")
	return st, nil
}

func (o *Orchestrator) resolveParams(st *GraphState) (*GraphState, error) {
	st.calls = make([]plannedCall, 0, len(st.Intents))
	for _, it := range st.Intents {
		desc, err := o.registry.Resolve(it.Tool)
		if err != nil {
			// The classifier only emits registered tools; a miss here is
			// a catalog bug, surfaced rather than silently skipped.
			return nil, err
		}
		st.calls = append(st.calls, plannedCall{
			desc:     desc,
			params:   paramsx.Resolve(desc, st.Query, o.extractor),
			priority: it.Priority,
		})
	}
	return st, nil
}

// executeTools fans matched tools out concurrently and joins their
// results in declared-priority order. With no intent it routes to the
// free-form completion path instead. The turn deadline bounds this node
// only, so a timed-out turn still renders what finished, records memory,
// and returns a structured partial response.
func (o *Orchestrator) executeTools(ctx context.Context, st *GraphState) (*GraphState, error) {
	if len(st.calls) == 0 {
		return o.completeFallback(ctx, st)
	}

	toolCtx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	type indexed struct {
		idx int
		res contractx.ToolResult
	}

	// Buffered so abandoned goroutines can finish after a turn timeout
	// without leaking.
	ch := make(chan indexed, len(st.calls))
	for i, call := range st.calls {
		go func(i int, call plannedCall) {
			ch <- indexed{idx: i, res: o.runner.Run(toolCtx, call.desc, call.params)}
		}(i, call)
	}

	results := make([]contractx.ToolResult, len(st.calls))
	done := make([]bool, len(st.calls))
	received := 0
	for received < len(st.calls) {
		select {
		case r := <-ch:
			results[r.idx] = r.res
			done[r.idx] = true
			received++
		case <-toolCtx.Done():
			// Turn deadline: keep what finished, mark the rest abandoned.
			for i := range results {
				if !done[i] {
					results[i] = contractx.ToolResult{
						Tool:  st.calls[i].desc.Name,
						Error: "abandoned: turn deadline exceeded",
					}
				}
			}
			received = len(st.calls)
		}
	}

	st.Results = results
	st.ReplyType = contractx.ResponseText
	st.Reply = renderResults(results)
	return st, nil
}

func (o *Orchestrator) completeFallback(ctx context.Context, st *GraphState) (*GraphState, error) {
	input := st.Session.Conversation.Digest() + "user: " + st.Query

	callCtx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	reply, err := o.completer.Complete(callCtx, o.prompts.Assistant, input)
	if err != nil {
		metricsx.Completions.WithLabelValues("fallback", "error").Inc()
		log.Error().Str("session", st.Session.ID).Err(err).Msg("fallback completion failed")
		st.ReplyType = contractx.ResponseError
		st.Reply = "The assistant is temporarily unavailable. Please try again."
		return st, nil
	}

	metricsx.Completions.WithLabelValues("fallback", "ok").Inc()
	st.ReplyType = contractx.ResponseText
	st.Reply = reply
	return st, nil
}

func (o *Orchestrator) updateMemory(ctx context.Context, st *GraphState) (*GraphState, error) {
	now := o.now()
	user := contractx.Turn{Role: contractx.RoleUser, Content: st.Query, Timestamp: now}
	assistant := contractx.Turn{Role: contractx.RoleAssistant, Content: st.Reply, Timestamp: now}

	st.Session.Conversation.RecordExchange(ctx, user, assistant, o.summarize)
	return st, nil
}

func (o *Orchestrator) finalizeReply(st *GraphState) (contractx.Response, error) {
	metricsx.Turns.WithLabelValues(string(st.ReplyType)).Inc()
	return contractx.Response{
		Type:      st.ReplyType,
		Content:   st.Reply,
		SessionID: st.Session.ID,
	}, nil
}

func (o *Orchestrator) summarize(ctx context.Context, text string) (string, error) {
	summary, err := o.completer.Complete(ctx, o.prompts.Summarizer, text)
	if err != nil {
		metricsx.Completions.WithLabelValues("summarize", "error").Inc()
		return "", err
	}
	metricsx.Completions.WithLabelValues("summarize", "ok").Inc()
	return summary, nil
}

// renderResults concatenates the structured per-tool outputs. Tools are
// already ordered by declared priority, not completion order.
func renderResults(results []contractx.ToolResult) string {
	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		// Tool results come from JSON APIs; a marshal failure means a
		// tool returned something unserializable.
		return fmt.Sprintf(`[{"error": "unserializable tool results: %v"}]`, err)
	}
	return string(payload)
}
