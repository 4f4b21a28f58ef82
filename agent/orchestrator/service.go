// Package orchestrator receives a query plus session id, classifies
// intent, resolves parameters, invokes matched tools through the cache
// and retry policy, and maintains conversation memory. The turn
// pipeline is a compiled graph; each node is one state transition.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/lenoxhq/lenox/agent/contract"
	intentx "github.com/lenoxhq/lenox/agent/intent"
	memoryx "github.com/lenoxhq/lenox/agent/memory"
	promptx "github.com/lenoxhq/lenox/agent/prompt"
	toolx "github.com/lenoxhq/lenox/agent/tool"
)

const defaultTurnTimeout = 25 * time.Second

type Config struct {
	// TurnTimeout bounds a turn's tool fan-out and its fallback
	// completion call. A turn that exceeds it returns whatever tool
	// results completed instead of blocking.
	TurnTimeout time.Duration
}

type Orchestrator struct {
	registry   *toolx.Registry
	classifier *intentx.Classifier
	extractor  contractx.EntityExtractor
	runner     *toolx.Runner
	sessions   *memoryx.Manager
	feedback   contractx.FeedbackStore
	completer  contractx.Completer
	prompts    promptx.PromptSet

	graphRunner compose.Runnable[GraphInput, contractx.Response]

	turnTimeout time.Duration
	now         func() time.Time
}

func New(
	registry *toolx.Registry,
	classifier *intentx.Classifier,
	extractor contractx.EntityExtractor,
	runner *toolx.Runner,
	sessions *memoryx.Manager,
	feedback contractx.FeedbackStore,
	completer contractx.Completer,
	cfg Config,
) (*Orchestrator, error) {
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if classifier == nil {
		return nil, errors.New("intent classifier is required")
	}
	if runner == nil {
		return nil, errors.New("tool runner is required")
	}
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if feedback == nil {
		return nil, errors.New("feedback store is required")
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}

	turnTimeout := cfg.TurnTimeout
	if turnTimeout <= 0 {
		turnTimeout = defaultTurnTimeout
	}

	o := &Orchestrator{
		registry:    registry,
		classifier:  classifier,
		extractor:   extractor,
		runner:      runner,
		sessions:    sessions,
		feedback:    feedback,
		completer:   completer,
		prompts:     promptx.LoadPromptSet(),
		turnTimeout: turnTimeout,
		now:         time.Now,
	}

	graphRunner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleQuery runs one full turn. The returned response is always
// structured; per-tool failures degrade inline and only a no-intent
// turn whose completion call also fails comes back as a response of
// type error.
func (o *Orchestrator) HandleQuery(ctx context.Context, sessionID, query string) (contractx.Response, error) {
	return o.graphRunner.Invoke(ctx, GraphInput{
		SessionID: sessionID,
		Query:     query,
	})
}

// HandleFeedback appends one feedback record, minting a session when the
// caller has none yet.
func (o *Orchestrator) HandleFeedback(ctx context.Context, sessionID, query, feedback string) (contractx.FeedbackRecord, error) {
	if query == "" {
		return contractx.FeedbackRecord{}, contractx.ErrInvalidQuery
	}

	sess := o.sessions.Acquire(sessionID)
	label := contractx.ParseFeedbackLabel(feedback)

	id, err := o.feedback.Record(ctx, query, label, sess.ID)
	if err != nil {
		return contractx.FeedbackRecord{}, err
	}
	return contractx.FeedbackRecord{
		ID:        id,
		Query:     query,
		Feedback:  label,
		SessionID: sess.ID,
	}, nil
}
