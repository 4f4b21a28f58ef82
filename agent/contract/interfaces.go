package contract

import (
	"context"
	"time"
)

// Completer is the language-model collaborator used for the no-intent
// fallback path and for conversation summarization.
type Completer interface {
	Complete(ctx context.Context, instructions string, input string) (string, error)
}

// EntityExtractor pulls a typed entity out of free text. An empty string
// signals a miss; extractors never return errors to callers.
type EntityExtractor interface {
	Extract(text string, entityType string) string
}

// FeedbackStore appends feedback durably and serves the offline
// reinforcement pass. Consumers must tolerate re-reading records.
type FeedbackStore interface {
	Record(ctx context.Context, query string, label FeedbackLabel, sessionID string) (int64, error)
	Recent(ctx context.Context, since time.Duration) ([]FeedbackRecord, error)
}
