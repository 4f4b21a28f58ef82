package contract

import "time"

// ParamKind tells the extractor how a tool parameter is resolved.
type ParamKind string

const (
	// ParamConstant always resolves to the schema default.
	ParamConstant ParamKind = "constant"
	// ParamEntity is pulled out of the query text by an entity extractor,
	// falling back to the schema default on a miss.
	ParamEntity ParamKind = "entity"
	// ParamFreeText resolves to the empty string; free-text capture is not
	// attempted by the rule-based layer.
	ParamFreeText ParamKind = "free-text"
	// ParamList wraps the resolved single value in a one-element slice.
	ParamList ParamKind = "list"
)

// ParamSpec describes one parameter of a tool schema.
type ParamSpec struct {
	Kind    ParamKind `json:"kind"`
	Entity  string    `json:"entity,omitempty"`
	Default string    `json:"default,omitempty"`
}

// Params is the resolved argument set passed to a tool invocation.
type Params map[string]any

// Intent is one classified (tool, priority) candidate for a query.
// A query may yield zero, one, or several intents.
type Intent struct {
	Tool     string `json:"tool"`
	Priority int    `json:"priority"`
}

// ToolResult is the per-tool slice of a turn's answer. A failing tool
// reports through Error while the rest of the turn proceeds.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Cached bool   `json:"cached,omitempty"`
}

type ResponseType string

const (
	ResponseText  ResponseType = "text"
	ResponseError ResponseType = "error"
)

// Response is the structured payload returned to the caller for one turn.
type Response struct {
	Type      ResponseType `json:"type"`
	Content   string       `json:"content"`
	SessionID string       `json:"session_id,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a session's ordered conversation log.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type FeedbackLabel string

const (
	FeedbackPositive FeedbackLabel = "positive"
	FeedbackNegative FeedbackLabel = "negative"
	FeedbackUnknown  FeedbackLabel = "unknown"
)

// ParseFeedbackLabel maps arbitrary client input onto a known label.
func ParseFeedbackLabel(raw string) FeedbackLabel {
	switch FeedbackLabel(raw) {
	case FeedbackPositive, FeedbackNegative:
		return FeedbackLabel(raw)
	default:
		return FeedbackUnknown
	}
}

// FeedbackRecord is one durable feedback entry. Records are append-only;
// the synchronous path never mutates or deletes them.
type FeedbackRecord struct {
	ID        int64         `json:"id"`
	Query     string        `json:"query"`
	Feedback  FeedbackLabel `json:"feedback"`
	SessionID string        `json:"session_id"`
	Timestamp time.Time     `json:"timestamp"`
}
