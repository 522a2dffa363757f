package contract

import (
	"strings"
	"time"
)

// Intent is the routing category of a query.
type Intent string

const (
	IntentStructured Intent = "structured"
	IntentKnowledge  Intent = "knowledge"
	IntentHybrid     Intent = "hybrid"
)

// NormalizeIntent maps a raw classifier label onto a known intent.
// Unknown or ambiguous labels fold to hybrid; over-dispatch is safer
// than silently dropping a responder.
func NormalizeIntent(raw string) Intent {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "structured", "transaction", "account":
		return IntentStructured
	case "knowledge", "product", "faq":
		return IntentKnowledge
	default:
		return IntentHybrid
	}
}

// IntentVerdict is the classifier's output. Sub-queries let a responder
// receive only the part of the query relevant to it; an empty sub-query
// means the original query is used as-is.
type IntentVerdict struct {
	Intent          Intent `json:"intent"`
	StructuredQuery string `json:"structured_query,omitempty"`
	KnowledgeQuery  string `json:"knowledge_query,omitempty"`
}

// ResponderRole tags the two capability responders.
type ResponderRole string

const (
	RoleStructured ResponderRole = "structured"
	RoleKnowledge  ResponderRole = "knowledge"
)

// ResponderRequest carries everything a responder needs for one call.
// Memory is a snapshot of the responder's own session track; it never
// contains turns from another track.
type ResponderRequest struct {
	Role   ResponderRole `json:"role"`
	UserID string        `json:"user_id"`
	Prompt string        `json:"prompt"`
	Memory string        `json:"memory,omitempty"`
}

type ResultStatus string

const (
	ResultOK          ResultStatus = "ok"
	ResultTimeout     ResultStatus = "timeout"
	ResultUnavailable ResultStatus = "unavailable"
)

// ResponderResult is immutable once produced; the synthesizer only
// reads it. Detail is internal diagnostics and must never reach
// user-visible text.
type ResponderResult struct {
	Role   ResponderRole `json:"role"`
	Text   string        `json:"text,omitempty"`
	Status ResultStatus  `json:"status"`
	Detail string        `json:"detail,omitempty"`
}

func (r ResponderResult) Usable() bool {
	return r.Status == ResultOK && strings.TrimSpace(r.Text) != ""
}

// Interaction distinguishes how the query reached the engine.
// Transcription itself is the transport layer's problem.
type Interaction string

const (
	InteractionText  Interaction = "text"
	InteractionVoice Interaction = "voice"
)

// ChatTurn is one completed exchange, recorded after synthesis and
// never mutated afterwards.
type ChatTurn struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Query       string      `json:"query"`
	Response    string      `json:"response"`
	Interaction Interaction `json:"interaction"`
	Timestamp   time.Time   `json:"timestamp"`
}
