// Package nodes holds the pipeline steps of the query-handling graph.
// Each node is a plain function over *GraphState so it stays unit-testable
// outside the graph runtime; the orchestrator wires them into an eino
// graph.
package nodes

import (
	"errors"
	"time"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	routex "github.com/tawanchai/bankdesk/agent/route"
	statex "github.com/tawanchai/bankdesk/agent/state"
)

var (
	ErrInvalidUser        = errors.New("user id is empty")
	ErrInvalidQuery       = errors.New("query is empty")
	ErrInvalidInteraction = errors.New("unknown interaction type")
)

type GraphInput struct {
	UserID      string
	Query       string
	Interaction contractx.Interaction
}

type GraphOutput struct {
	Turn contractx.ChatTurn
}

// GraphState is the request-scoped pipeline state. It is owned by exactly
// one pipeline instance and discarded when the pipeline completes; the
// session store is the only state that outlives it.
type GraphState struct {
	UserID      string
	Query       string
	Interaction contractx.Interaction
	Now         time.Time

	Memories map[statex.Track]string
	Verdict  contractx.IntentVerdict
	Plan     routex.Plan
	Results  []contractx.ResponderResult

	Answer     string
	AnsweredAt time.Time
}
