// Package route turns an intent verdict into a responder plan. Pure
// decision logic: no I/O, no failure mode.
package route

import (
	"strings"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
)

// Invocation is one planned responder call.
type Invocation struct {
	Role   contractx.ResponderRole
	Prompt string
}

// Plan is the set of responder invocations for one query. Hybrid plans
// carry exactly two invocations with no ordering dependency between them.
type Plan struct {
	Intent      contractx.Intent
	Invocations []Invocation
}

// Concurrent reports whether the invocations are dispatched in parallel.
func (p Plan) Concurrent() bool {
	return len(p.Invocations) > 1
}

// Route selects the responder set for a verdict. The router never
// re-classifies; a malformed label fails closed to hybrid so that no
// responder is silently dropped.
func Route(verdict contractx.IntentVerdict, query string) Plan {
	structured := Invocation{
		Role:   contractx.RoleStructured,
		Prompt: firstNonEmpty(verdict.StructuredQuery, query),
	}
	knowledge := Invocation{
		Role:   contractx.RoleKnowledge,
		Prompt: firstNonEmpty(verdict.KnowledgeQuery, query),
	}

	switch verdict.Intent {
	case contractx.IntentStructured:
		return Plan{Intent: contractx.IntentStructured, Invocations: []Invocation{structured}}
	case contractx.IntentKnowledge:
		return Plan{Intent: contractx.IntentKnowledge, Invocations: []Invocation{knowledge}}
	default:
		return Plan{Intent: contractx.IntentHybrid, Invocations: []Invocation{structured, knowledge}}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
