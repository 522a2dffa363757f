package contract

import "context"

// Classifier maps a raw query plus classification-track memory to an
// intent verdict. Ambiguous input resolves to a best-effort verdict;
// an error means the reasoning capability is wholly unavailable.
type Classifier interface {
	Classify(ctx context.Context, query string, memory string) (IntentVerdict, error)
}

// Responder is the uniform capability interface for the two specialized
// responders. Invoke must not mutate shared session state; on timeout or
// backend failure it returns ErrResponderTimeout / ErrResponderUnavailable.
type Responder interface {
	Role() ResponderRole
	Invoke(ctx context.Context, req ResponderRequest) (ResponderResult, error)
}

// Synthesizer merges one or two responder results into the final
// user-facing text. It fails only when zero usable results exist.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, results []ResponderResult, memory string) (string, error)
}

// Registry hands out the capability implementations. Tagged accessors
// instead of open-ended plugin registration: only two roles exist.
type Registry interface {
	Classifier() Classifier
	Structured() Responder
	Knowledge() Responder
	Synthesizer() Synthesizer
}

// HistorySink receives completed turns for durable retrieval. The engine
// only needs fire-and-forget append; read-back belongs to the caller.
type HistorySink interface {
	Append(ctx context.Context, turn ChatTurn) error
}
