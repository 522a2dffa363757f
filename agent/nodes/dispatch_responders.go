package nodes

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	responderx "github.com/tawanchai/bankdesk/agent/responder"
	routex "github.com/tawanchai/bankdesk/agent/route"
	statex "github.com/tawanchai/bankdesk/agent/state"
)

// DispatchResponders fans the plan out to the responders and joins when
// every invocation has settled. A hybrid plan runs both concurrently; a
// failing invocation never cancels its sibling. Failures are converted
// to failed results here and absorbed downstream, and successful turns
// land on their track in real completion order because each goroutine
// appends the moment its invocation finishes.
func DispatchResponders(
	ctx context.Context,
	in *GraphState,
	models contractx.Registry,
	store statex.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if len(in.Plan.Invocations) == 0 {
		return nil, fmt.Errorf("%w: empty responder plan", contractx.ErrValidation)
	}

	resCh := make(chan contractx.ResponderResult, len(in.Plan.Invocations))
	var wg sync.WaitGroup

	for _, inv := range in.Plan.Invocations {
		rsp, track, err := pickResponder(inv.Role, models)
		if err != nil {
			return nil, err
		}

		wg.Add(1)
		go func(inv routex.Invocation, rsp contractx.Responder, track statex.Track) {
			defer wg.Done()
			resCh <- invokeResponder(ctx, in, inv, rsp, track, store)
		}(inv, rsp, track)
	}

	wg.Wait()
	close(resCh)

	results := make([]contractx.ResponderResult, 0, len(in.Plan.Invocations))
	for res := range resCh {
		results = append(results, res)
	}
	in.Results = results
	return in, nil
}

func invokeResponder(
	ctx context.Context,
	in *GraphState,
	inv routex.Invocation,
	rsp contractx.Responder,
	track statex.Track,
	store statex.Store,
) contractx.ResponderResult {
	res, err := rsp.Invoke(ctx, contractx.ResponderRequest{
		Role:   inv.Role,
		UserID: in.UserID,
		Prompt: inv.Prompt,
		Memory: in.Memories[track],
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("role", string(inv.Role)).
			Str("user_id", in.UserID).
			Msg("responder invocation failed")
		return responderx.FailureResult(inv.Role, err)
	}

	// Failed invocations leave no trace in session memory; only the
	// answer the user could have seen is recorded.
	if _, err := store.Append(ctx, in.UserID, track, inv.Prompt, res.Text); err != nil {
		log.Error().
			Err(err).
			Str("role", string(inv.Role)).
			Str("user_id", in.UserID).
			Msg("failed to record responder turn")
	}
	return res
}

func pickResponder(role contractx.ResponderRole, models contractx.Registry) (contractx.Responder, statex.Track, error) {
	switch role {
	case contractx.RoleStructured:
		return models.Structured(), statex.TrackStructured, nil
	case contractx.RoleKnowledge:
		return models.Knowledge(), statex.TrackKnowledge, nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported responder role=%q", contractx.ErrValidation, role)
	}
}
