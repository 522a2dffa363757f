package nodes

import (
	"context"
	"fmt"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	statex "github.com/tawanchai/bankdesk/agent/state"
)

// SynthesizeAnswer turns the settled responder results into the final
// reply and records the exchange on the synthesis track. The append
// timestamp becomes the turn's timestamp so session ordering and turn
// ordering agree.
func SynthesizeAnswer(
	ctx context.Context,
	in *GraphState,
	synthesizer contractx.Synthesizer,
	store statex.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	answer, err := synthesizer.Synthesize(ctx, in.Query, in.Results, in.Memories[statex.TrackSynthesis])
	if err != nil {
		return nil, err
	}
	in.Answer = answer

	at, err := store.Append(ctx, in.UserID, statex.TrackSynthesis, in.Query, answer)
	if err != nil {
		return nil, fmt.Errorf("record synthesis turn: %w", err)
	}
	in.AnsweredAt = at
	return in, nil
}
