package nodes

import (
	"context"
	"fmt"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	statex "github.com/tawanchai/bankdesk/agent/state"
)

// ClassifyIntent asks the classifier for a verdict and records the
// exchange on the classification track. A classifier error here is
// terminal for the pipeline: without a verdict nothing can be routed.
func ClassifyIntent(
	ctx context.Context,
	in *GraphState,
	classifier contractx.Classifier,
	store statex.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	verdict, err := classifier.Classify(ctx, in.Query, in.Memories[statex.TrackClassification])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrClassification, err)
	}
	in.Verdict = verdict

	if _, err := store.Append(ctx, in.UserID, statex.TrackClassification, in.Query, string(verdict.Intent)); err != nil {
		return nil, fmt.Errorf("record classification turn: %w", err)
	}
	return in, nil
}
