package nodes

import (
	"context"
	"fmt"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	statex "github.com/tawanchai/bankdesk/agent/state"
)

// ReadMemory snapshots every track's window before the pipeline starts
// reasoning. Snapshotting up front keeps each downstream stage free of
// store reads and makes the memory each stage sees consistent for the
// whole pipeline instance.
func ReadMemory(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	for _, track := range statex.Tracks {
		memory, err := store.Memory(ctx, in.UserID, track)
		if err != nil {
			return nil, fmt.Errorf("read %s memory: %w", track, err)
		}
		in.Memories[track] = memory
	}
	return in, nil
}
