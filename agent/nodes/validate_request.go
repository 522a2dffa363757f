package nodes

import (
	"strings"
	"time"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	statex "github.com/tawanchai/bankdesk/agent/state"
)

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrInvalidUser
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrInvalidQuery
	}

	interaction := in.Interaction
	switch interaction {
	case contractx.InteractionText, contractx.InteractionVoice:
	case "":
		interaction = contractx.InteractionText
	default:
		return nil, ErrInvalidInteraction
	}

	return &GraphState{
		UserID:      userID,
		Query:       query,
		Interaction: interaction,
		Now:         nowFn().UTC(),
		Memories:    make(map[statex.Track]string, len(statex.Tracks)),
	}, nil
}
