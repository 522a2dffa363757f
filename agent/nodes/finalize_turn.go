package nodes

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
)

// FinalizeTurn seals the completed exchange into an immutable ChatTurn.
func FinalizeTurn(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	answer := strings.TrimSpace(in.Answer)
	if answer == "" {
		return GraphOutput{}, fmt.Errorf("%w: synthesized reply is empty", contractx.ErrSynthesis)
	}

	return GraphOutput{Turn: contractx.ChatTurn{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Query:       in.Query,
		Response:    answer,
		Interaction: in.Interaction,
		Timestamp:   in.AnsweredAt,
	}}, nil
}
