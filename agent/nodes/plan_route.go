package nodes

import (
	"fmt"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	routex "github.com/tawanchai/bankdesk/agent/route"
)

// PlanRoute is pure: verdict in, responder plan out.
func PlanRoute(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Plan = routex.Route(in.Verdict, in.Query)
	return in, nil
}
