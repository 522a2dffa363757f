// Package orchestrator owns the query-handling pipeline: classify,
// route, dispatch, synthesize, record. One pipeline instance per query;
// the session store is the only state shared between instances.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	nodex "github.com/tawanchai/bankdesk/agent/nodes"
	statex "github.com/tawanchai/bankdesk/agent/state"
)

const (
	defaultPipelineTimeout = 60 * time.Second
	historyAppendTimeout   = 5 * time.Second
)

type Config struct {
	// PipelineTimeout is the outer deadline for one HandleQuery call.
	PipelineTimeout time.Duration
}

type Orchestrator struct {
	store   statex.Store
	models  contractx.Registry
	history contractx.HistorySink

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	pipelineTimeout time.Duration
	now             func() time.Time
}

func New(
	store statex.Store,
	models contractx.Registry,
	history contractx.HistorySink,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if history == nil {
		history = noopHistorySink{}
	}

	timeout := cfg.PipelineTimeout
	if timeout <= 0 {
		timeout = defaultPipelineTimeout
	}

	o := &Orchestrator{
		store:           store,
		models:          models,
		history:         history,
		pipelineTimeout: timeout,
		now:             time.Now,
	}

	graphRunner, err := o.compileHandleQueryGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleQuery runs one full pipeline under the outer deadline. Any
// failure surfaces as *contract.OrchestrationError; partial results
// never leak to the caller.
func (o *Orchestrator) HandleQuery(
	ctx context.Context,
	userID string,
	query string,
	interaction contractx.Interaction,
) (contractx.ChatTurn, error) {
	ctx, cancel := context.WithTimeout(ctx, o.pipelineTimeout)
	defer cancel()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		UserID:      userID,
		Query:       query,
		Interaction: interaction,
	})
	if err != nil {
		return contractx.ChatTurn{}, o.asOrchestrationError(ctx, err)
	}

	o.recordHistory(out.Turn)
	return out.Turn, nil
}

// asOrchestrationError folds any pipeline failure into the single error
// shape the transport layer understands.
func (o *Orchestrator) asOrchestrationError(ctx context.Context, err error) error {
	var oe *contractx.OrchestrationError
	if errors.As(err, &oe) {
		return oe
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return contractx.NewOrchestrationError(contractx.KindDeadline, contractx.ErrDeadlineExceeded)
	case errors.Is(err, nodex.ErrInvalidUser),
		errors.Is(err, nodex.ErrInvalidQuery),
		errors.Is(err, nodex.ErrInvalidInteraction),
		errors.Is(err, contractx.ErrValidation):
		return contractx.NewOrchestrationError(contractx.KindValidation, err)
	case errors.Is(err, contractx.ErrClassification):
		return contractx.NewOrchestrationError(contractx.KindClassification, err)
	default:
		return contractx.NewOrchestrationError(contractx.KindSynthesis, err)
	}
}

// recordHistory hands the turn to the durable sink without blocking the
// caller. A sink failure is logged and dropped; history is best-effort
// by contract.
func (o *Orchestrator) recordHistory(turn contractx.ChatTurn) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historyAppendTimeout)
		defer cancel()

		if err := o.history.Append(ctx, turn); err != nil {
			log.Error().
				Err(err).
				Str("turn_id", turn.ID).
				Str("user_id", turn.UserID).
				Msg("failed to append chat turn to history sink")
		}
	}()
}

type noopHistorySink struct{}

func (noopHistorySink) Append(context.Context, contractx.ChatTurn) error {
	return nil
}
