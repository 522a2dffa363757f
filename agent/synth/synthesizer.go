// Package synth merges responder answers into one customer-facing reply.
// Failed responder results are dropped before the model ever sees them;
// synthesis only fails when nothing usable survived or the reasoning
// capability is down.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	llmx "github.com/tawanchai/bankdesk/agent/llm"
)

const (
	modeMerge   = "merge"
	modeRewrite = "rewrite"
)

type synthesizerImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

type section struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// New builds the synthesizer on top of a chat model.
func New(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (contractx.Synthesizer, error) {
	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "synthesizer.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile synthesizer graph: %v", contractx.ErrSynthesis, err)
	}
	return &synthesizerImpl{runner: runner}, nil
}

func (s *synthesizerImpl) Synthesize(
	ctx context.Context,
	query string,
	results []contractx.ResponderResult,
	memory string,
) (string, error) {
	sections := make([]section, 0, len(results))
	for _, res := range results {
		if !res.Usable() {
			continue
		}
		sections = append(sections, section{
			Source:  string(res.Role),
			Content: res.Text,
		})
	}
	if len(sections) == 0 {
		return "", fmt.Errorf("%w: no usable responder results", contractx.ErrSynthesis)
	}

	mode := modeRewrite
	if len(sections) > 1 {
		mode = modeMerge
	}

	payload := map[string]any{
		"query":    strings.TrimSpace(query),
		"memory":   memory,
		"mode":     mode,
		"sections": sections,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal synthesis payload: %v", contractx.ErrSynthesis, err)
	}

	msg, err := s.runner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return "", fmt.Errorf("%w: synthesizer invoke: %v", contractx.ErrSynthesis, err)
	}

	answer := ""
	if msg != nil {
		answer = strings.TrimSpace(msg.Content)
	}
	if answer == "" {
		return "", fmt.Errorf("%w: synthesizer returned empty reply", contractx.ErrSynthesis)
	}
	return answer, nil
}
