package responder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	llmx "github.com/tawanchai/bankdesk/agent/llm"
	qdrantx "github.com/tawanchai/bankdesk/pkg/qdrant"
)

// Embedder turns a query into the vector used for retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher retrieves the closest product-knowledge snippets for a vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int) ([]qdrantx.Snippet, error)
}

type knowledgeResponder struct {
	runner   compose.Runnable[map[string]any, *schema.Message]
	embedder Embedder
	searcher Searcher
	timeout  time.Duration
	topK     int
}

// NewKnowledge builds the retrieval-grounded responder: embed the query,
// fetch the nearest knowledge snippets, and answer from them alone.
func NewKnowledge(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	embedder Embedder,
	searcher Searcher,
	opts ...Option,
) (contractx.Responder, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", contractx.ErrValidation)
	}
	if searcher == nil {
		return nil, fmt.Errorf("%w: searcher is required", contractx.ErrValidation)
	}
	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "responder.knowledge_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile knowledge graph: %v", contractx.ErrModelInvoke, err)
	}

	o := applyOptions(opts)
	return &knowledgeResponder{
		runner:   runner,
		embedder: embedder,
		searcher: searcher,
		timeout:  o.timeout,
		topK:     o.topK,
	}, nil
}

func (r *knowledgeResponder) Role() contractx.ResponderRole {
	return contractx.RoleKnowledge
}

func (r *knowledgeResponder) Invoke(ctx context.Context, req contractx.ResponderRequest) (contractx.ResponderResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return contractx.ResponderResult{}, fmt.Errorf("%w: prompt is empty", contractx.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := r.embedder.Embed(ctx, prompt)
	if err != nil {
		return contractx.ResponderResult{}, wrapInvokeErr(fmt.Errorf("embed query: %w", err))
	}

	snippets, err := r.searcher.Search(ctx, vector, r.topK)
	if err != nil {
		return contractx.ResponderResult{}, wrapInvokeErr(fmt.Errorf("search knowledge base: %w", err))
	}
	if len(snippets) == 0 {
		log.Debug().Str("query", prompt).Msg("no knowledge snippets retrieved")
	}

	excerpts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		excerpts = append(excerpts, s.Text)
	}

	payload := map[string]any{
		"query":    prompt,
		"memory":   req.Memory,
		"excerpts": excerpts,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.ResponderResult{}, fmt.Errorf("%w: marshal knowledge payload: %v", contractx.ErrValidation, err)
	}

	msg, err := r.runner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return contractx.ResponderResult{}, wrapInvokeErr(fmt.Errorf("knowledge model call: %w", err))
	}

	text := ""
	if msg != nil {
		text = strings.TrimSpace(msg.Content)
	}
	if text == "" {
		return contractx.ResponderResult{}, fmt.Errorf("%w: knowledge responder returned empty answer", contractx.ErrResponderUnavailable)
	}

	return contractx.ResponderResult{
		Role:   contractx.RoleKnowledge,
		Text:   text,
		Status: contractx.ResultOK,
	}, nil
}
