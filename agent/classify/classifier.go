package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	llmx "github.com/tawanchai/bankdesk/agent/llm"
)

const (
	defaultMaxRetries    = 2
	defaultRetryInterval = 300 * time.Millisecond
)

type classifierImpl struct {
	runner        compose.Runnable[map[string]any, *schema.Message]
	maxRetries    uint64
	retryInterval time.Duration
}

type classifierLLMOutput struct {
	Intent          string `json:"intent"`
	StructuredQuery string `json:"structured_query,omitempty"`
	KnowledgeQuery  string `json:"knowledge_query,omitempty"`
}

// Option customizes the classifier's retry behavior.
type Option func(*classifierImpl)

func WithMaxRetries(retries uint64) Option {
	return func(c *classifierImpl) {
		c.maxRetries = retries
	}
}

func WithRetryInterval(interval time.Duration) Option {
	return func(c *classifierImpl) {
		if interval > 0 {
			c.retryInterval = interval
		}
	}
}

// New builds the intent classifier on top of a chat model. The model is
// asked for a JSON verdict; off-schema responses degrade to hybrid
// instead of failing, so classification only errors when the reasoning
// capability itself is unreachable.
func New(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	opts ...Option,
) (contractx.Classifier, error) {
	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "classifier.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}

	c := &classifierImpl{
		runner:        runner,
		maxRetries:    defaultMaxRetries,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *classifierImpl) Classify(ctx context.Context, query string, memory string) (contractx.IntentVerdict, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return contractx.IntentVerdict{}, fmt.Errorf("%w: query is empty", contractx.ErrValidation)
	}

	payload := map[string]any{
		"query":  query,
		"memory": memory,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.IntentVerdict{}, fmt.Errorf("%w: marshal classifier payload: %v", contractx.ErrValidation, err)
	}

	msg, err := c.invokeWithRetry(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return contractx.IntentVerdict{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrModelInvoke, err)
	}

	return parseVerdict(query, msg), nil
}

// invokeWithRetry retries transient reasoning failures with jittered
// exponential backoff and accepts the first success.
func (c *classifierImpl) invokeWithRetry(ctx context.Context, in map[string]any) (*schema.Message, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, c.maxRetries), ctx)
	return backoff.RetryWithData(func() (*schema.Message, error) {
		msg, err := c.runner.Invoke(ctx, in)
		if err != nil {
			log.Warn().Err(err).Msg("classifier model call failed, retrying")
			return nil, err
		}
		return msg, nil
	}, policy)
}

// parseVerdict decodes the model's verdict, tolerating fenced output.
// Anything unparseable or off-schema is ambiguity, not failure: the
// verdict folds to hybrid with the original query for both responders.
func parseVerdict(query string, msg *schema.Message) contractx.IntentVerdict {
	hybrid := contractx.IntentVerdict{Intent: contractx.IntentHybrid}
	if msg == nil {
		return hybrid
	}

	raw := stripCodeFence(msg.Content)
	var out classifierLLMOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Debug().Str("content", msg.Content).Msg("classifier response off schema, defaulting to hybrid")
		return hybrid
	}

	return contractx.IntentVerdict{
		Intent:          contractx.NormalizeIntent(out.Intent),
		StructuredQuery: strings.TrimSpace(out.StructuredQuery),
		KnowledgeQuery:  strings.TrimSpace(out.KnowledgeQuery),
	}
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
