// Package qdrant is a minimal REST client for Qdrant point search. The
// knowledge responder only needs top-k similarity search, so the full
// gRPC client is not worth carrying.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 2 << 20

type Config struct {
	URL        string        `split_words:"true" required:"true"`
	APIKey     string        `split_words:"true"`
	Collection string        `split_words:"true" required:"true"`
	Timeout    time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
}

// ClientOption customizes Client.
type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("qdrant url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}

	collection := strings.TrimSpace(cfg.Collection)
	if collection == "" {
		return nil, errors.New("qdrant collection is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

func MustNew(cfg Config, opts ...ClientOption) *Client {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

// Snippet is one retrieved document fragment.
type Snippet struct {
	Text  string
	Score float64
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Status json.RawMessage `json:"status"`
	Result []struct {
		Score   float64                    `json:"score"`
		Payload map[string]json.RawMessage `json:"payload"`
	} `json:"result"`
}

// Search runs cosine top-k search over the configured collection and
// returns payload text ordered by score.
func (c *Client) Search(ctx context.Context, vector []float32, limit int) ([]Snippet, error) {
	if len(vector) == 0 {
		return nil, errors.New("qdrant: search vector is empty")
	}
	if limit <= 0 {
		limit = 2
	}

	body, err := json.Marshal(searchRequest{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: marshal search request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, url.PathEscape(c.collection))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("qdrant: build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant: execute search: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("qdrant: read search response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("qdrant: http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("qdrant: decode search response: %w", err)
	}

	snippets := make([]Snippet, 0, len(parsed.Result))
	for _, hit := range parsed.Result {
		text := payloadText(hit.Payload)
		if text == "" {
			continue
		}
		snippets = append(snippets, Snippet{Text: text, Score: hit.Score})
	}
	return snippets, nil
}

// payloadText pulls the document body out of a point payload. Both the
// bare "text" key and the loader's "page_content" key are accepted.
func payloadText(payload map[string]json.RawMessage) string {
	for _, key := range []string{"text", "page_content"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	return ""
}
