package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "", Collection: "bank_products"}); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewClient(Config{URL: "http://localhost:6333", Collection: "  "}); err == nil {
		t.Fatal("expected error for empty collection")
	}
}

func TestSearchSendsVectorAndParsesHits(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody searchRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode search body: %v", err)
		}
		if got := r.Header.Get("api-key"); got != "secret" {
			t.Errorf("unexpected api-key header: %q", got)
		}
		fmt.Fprint(w, `{
			"status": "ok",
			"result": [
				{"score": 0.91, "payload": {"text": "Fixed deposit, 4.1% p.a."}},
				{"score": 0.77, "payload": {"page_content": "Personal loan up to 36 months."}},
				{"score": 0.10, "payload": {"category": "misc"}}
			]
		}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(
		Config{URL: server.URL, APIKey: "secret", Collection: "bank_products"},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	snippets, err := client.Search(context.Background(), []float32{0.1, 0.2, 0.3}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotPath != "/collections/bank_products/points/search" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotBody.Limit != 3 || !gotBody.WithPayload || len(gotBody.Vector) != 3 {
		t.Fatalf("unexpected request body: %#v", gotBody)
	}

	if len(snippets) != 2 {
		t.Fatalf("expected 2 snippets with text, got %d", len(snippets))
	}
	if snippets[0].Text != "Fixed deposit, 4.1% p.a." || snippets[0].Score != 0.91 {
		t.Fatalf("unexpected first snippet: %#v", snippets[0])
	}
	if snippets[1].Text != "Personal loan up to 36 months." {
		t.Fatalf("unexpected second snippet: %#v", snippets[1])
	}
}

func TestSearchHTTPFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(
		Config{URL: server.URL, Collection: "missing"},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Search(context.Background(), []float32{0.5}, 2); err == nil {
		t.Fatal("expected error for http 404")
	}
}

func TestSearchRejectsEmptyVector(t *testing.T) {
	t.Parallel()

	client := MustNew(Config{URL: "http://localhost:6333", Collection: "bank_products"})
	_, err := client.Search(context.Background(), nil, 2)
	if err == nil {
		t.Fatal("expected error for empty vector")
	}
	if errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error type: %v", err)
	}
}
