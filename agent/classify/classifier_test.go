package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
)

type fakeCall struct {
	msg *schema.Message
	err error
}

type fakeChatModel struct {
	calls []fakeCall
	idx   int
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if f.idx >= len(f.calls) {
		return nil, errors.New("no fake response left")
	}
	call := f.calls[f.idx]
	f.idx++
	if call.err != nil {
		return nil, call.err
	}
	return call.msg, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func newTestClassifier(t *testing.T, fake *fakeChatModel) contractx.Classifier {
	t.Helper()
	c, err := New(context.Background(), fake, "classifier prompt",
		WithRetryInterval(time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestClassifyStructuredWithSubQueries(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{calls: []fakeCall{
		{msg: &schema.Message{Content: `{"intent":"structured","structured_query":"current balance"}`}},
	}}
	c := newTestClassifier(t, fake)

	verdict, err := c.Classify(context.Background(), "What is my balance?", "")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Intent != contractx.IntentStructured {
		t.Fatalf("unexpected intent: %s", verdict.Intent)
	}
	if verdict.StructuredQuery != "current balance" {
		t.Fatalf("unexpected sub-query: %q", verdict.StructuredQuery)
	}
}

func TestClassifyAcceptsFencedJSON(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{calls: []fakeCall{
		{msg: &schema.Message{Content: "```json\n{\"intent\":\"knowledge\"}\n```"}},
	}}
	c := newTestClassifier(t, fake)

	verdict, err := c.Classify(context.Background(), "What loan products do you offer?", "")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Intent != contractx.IntentKnowledge {
		t.Fatalf("unexpected intent: %s", verdict.Intent)
	}
}

func TestClassifyUnknownLabelFoldsToHybrid(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{calls: []fakeCall{
		{msg: &schema.Message{Content: `{"intent":"smalltalk"}`}},
	}}
	c := newTestClassifier(t, fake)

	verdict, err := c.Classify(context.Background(), "hey there", "")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Intent != contractx.IntentHybrid {
		t.Fatalf("expected hybrid for unknown label, got %s", verdict.Intent)
	}
}

func TestClassifyOffSchemaFoldsToHybrid(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{calls: []fakeCall{
		{msg: &schema.Message{Content: "I think this is about the account balance."}},
	}}
	c := newTestClassifier(t, fake)

	verdict, err := c.Classify(context.Background(), "Can I get a loan based on my balance?", "")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Intent != contractx.IntentHybrid {
		t.Fatalf("expected hybrid for off-schema output, got %s", verdict.Intent)
	}
}

func TestClassifyRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{calls: []fakeCall{
		{err: errors.New("upstream 503")},
		{msg: &schema.Message{Content: `{"intent":"structured"}`}},
	}}
	c := newTestClassifier(t, fake)

	verdict, err := c.Classify(context.Background(), "show my last transfers", "")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Intent != contractx.IntentStructured {
		t.Fatalf("unexpected intent after retry: %s", verdict.Intent)
	}
	if fake.idx != 2 {
		t.Fatalf("expected 2 model calls, got %d", fake.idx)
	}
}

func TestClassifyTotalUnavailability(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{calls: []fakeCall{
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
	}}
	c := newTestClassifier(t, fake)

	_, err := c.Classify(context.Background(), "What is my balance?", "")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestClassifyEmptyQuery(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, &fakeChatModel{})
	_, err := c.Classify(context.Background(), "   ", "")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
