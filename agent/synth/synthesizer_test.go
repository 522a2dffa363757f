package synth

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
)

type fakeChatModel struct {
	reply    string
	err      error
	lastUser string
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if len(input) > 0 {
		f.lastUser = input[len(input)-1].Content
	}
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Content: f.reply}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func newTestSynthesizer(t *testing.T, fake *fakeChatModel) contractx.Synthesizer {
	t.Helper()
	s, err := New(context.Background(), fake, "synthesizer prompt")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestSynthesizeMergesBothSections(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{reply: "Based on your 50,000 THB balance you qualify for our personal loan at 8% p.a."}
	s := newTestSynthesizer(t, fake)

	answer, err := s.Synthesize(context.Background(), "Can I get a loan based on my balance?",
		[]contractx.ResponderResult{
			{Role: contractx.RoleStructured, Text: "Balance is 50,000 THB.", Status: contractx.ResultOK},
			{Role: contractx.RoleKnowledge, Text: "Personal loans start at 8% p.a.", Status: contractx.ResultOK},
		}, "")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !strings.Contains(answer, "50,000") {
		t.Fatalf("merged answer lost the figure: %q", answer)
	}
	if !strings.Contains(fake.lastUser, `"mode":"merge"`) {
		t.Fatalf("two sections must request merge mode: %q", fake.lastUser)
	}
	if !strings.Contains(fake.lastUser, "50,000 THB") || !strings.Contains(fake.lastUser, "8% p.a.") {
		t.Fatalf("both sections must reach the model: %q", fake.lastUser)
	}
}

func TestSynthesizeDropsFailedResults(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{reply: "Personal loans start at 8% p.a."}
	s := newTestSynthesizer(t, fake)

	answer, err := s.Synthesize(context.Background(), "loan rates?",
		[]contractx.ResponderResult{
			{Role: contractx.RoleStructured, Status: contractx.ResultTimeout, Detail: "context deadline exceeded"},
			{Role: contractx.RoleKnowledge, Text: "Personal loans start at 8% p.a.", Status: contractx.ResultOK},
		}, "")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if answer == "" {
		t.Fatal("expected an answer from the surviving result")
	}
	if strings.Contains(fake.lastUser, "deadline") {
		t.Fatalf("failure detail leaked into the model payload: %q", fake.lastUser)
	}
	if !strings.Contains(fake.lastUser, `"mode":"rewrite"`) {
		t.Fatalf("single section must request rewrite mode: %q", fake.lastUser)
	}
}

func TestSynthesizeNoUsableResults(t *testing.T) {
	t.Parallel()

	s := newTestSynthesizer(t, &fakeChatModel{reply: "unused"})

	_, err := s.Synthesize(context.Background(), "anything",
		[]contractx.ResponderResult{
			{Role: contractx.RoleStructured, Status: contractx.ResultTimeout},
			{Role: contractx.RoleKnowledge, Status: contractx.ResultUnavailable},
		}, "")
	if !errors.Is(err, contractx.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestSynthesizeModelFailure(t *testing.T) {
	t.Parallel()

	s := newTestSynthesizer(t, &fakeChatModel{err: errors.New("upstream 500")})

	_, err := s.Synthesize(context.Background(), "balance?",
		[]contractx.ResponderResult{
			{Role: contractx.RoleStructured, Text: "Balance is 10 THB.", Status: contractx.ResultOK},
		}, "")
	if !errors.Is(err, contractx.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}
