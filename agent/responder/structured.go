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
	"github.com/uptrace/bun"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	llmx "github.com/tawanchai/bankdesk/agent/llm"
)

// Account is one row of the customer's account ledger.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID       string  `bun:"id,pk" json:"id"`
	UserID   string  `bun:"customer_id" json:"-"`
	Type     string  `bun:"type" json:"type"`
	Currency string  `bun:"currency" json:"currency"`
	Balance  float64 `bun:"balance" json:"balance"`
}

// Transaction is one ledger movement on a customer account.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID          string    `bun:"id,pk" json:"id"`
	AccountID   string    `bun:"account_id" json:"account_id"`
	Amount      float64   `bun:"amount" json:"amount"`
	Direction   string    `bun:"direction" json:"direction"`
	Description string    `bun:"description" json:"description"`
	At          time.Time `bun:"occurred_at" json:"occurred_at"`
}

// Ledger reads the customer's account snapshot. The structured responder
// never writes; every read is scoped to a single customer.
type Ledger interface {
	AccountsFor(ctx context.Context, userID string) ([]Account, error)
	RecentTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error)
}

// BunLedger is the Postgres-backed ledger.
type BunLedger struct {
	db *bun.DB
}

func NewBunLedger(db *bun.DB) *BunLedger {
	return &BunLedger{db: db}
}

func (l *BunLedger) AccountsFor(ctx context.Context, userID string) ([]Account, error) {
	var accounts []Account
	err := l.db.NewSelect().
		Model(&accounts).
		Where("customer_id = ?", userID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	return accounts, nil
}

func (l *BunLedger) RecentTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	var txs []Transaction
	err := l.db.NewSelect().
		Model(&txs).
		Join("JOIN accounts AS a ON a.id = t.account_id").
		Where("a.customer_id = ?", userID).
		OrderExpr("t.occurred_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return txs, nil
}

type structuredResponder struct {
	runner  compose.Runnable[map[string]any, *schema.Message]
	ledger  Ledger
	timeout time.Duration
	txLimit int
}

// NewStructured builds the transactional responder: it snapshots the
// customer's ledger and asks the model to answer strictly from that
// snapshot.
func NewStructured(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	ledger Ledger,
	opts ...Option,
) (contractx.Responder, error) {
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger is required", contractx.ErrValidation)
	}
	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "responder.structured_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile structured graph: %v", contractx.ErrModelInvoke, err)
	}

	o := applyOptions(opts)
	return &structuredResponder{
		runner:  runner,
		ledger:  ledger,
		timeout: o.timeout,
		txLimit: o.txLimit,
	}, nil
}

func (r *structuredResponder) Role() contractx.ResponderRole {
	return contractx.RoleStructured
}

func (r *structuredResponder) Invoke(ctx context.Context, req contractx.ResponderRequest) (contractx.ResponderResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return contractx.ResponderResult{}, fmt.Errorf("%w: prompt is empty", contractx.ErrValidation)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return contractx.ResponderResult{}, fmt.Errorf("%w: user id is empty", contractx.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	accounts, err := r.ledger.AccountsFor(ctx, req.UserID)
	if err != nil {
		return contractx.ResponderResult{}, wrapInvokeErr(fmt.Errorf("ledger accounts: %w", err))
	}
	txs, err := r.ledger.RecentTransactions(ctx, req.UserID, r.txLimit)
	if err != nil {
		return contractx.ResponderResult{}, wrapInvokeErr(fmt.Errorf("ledger transactions: %w", err))
	}

	payload := map[string]any{
		"query":        prompt,
		"memory":       req.Memory,
		"accounts":     accounts,
		"transactions": txs,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.ResponderResult{}, fmt.Errorf("%w: marshal ledger snapshot: %v", contractx.ErrValidation, err)
	}

	msg, err := r.runner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return contractx.ResponderResult{}, wrapInvokeErr(fmt.Errorf("structured model call: %w", err))
	}

	text := ""
	if msg != nil {
		text = strings.TrimSpace(msg.Content)
	}
	if text == "" {
		return contractx.ResponderResult{}, fmt.Errorf("%w: structured responder returned empty answer", contractx.ErrResponderUnavailable)
	}

	return contractx.ResponderResult{
		Role:   contractx.RoleStructured,
		Text:   text,
		Status: contractx.ResultOK,
	}, nil
}
