// Package history persists completed chat turns to Postgres. The engine
// treats the sink as fire-and-forget; reading history back is the
// caller's concern.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
)

type chatTurnRow struct {
	bun.BaseModel `bun:"table:chat_turns,alias:ct"`

	ID          string    `bun:"id,pk"`
	UserID      string    `bun:"customer_id,notnull"`
	Query       string    `bun:"query,notnull"`
	Response    string    `bun:"response,notnull"`
	Interaction string    `bun:"interaction,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

// PostgresSink appends turns to the chat_turns table.
type PostgresSink struct {
	db *bun.DB
}

func NewPostgresSink(db *bun.DB) (*PostgresSink, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database handle is required", contractx.ErrValidation)
	}
	return &PostgresSink{db: db}, nil
}

// Bootstrap creates the chat_turns table when it does not exist yet.
func (s *PostgresSink) Bootstrap(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*chatTurnRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create chat_turns table: %w", err)
	}
	return nil
}

func (s *PostgresSink) Append(ctx context.Context, turn contractx.ChatTurn) error {
	row, err := toRow(turn)
	if err != nil {
		return err
	}

	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert chat turn: %w", err)
	}
	return nil
}

func toRow(turn contractx.ChatTurn) (chatTurnRow, error) {
	if strings.TrimSpace(turn.ID) == "" {
		return chatTurnRow{}, fmt.Errorf("%w: turn id is empty", contractx.ErrValidation)
	}
	if strings.TrimSpace(turn.UserID) == "" {
		return chatTurnRow{}, fmt.Errorf("%w: turn user id is empty", contractx.ErrValidation)
	}
	if turn.Timestamp.IsZero() {
		return chatTurnRow{}, fmt.Errorf("%w: turn timestamp is zero", contractx.ErrValidation)
	}

	interaction := turn.Interaction
	if interaction == "" {
		interaction = contractx.InteractionText
	}

	return chatTurnRow{
		ID:          turn.ID,
		UserID:      turn.UserID,
		Query:       turn.Query,
		Response:    turn.Response,
		Interaction: string(interaction),
		CreatedAt:   turn.Timestamp.UTC(),
	}, nil
}
