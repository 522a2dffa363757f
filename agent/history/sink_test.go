package history

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
)

func TestToRow(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.FixedZone("ICT", 7*3600))
	row, err := toRow(contractx.ChatTurn{
		ID:          "t-1",
		UserID:      "u-1",
		Query:       "What is my balance?",
		Response:    "Your balance is 50,000 THB.",
		Interaction: contractx.InteractionVoice,
		Timestamp:   at,
	})
	if err != nil {
		t.Fatalf("toRow() error = %v", err)
	}
	if row.Interaction != "voice" {
		t.Fatalf("interaction not preserved: %q", row.Interaction)
	}
	if row.CreatedAt.Location() != time.UTC {
		t.Fatalf("timestamp must be stored in UTC, got %v", row.CreatedAt.Location())
	}
	if !row.CreatedAt.Equal(at) {
		t.Fatalf("timestamp changed: %v != %v", row.CreatedAt, at)
	}
}

func TestToRowDefaultsInteraction(t *testing.T) {
	t.Parallel()

	row, err := toRow(contractx.ChatTurn{
		ID:        "t-1",
		UserID:    "u-1",
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("toRow() error = %v", err)
	}
	if row.Interaction != "text" {
		t.Fatalf("expected text default, got %q", row.Interaction)
	}
}

func TestToRowRejectsIncompleteTurn(t *testing.T) {
	t.Parallel()

	cases := []contractx.ChatTurn{
		{UserID: "u-1", Timestamp: time.Now()},
		{ID: "t-1", Timestamp: time.Now()},
		{ID: "t-1", UserID: "u-1"},
	}
	for _, turn := range cases {
		if _, err := toRow(turn); !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", turn, err)
		}
	}
}
