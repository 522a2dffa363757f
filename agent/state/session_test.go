package state

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewSessionRejectsBadInput(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	if _, err := NewSession("   ", TrackKnowledge, 4, now); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
	if _, err := NewSession("u1", Track("billing"), 4, now); !errors.Is(err, ErrInvalidTrack) {
		t.Fatalf("expected ErrInvalidTrack, got %v", err)
	}
}

func TestSessionAppendAssignsStrictlyIncreasingTimestamps(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	s, err := NewSession("u1", TrackStructured, 8, now)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	first := s.Append("what is my balance?", "balance is 420.50", now)
	second := s.Append("and last week?", "five transactions", now)
	if !second.After(first) {
		t.Fatalf("expected second turn after first: %v vs %v", second, first)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestSessionAppendTrimsToWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	s, err := NewSession("u1", TrackSynthesis, 2, now)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	s.Append("q1", "r1", now)
	s.Append("q2", "r2", now.Add(time.Second))
	s.Append("q3", "r3", now.Add(2*time.Second))

	if len(s.Turns) != 2 {
		t.Fatalf("expected 2 retained turns, got %d", len(s.Turns))
	}
	if s.Turns[0].Prompt != "q2" || s.Turns[1].Prompt != "q3" {
		t.Fatalf("window kept wrong turns: %#v", s.Turns)
	}
}

func TestSessionMemoryRendersWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	s, err := NewSession("u1", TrackKnowledge, 4, now)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	if s.Memory() != "" {
		t.Fatalf("expected empty memory for fresh session, got %q", s.Memory())
	}

	s.Append("any savings products?", "we offer a fixed deposit at 4.1%", now)
	mem := s.Memory()
	if !strings.Contains(mem, "any savings products?") {
		t.Fatalf("memory missing prompt: %q", mem)
	}
	if !strings.Contains(mem, "fixed deposit at 4.1%") {
		t.Fatalf("memory missing result: %q", mem)
	}
	if strings.Index(mem, "User:") > strings.Index(mem, "Assistant:") {
		t.Fatalf("memory not in prompt/result order: %q", mem)
	}
}

func TestSessionCloneIsIndependent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	s, err := NewSession("u1", TrackClassification, 4, now)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	s.Append("q1", "r1", now)

	clone := s.Clone()
	s.Append("q2", "r2", now.Add(time.Second))

	if len(clone.Turns) != 1 {
		t.Fatalf("clone mutated by original append: %d turns", len(clone.Turns))
	}
}
