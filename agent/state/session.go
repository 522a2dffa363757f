package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Track is one of the four independent conversational-memory lanes kept
// per user. Memory rendered from one track never leaks into another.
type Track string

const (
	TrackClassification Track = "classification"
	TrackStructured     Track = "structured"
	TrackKnowledge      Track = "knowledge"
	TrackSynthesis      Track = "synthesis"
)

// Tracks lists every lane, in the order sessions are warmed for a user.
var Tracks = []Track{TrackClassification, TrackStructured, TrackKnowledge, TrackSynthesis}

func (t Track) Valid() bool {
	switch t {
	case TrackClassification, TrackStructured, TrackKnowledge, TrackSynthesis:
		return true
	}
	return false
}

var (
	ErrInvalidUser    = errors.New("user id is empty")
	ErrInvalidTrack   = errors.New("unknown session track")
	ErrTurnOrder      = errors.New("session turns out of order")
	ErrSessionMissing = errors.New("session not found")
)

// Turn is a completed prompt/result pair. Turns are append-only and
// strictly timestamp-ordered within a session.
type Turn struct {
	Prompt string    `json:"prompt"`
	Result string    `json:"result"`
	At     time.Time `json:"at"`
}

// Session is the conversational memory for one (user, track) pair.
type Session struct {
	UserID    string    `json:"user_id"`
	Track     Track     `json:"track"`
	Turns     []Turn    `json:"turns,omitempty"`
	MaxTurns  int       `json:"max_turns"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(userID string, track Track, maxTurns int, now time.Time) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	if !track.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTrack, track)
	}
	if maxTurns <= 0 {
		maxTurns = defaultWindowTurns
	}
	return &Session{
		UserID:    userID,
		Track:     track,
		MaxTurns:  maxTurns,
		UpdatedAt: now.UTC(),
	}, nil
}

// Append records a completed exchange and returns the timestamp assigned
// to it. Timestamps are forced strictly after the previous turn so that
// per-track ordering survives clock ties under concurrency.
func (s *Session) Append(prompt, result string, now time.Time) time.Time {
	at := now.UTC()
	if n := len(s.Turns); n > 0 && !at.After(s.Turns[n-1].At) {
		at = s.Turns[n-1].At.Add(time.Nanosecond)
	}

	s.Turns = append(s.Turns, Turn{Prompt: prompt, Result: result, At: at})
	if len(s.Turns) > s.MaxTurns {
		s.Turns = s.Turns[len(s.Turns)-s.MaxTurns:]
	}
	s.UpdatedAt = at
	return at
}

// Memory renders the retained window as context for a responder or the
// classifier: oldest first, prompt/result pairs.
func (s *Session) Memory() string {
	if len(s.Turns) == 0 {
		return ""
	}

	var b strings.Builder
	for _, turn := range s.Turns {
		b.WriteString("User: ")
		b.WriteString(turn.Prompt)
		b.WriteString("\nAssistant: ")
		b.WriteString(turn.Result)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func (s *Session) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return ErrInvalidUser
	}
	if !s.Track.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTrack, s.Track)
	}
	for i := 1; i < len(s.Turns); i++ {
		if !s.Turns[i].At.After(s.Turns[i-1].At) {
			return fmt.Errorf("%w: turn %d not after turn %d", ErrTurnOrder, i, i-1)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can inspect a session without
// holding the store's per-key lock.
func (s *Session) Clone() *Session {
	out := *s
	out.Turns = append([]Turn(nil), s.Turns...)
	return &out
}
