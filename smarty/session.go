package smarty

import (
	"time"

	"github.com/google/uuid"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingCommand
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingCommand:
		return "awaiting-command"
	}
	return "unknown"
}

// SessionState is the only mutable interaction state. It belongs to exactly
// one Assistant and is changed only from its dispatch loop.
type SessionState struct {
	ID         string
	Phase      Phase
	LastWakeAt time.Time
}

func NewSession() SessionState {
	return SessionState{ID: uuid.NewString(), Phase: PhaseIdle}
}

func (s *SessionState) arm(at time.Time) {
	s.Phase = PhaseAwaitingCommand
	s.LastWakeAt = at
}

func (s *SessionState) reset() {
	s.Phase = PhaseIdle
	s.LastWakeAt = time.Time{}
}

// open reports whether a command arriving at t still falls inside the
// window opened by the last wake phrase.
func (s *SessionState) open(t time.Time, window time.Duration) bool {
	return s.Phase == PhaseAwaitingCommand && t.Sub(s.LastWakeAt) < window
}

// Utterance is one finalized piece of transcribed speech.
type Utterance struct {
	Text string
	At   time.Time
}
