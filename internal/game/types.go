// internal/game/types.go
//
// Core type definitions for the round controller.
// Defines:
//   - Phase:    where a session sits in the reveal → guess → result cycle.
//   - Outcome:  result tag of the latest guess (correct/incorrect).
//   - Round:    one reveal-then-guess cycle.
//   - Snapshot: the client-facing view of a session.
//   - Stats:    per-run counters handed to persistence.

package game

import (
	"errors"
	"time"

	"github.com/robalobadob/colorguess/internal/palette"
)

// Phase is the state of a session's current round.
type Phase string

const (
	PhaseRevealing Phase = "revealing" // target shown, guesses rejected
	PhaseGuessing  Phase = "guessing"  // options shown, guesses accepted
	PhaseResolved  Phase = "resolved"  // correct guess made, next round pending
)

// Outcome tags the status line of a session.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// Message returns the status line shown for an outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeCorrect:
		return "Correct! +1 point"
	case OutcomeIncorrect:
		return "Wrong! -1 point"
	}
	return ""
}

const (
	DefaultRevealDelay    = 1000 * time.Millisecond
	DefaultNextRoundDelay = 1500 * time.Millisecond
)

var (
	ErrNotGuessing  = errors.New("not accepting guesses")
	ErrUnknownColor = errors.New("color is not an option")
	ErrClosed       = errors.New("session closed")
)

// Round holds one target and the options it is hidden among.
// Options is always a permutation of the palette, so Target is among them.
type Round struct {
	Number   int
	Target   palette.Color
	Options  []palette.Color
	Revealed bool
}

// Snapshot is the public view of a session.
// Target is only set while revealing; Options only once the reveal ends.
type Snapshot struct {
	GameID  string          `json:"gameId"`
	Phase   Phase           `json:"phase"`
	Round   int             `json:"round"`
	Target  palette.Color   `json:"target,omitempty"`
	Options []palette.Color `json:"options,omitempty"`
	Status  Outcome         `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Score   int             `json:"score"`
	Best    int             `json:"best"`
}

// Stats summarizes one run (from session start or the last reset).
type Stats struct {
	GameID    string
	Owner     string
	Score     int
	Best      int
	Rounds    int
	Correct   int
	Wrong     int
	StartedAt time.Time
	EndedAt   time.Time
}

// Played reports whether the run saw any guess at all.
func (s Stats) Played() bool { return s.Correct+s.Wrong > 0 }
