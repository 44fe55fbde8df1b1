// internal/game/session.go
//
// Round controller for a single player session.
// Responsibilities:
//   - Draw rounds: target = first color of a fresh shuffle, options = an
//     independent reshuffle of that draw.
//   - Drive timer transitions: revealing → guessing after RevealDelay,
//     resolved → next round after NextRoundDelay.
//   - Apply guesses: +1 on the target, -1 (floored at 0) otherwise.
//   - Restart (keep score) and Reset (new run, score zeroed).
//
// Timers:
//   - A session owns at most one pending timer. Every schedule or cancel
//     bumps an epoch; a callback whose epoch is stale returns without
//     touching state, so a timer that already fired but lost the race for
//     the lock cannot mutate a round that has been replaced.
//   - All state is guarded by mu; HTTP handlers and timer callbacks
//     serialize on it.

package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/colorguess/internal/palette"
)

// Config wires a session to its palette, delays, clock and randomness.
// Zero delays fall back to the package defaults.
type Config struct {
	Palette        palette.Palette
	RevealDelay    time.Duration
	NextRoundDelay time.Duration
	Clock          clockwork.Clock
	Rand           palette.Rand

	// OnChange receives a snapshot after every transition, timer driven or
	// not. It runs with the session locked: it must not block and must not
	// call back into the session.
	OnChange func(Snapshot)
}

// Session is one player's game: a score carried across rounds.
type Session struct {
	ID    string
	Owner string

	cfg Config

	mu      sync.Mutex
	phase   Phase
	round   Round
	status  Outcome
	score   int
	best    int
	rounds  int
	correct int
	wrong   int
	closed  bool

	pending clockwork.Timer
	epoch   uint64

	startedAt  time.Time
	lastActive time.Time
}

// NewSession creates a session and starts its first round.
func NewSession(id, owner string, cfg Config) *Session {
	if cfg.RevealDelay <= 0 {
		cfg.RevealDelay = DefaultRevealDelay
	}
	if cfg.NextRoundDelay <= 0 {
		cfg.NextRoundDelay = DefaultNextRoundDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Rand == nil {
		cfg.Rand = palette.CryptoRand{}
	}
	s := &Session{ID: id, Owner: owner, cfg: cfg}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := cfg.Clock.Now()
	s.startedAt, s.lastActive = now, now
	s.newRoundLocked()
	return s
}

// Guess applies a pick. It reports whether the pick hit the target.
//
// Errors (state unchanged):
//   - ErrClosed:       session closed.
//   - ErrNotGuessing:  still revealing, or a correct pick is already resolving.
//   - ErrUnknownColor: c is not one of the round's options.
func (s *Session) Guess(c palette.Color) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	s.lastActive = s.cfg.Clock.Now()
	if s.phase != PhaseGuessing {
		return false, ErrNotGuessing
	}
	if !s.cfg.Palette.Contains(c) {
		return false, ErrUnknownColor
	}

	if c == s.round.Target {
		s.status = OutcomeCorrect
		s.score++
		s.correct++
		if s.score > s.best {
			s.best = s.score
		}
		s.phase = PhaseResolved
		s.scheduleLocked(s.cfg.NextRoundDelay, s.newRoundLocked)
	} else {
		s.status = OutcomeIncorrect
		s.wrong++
		if s.score > 0 {
			s.score--
		}
	}
	log.Debug().Str("gameId", s.ID).Int("round", s.round.Number).
		Str("status", string(s.status)).Int("score", s.score).Msg("guess")
	s.notifyLocked()
	return s.status == OutcomeCorrect, nil
}

// Restart abandons the current round and draws a new one immediately.
// Score is kept; any pending transition is canceled.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.lastActive = s.cfg.Clock.Now()
	s.newRoundLocked()
	return nil
}

// Reset ends the current run and starts a new one at score 0.
// It returns the stats of the run that just ended.
func (s *Session) Reset() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Stats{}, ErrClosed
	}
	now := s.cfg.Clock.Now()
	st := s.statsLocked(now)

	s.score, s.best, s.rounds, s.correct, s.wrong = 0, 0, 0, 0, 0
	s.startedAt, s.lastActive = now, now
	s.newRoundLocked()
	return st, nil
}

// Close cancels pending timers and ends the session.
// The first call returns the final run's stats; later calls return ErrClosed.
func (s *Session) Close() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Stats{}, ErrClosed
	}
	s.cancelLocked()
	s.closed = true
	return s.statsLocked(s.cfg.Clock.Now()), nil
}

// Snapshot returns the current public view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Stats returns the counters of the run in progress.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked(s.cfg.Clock.Now())
}

// LastActive is the time of the last player action.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// ---------------------------------------------------------------------------

// newRoundLocked replaces the round wholesale and enters the reveal phase.
func (s *Session) newRoundLocked() {
	s.cancelLocked()

	draw := palette.Shuffle(s.cfg.Palette.Colors(), s.cfg.Rand)
	s.round = Round{
		Number:   s.round.Number + 1,
		Target:   draw[0],
		Options:  palette.Shuffle(draw, s.cfg.Rand),
		Revealed: true,
	}
	s.rounds++
	s.status = OutcomeNone
	s.phase = PhaseRevealing
	s.scheduleLocked(s.cfg.RevealDelay, s.endRevealLocked)

	log.Debug().Str("gameId", s.ID).Int("round", s.round.Number).Msg("new round")
	s.notifyLocked()
}

// endRevealLocked hides the target and opens the round for guesses.
func (s *Session) endRevealLocked() {
	s.round.Revealed = false
	s.phase = PhaseGuessing
	s.notifyLocked()
}

// scheduleLocked replaces the pending timer with one that runs fn after d.
func (s *Session) scheduleLocked(d time.Duration, fn func()) {
	s.cancelLocked()
	epoch := s.epoch
	s.pending = s.cfg.Clock.AfterFunc(d, func() { s.fire(epoch, fn) })
}

// cancelLocked stops the pending timer and invalidates any callback that
// has already fired but not yet acquired the lock.
func (s *Session) cancelLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.epoch++
}

// fire is the timer callback body.
func (s *Session) fire(epoch uint64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || epoch != s.epoch {
		return
	}
	s.pending = nil
	fn()
}

func (s *Session) notifyLocked() {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(s.snapshotLocked())
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		GameID:  s.ID,
		Phase:   s.phase,
		Round:   s.round.Number,
		Status:  s.status,
		Message: s.status.Message(),
		Score:   s.score,
		Best:    s.best,
	}
	if s.round.Revealed {
		snap.Target = s.round.Target
	} else {
		snap.Options = append([]palette.Color(nil), s.round.Options...)
	}
	return snap
}

func (s *Session) statsLocked(now time.Time) Stats {
	return Stats{
		GameID:    s.ID,
		Owner:     s.Owner,
		Score:     s.score,
		Best:      s.best,
		Rounds:    s.rounds,
		Correct:   s.correct,
		Wrong:     s.wrong,
		StartedAt: s.startedAt,
		EndedAt:   now,
	}
}
