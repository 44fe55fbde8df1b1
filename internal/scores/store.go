// internal/scores/store.go
//
// Persistence for finished runs.
// A run ends when the player resets, deletes the session, or the session is
// evicted for inactivity. Each run becomes one row in `results`; users also
// carry aggregate counters (games_played, best_score).
//
// Owners are stored as "user:<id>" or "anon:<id>" on the session and split
// into user_id / anonymous_id columns here.

package scores

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/colorguess/internal/game"
)

const (
	userPrefix = "user:"
	anonPrefix = "anon:"

	defaultLimit = 20
	maxLimit     = 100
)

// UserOwner / AnonOwner build session owner strings.
func UserOwner(id string) string { return userPrefix + id }
func AnonOwner(id string) string { return anonPrefix + id }

// splitOwner returns (userID, anonID); at most one is non-empty.
func splitOwner(owner string) (string, string) {
	switch {
	case strings.HasPrefix(owner, userPrefix):
		return strings.TrimPrefix(owner, userPrefix), ""
	case strings.HasPrefix(owner, anonPrefix):
		return "", strings.TrimPrefix(owner, anonPrefix)
	}
	return "", ""
}

// Entry is one leaderboard or history row.
type Entry struct {
	Player  string `json:"player"`
	Best    int    `json:"best"`
	Final   int    `json:"final"`
	Rounds  int    `json:"rounds"`
	Correct int    `json:"correct"`
	Wrong   int    `json:"wrong"`
	EndedAt string `json:"endedAt"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts a finished run. Runs without a single guess are skipped.
// For account owners the users row is updated in the same transaction.
func (s *Store) Record(ctx context.Context, st game.Stats) error {
	if !st.Played() {
		return nil
	}
	userID, anonID := splitOwner(st.Owner)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO results
            (id, game_id, user_id, anonymous_id, best, final_score, rounds, correct, wrong, started_at, ended_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), st.GameID, nullable(userID), nullable(anonID),
		st.Best, st.Score, st.Rounds, st.Correct, st.Wrong,
		st.StartedAt.UTC().Format(time.RFC3339), st.EndedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}

	if userID != "" {
		if _, err := tx.ExecContext(ctx, `
            UPDATE users SET games_played = games_played + 1,
                             best_score = MAX(best_score, ?)
            WHERE id=?`, st.Best, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Leaderboard returns the best runs overall.
// Ordered by best DESC, then fewer wrong picks, then earliest finish.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	return s.query(ctx, `
        SELECT COALESCE(u.username, 'guest'), r.best, r.final_score, r.rounds, r.correct, r.wrong, r.ended_at
        FROM results r LEFT JOIN users u ON u.id = r.user_id
        ORDER BY r.best DESC, r.wrong ASC, r.ended_at ASC
        LIMIT ?`, clampLimit(limit))
}

// ForUser returns a user's most recent runs.
func (s *Store) ForUser(ctx context.Context, userID string, limit int) ([]Entry, error) {
	return s.query(ctx, `
        SELECT u.username, r.best, r.final_score, r.rounds, r.correct, r.wrong, r.ended_at
        FROM results r JOIN users u ON u.id = r.user_id
        WHERE r.user_id=?
        ORDER BY r.ended_at DESC
        LIMIT ?`, userID, clampLimit(limit))
}

// ClaimAnon transfers a guest's runs to an account after signup/login.
func (s *Store) ClaimAnon(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE results SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID)
	return err
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Player, &e.Best, &e.Final, &e.Rounds, &e.Correct, &e.Wrong, &e.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func clampLimit(n int) int {
	if n <= 0 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
