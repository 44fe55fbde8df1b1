package scores

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/colorguess/assets"
	"github.com/robalobadob/colorguess/internal/database"
	"github.com/robalobadob/colorguess/internal/game"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db, assets.Migrations()); err != nil {
		t.Fatal(err)
	}
	return db
}

func addUser(t *testing.T, db *sql.DB, id, name string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, name, "x", time.Now().UTC().Format(time.RFC3339)); err != nil {
		t.Fatal(err)
	}
}

func run(owner string, best, wrong int, ended time.Time) game.Stats {
	return game.Stats{
		GameID: "g", Owner: owner, Score: best, Best: best,
		Rounds: best + 1, Correct: best, Wrong: wrong,
		StartedAt: ended.Add(-time.Minute), EndedAt: ended,
	}
}

func TestRecordAndLeaderboard(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	st := NewStore(db)
	addUser(t, db, "u1", "alice")

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, r := range []game.Stats{
		run(UserOwner("u1"), 5, 2, now),
		run(AnonOwner("a1"), 5, 1, now.Add(time.Second)),
		run(AnonOwner("a2"), 9, 4, now.Add(2*time.Second)),
		{GameID: "idle", Owner: AnonOwner("a3"), Rounds: 1, StartedAt: now, EndedAt: now},
	} {
		if err := st.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	top, err := st.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 3 {
		t.Fatalf("rows = %d, want 3 (unplayed run skipped)", len(top))
	}
	if top[0].Best != 9 || top[1].Wrong != 1 || top[2].Player != "alice" {
		t.Errorf("ordering wrong: %+v", top)
	}
	if top[0].Player != "guest" {
		t.Errorf("anon player = %q, want guest", top[0].Player)
	}

	var played, best int
	if err := db.QueryRow(`SELECT games_played, best_score FROM users WHERE id='u1'`).Scan(&played, &best); err != nil {
		t.Fatal(err)
	}
	if played != 1 || best != 5 {
		t.Errorf("user counters = %d/%d, want 1/5", played, best)
	}
}

func TestClaimAnonAndForUser(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	st := NewStore(db)
	addUser(t, db, "u2", "bob")

	now := time.Now().UTC()
	_ = st.Record(ctx, run(AnonOwner("guest-1"), 3, 0, now))
	_ = st.Record(ctx, run(AnonOwner("guest-2"), 4, 0, now))

	if err := st.ClaimAnon(ctx, "guest-1", "u2"); err != nil {
		t.Fatal(err)
	}
	mine, err := st.ForUser(ctx, "u2", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].Best != 3 || mine[0].Player != "bob" {
		t.Errorf("ForUser = %+v", mine)
	}
}

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{0: defaultLimit, -3: defaultLimit, 5: 5, 1000: maxLimit} {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
