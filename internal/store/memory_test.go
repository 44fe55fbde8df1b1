package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/robalobadob/colorguess/internal/game"
	"github.com/robalobadob/colorguess/internal/palette"
)

func newSession(id string, clk clockwork.Clock) *game.Session {
	return game.NewSession(id, "", game.Config{Palette: palette.Default(), Clock: clk})
}

func TestMemorySaveGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := newSession("a", clockwork.NewFakeClock())

	if err := m.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(ctx, "a")
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v", err)
	}
	if _, err := m.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d", m.Len())
	}
}

func TestJanitorEvictsIdle(t *testing.T) {
	ctx := context.Background()
	clk := clockwork.NewFakeClock()
	m := NewMemoryStore()

	old := newSession("old", clk)
	_ = m.Save(ctx, old)
	clk.Advance(10 * time.Minute)
	fresh := newSession("fresh", clk)
	_ = m.Save(ctx, fresh)

	var evicted []string
	j := &Janitor{
		Store: m,
		Clock: clk,
		TTL:   5 * time.Minute,
		OnEvict: func(_ context.Context, st game.Stats) {
			evicted = append(evicted, st.GameID)
		},
	}
	if n := j.sweep(ctx, clk.Now()); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if len(evicted) != 1 || evicted[0] != "old" {
		t.Errorf("evicted = %v", evicted)
	}
	if _, err := m.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh session evicted: %v", err)
	}
	if err := old.Restart(); !errors.Is(err, game.ErrClosed) {
		t.Errorf("evicted session not closed: %v", err)
	}
}

func TestJanitorRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clk := clockwork.NewFakeClock()
	j := &Janitor{Store: NewMemoryStore(), Clock: clk, TTL: time.Minute, Interval: time.Second}

	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()
	if err := clk.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
