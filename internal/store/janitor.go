package store

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/colorguess/internal/game"
)

// Janitor evicts idle sessions on a fixed interval.
type Janitor struct {
	Store    Store
	Clock    clockwork.Clock
	TTL      time.Duration
	Interval time.Duration

	// OnEvict receives each evicted session's final stats after Close.
	OnEvict func(ctx context.Context, st game.Stats)
}

// Run blocks until ctx is canceled.
func (j *Janitor) Run(ctx context.Context) {
	clk := j.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	interval := j.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	t := clk.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.Chan():
			j.sweep(ctx, now)
		}
	}
}

// sweep closes every session idle longer than TTL as of now.
func (j *Janitor) sweep(ctx context.Context, now time.Time) int {
	evicted := j.Store.Sweep(ctx, now.Add(-j.TTL))
	for _, s := range evicted {
		st, err := s.Close()
		if err != nil {
			continue
		}
		if j.OnEvict != nil {
			j.OnEvict(ctx, st)
		}
	}
	if len(evicted) > 0 {
		log.Info().Int("evicted", len(evicted)).Int("live", j.Store.Len()).Msg("swept idle sessions")
	}
	return len(evicted)
}
