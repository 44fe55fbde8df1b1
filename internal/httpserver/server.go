// internal/httpserver/server.go
//
// HTTP server wiring for the Color Guess backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/palette".
//   - Game endpoints (optional auth): /game/new, /game/{id}, /game/guess,
//     /game/restart, /game/reset, DELETE /game/{id}, /game/{id}/ws.
//   - Auth endpoints (auth.go) and score endpoints (routes_scores.go).
//
// Notes:
//   - Sessions live in the store and own their timers; this layer only
//     translates requests into Session calls and errors into status codes.
//   - Every mutation checks that the caller owns the session (account id or
//     anonymous cookie).
//   - Finished runs are recorded best effort: failures are logged, never returned.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/colorguess/internal/accounts"
	"github.com/robalobadob/colorguess/internal/game"
	"github.com/robalobadob/colorguess/internal/palette"
	"github.com/robalobadob/colorguess/internal/scores"
	"github.com/robalobadob/colorguess/internal/store"
)

// Options carries the server's dependencies and settings.
type Options struct {
	Store    store.Store
	Scores   *scores.Store
	Accounts *accounts.Service
	Palette  palette.Palette

	Clock          clockwork.Clock // defaults to the real clock
	Rand           palette.Rand    // shared by all sessions; defaults to crypto/rand
	RevealDelay    time.Duration
	NextRoundDelay time.Duration

	CookieName   string
	ClientOrigin string
	Production   bool
}

// Server bundles router, session store, persistence and the live-update hub.
type Server struct {
	r    *chi.Mux
	opts Options
	hub  *Hub
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.CookieName == "" {
		opts.CookieName = "colorguess_token"
	}
	s := &Server{r: chi.NewRouter(), opts: opts, hub: NewHub()}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{opts.ClientOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler)
	s.r.Use(s.withOptionalAuth())

	// Live stream sits outside the timeout group: it outlives any request deadline.
	s.r.Get("/game/{id}/ws", s.handleStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"colorguess-go","endpoints":["/health","/palette","POST /game/new","POST /game/guess","POST /game/restart","POST /game/reset","/game/{id}/ws","/auth/*","/scores/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/palette", s.handlePalette)
		r.Get("/debug/sessions", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]int{"live": s.opts.Store.Len()})
		})

		// Game endpoints: optional auth, guests can play
		r.Post("/game/new", s.handleNewGame)
		r.Get("/game/{id}", s.handleGetGame)
		r.Delete("/game/{id}", s.handleEndGame)
		r.Post("/game/guess", s.handleGuess)
		r.Post("/game/restart", s.handleRestart)
		r.Post("/game/reset", s.handleReset)

		s.mountAuthRoutes(r)
		s.mountScoreRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.CloseAll()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Janitor returns an idle-session sweeper that records evicted runs.
func (s *Server) Janitor(ttl time.Duration) *store.Janitor {
	return &store.Janitor{
		Store:    s.opts.Store,
		Clock:    s.opts.Clock,
		TTL:      ttl,
		Interval: ttl / 4,
		OnEvict: func(ctx context.Context, st game.Stats) {
			s.hub.Close(st.GameID)
			s.record(ctx, st)
		},
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestLogger writes one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------ GAME ---------------------------------------

func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"name":   s.opts.Palette.Name,
		"colors": s.opts.Palette.Colors(),
	})
}

// handleNewGame creates a session owned by the caller and returns its first snapshot.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	sess := game.NewSession(uuid.NewString(), s.ownerFor(w, r), game.Config{
		Palette:        s.opts.Palette,
		RevealDelay:    s.opts.RevealDelay,
		NextRoundDelay: s.opts.NextRoundDelay,
		Clock:          s.opts.Clock,
		Rand:           s.opts.Rand,
		OnChange:       s.hub.Publish,
	})
	if err := s.opts.Store.Save(r.Context(), sess); err != nil {
		_, _ = sess.Close()
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("gameId", sess.ID).Msg("session started")
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadOwned(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

// gameReq is the body of every POST /game/* mutation.
type gameReq struct {
	GameID string `json:"gameId"`
	Color  string `json:"color"` // guess only
}

// guessRes is returned by POST /game/guess.
type guessRes struct {
	Correct bool          `json:"correct"`
	Game    game.Snapshot `json:"game"`
}

// handleGuess applies a pick to the caller's session.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	req, sess, ok := s.decodeOwned(w, r)
	if !ok {
		return
	}
	c, err := palette.Parse(req.Color)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_color")
		return
	}
	correct, err := sess.Guess(c)
	if err != nil {
		writeGameError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(guessRes{Correct: correct, Game: sess.Snapshot()})
}

// handleRestart draws a new round immediately, keeping the score.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.decodeOwned(w, r)
	if !ok {
		return
	}
	if err := sess.Restart(); err != nil {
		writeGameError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

// handleReset records the current run and starts a fresh one at score 0.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.decodeOwned(w, r)
	if !ok {
		return
	}
	st, err := sess.Reset()
	if err != nil {
		writeGameError(w, err)
		return
	}
	s.record(r.Context(), st)
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

// handleEndGame removes the session and records its final run.
func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.loadOwned(w, r, id); !ok {
		return
	}
	sess, err := s.opts.Store.Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	st, err := sess.Close()
	if err != nil {
		writeGameError(w, err)
		return
	}
	s.hub.Close(id)
	s.record(r.Context(), st)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "best": st.Best, "score": st.Score})
}

// decodeOwned parses a gameReq body and loads the caller's session.
func (s *Server) decodeOwned(w http.ResponseWriter, r *http.Request) (gameReq, *game.Session, bool) {
	var req gameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "bad_json")
		return req, nil, false
	}
	sess, ok := s.loadOwned(w, r, req.GameID)
	return req, sess, ok
}

// loadOwned fetches a session and checks the caller owns it.
func (s *Server) loadOwned(w http.ResponseWriter, r *http.Request, id string) (*game.Session, bool) {
	sess, err := s.opts.Store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if !s.owns(r, sess) {
		writeError(w, http.StatusForbidden, "forbidden")
		return nil, false
	}
	return sess, true
}

// record persists a finished run; errors are logged only.
func (s *Server) record(ctx context.Context, st game.Stats) {
	if s.opts.Scores == nil {
		return
	}
	if err := s.opts.Scores.Record(context.WithoutCancel(ctx), st); err != nil {
		log.Warn().Err(err).Str("gameId", st.GameID).Msg("record result")
	}
}

// ------------------------------- errors ------------------------------------

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// writeGameError maps session errors to status codes.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNotGuessing):
		writeError(w, http.StatusConflict, "not_guessing")
	case errors.Is(err, game.ErrUnknownColor):
		writeError(w, http.StatusBadRequest, "unknown_color")
	case errors.Is(err, game.ErrClosed):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		log.Error().Err(err).Msg("session call")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
