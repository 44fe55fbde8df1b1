// internal/httpserver/routes_scores.go
//
// HTTP routes for persisted results.
//   - GET /scores/top  → best runs overall (?limit=, default 20, max 100)
//   - GET /scores/mine → the caller's recent runs (requires auth)

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/colorguess/internal/scores"
)

// scoresRes wraps score listings.
type scoresRes struct {
	Top []scores.Entry `json:"top"`
}

func (s *Server) mountScoreRoutes(r chi.Router) {
	r.Route("/scores", func(r chi.Router) {
		r.Get("/top", s.handleTopScores)
		r.With(s.requireAuth).Get("/mine", s.handleMyScores)
	})
}

func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	if s.opts.Scores == nil {
		_ = json.NewEncoder(w).Encode(scoresRes{Top: []scores.Entry{}})
		return
	}
	rows, err := s.opts.Scores.Leaderboard(r.Context(), limitParam(r))
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	_ = json.NewEncoder(w).Encode(scoresRes{Top: rows})
}

func (s *Server) handleMyScores(w http.ResponseWriter, r *http.Request) {
	if s.opts.Scores == nil {
		_ = json.NewEncoder(w).Encode(scoresRes{Top: []scores.Entry{}})
		return
	}
	rows, err := s.opts.Scores.ForUser(r.Context(), userFrom(r).ID, limitParam(r))
	if err != nil {
		log.Error().Err(err).Msg("user scores")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	_ = json.NewEncoder(w).Encode(scoresRes{Top: rows})
}

// limitParam reads ?limit=; invalid values fall back to the store default.
func limitParam(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}
