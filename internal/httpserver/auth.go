package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/colorguess/internal/accounts"
	"github.com/robalobadob/colorguess/internal/game"
	"github.com/robalobadob/colorguess/internal/scores"
)

const anonCookieName = "colorguess_anon"

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

func userFrom(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

// credentials is the body of signup and login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers /auth/*.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.With(s.requireAuth).Get("/auth/me", s.handleMe)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if s.opts.Accounts == nil {
		writeError(w, http.StatusNotImplemented, "accounts_disabled")
		return
	}
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.opts.Accounts.Create(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "username_taken")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	s.claimAnon(r, u.ID)
	_ = json.NewEncoder(w).Encode(authUser{ID: u.ID, Username: u.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.opts.Accounts == nil {
		writeError(w, http.StatusNotImplemented, "accounts_disabled")
		return
	}
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.opts.Accounts.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		log.Error().Err(err).Msg("login")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	s.claimAnon(r, u.ID)
	_ = json.NewEncoder(w).Encode(authUser{ID: u.ID, Username: u.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, s.opts.CookieName, "", time.Time{}, -1)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.opts.Accounts.FindByID(r.Context(), userFrom(r).ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	_ = json.NewEncoder(w).Encode(u)
}

// issueToken signs a JWT for u and sets it as the auth cookie.
func (s *Server) issueToken(w http.ResponseWriter, u *accounts.User) bool {
	tok, exp, err := s.opts.Accounts.SignToken(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.setCookie(w, s.opts.CookieName, tok, exp, 0)
	return true
}

// claimAnon attaches the caller's guest runs to an account.
func (s *Server) claimAnon(r *http.Request, userID string) {
	if s.opts.Scores == nil {
		return
	}
	c, err := r.Cookie(anonCookieName)
	if err != nil || c.Value == "" {
		return
	}
	if err := s.opts.Scores.ClaimAnon(r.Context(), c.Value, userID); err != nil {
		log.Warn().Err(err).Msg("claim anon results")
	}
}

// --------------------------- auth middleware -------------------------------

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.opts.Accounts != nil {
				if tok := s.bearerOrCookie(r); tok != "" {
					if c, err := s.opts.Accounts.ParseToken(tok); err == nil {
						ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: c.ID, Username: c.Username})
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth rejects requests without a valid token for an existing user.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		me := userFrom(r)
		if me == nil || s.opts.Accounts == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := s.opts.Accounts.FindByID(r.Context(), me.ID); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ------------------------------ ownership ----------------------------------

// ownerFor returns the owner string for a new session: the account if
// logged in, otherwise the (possibly freshly issued) anonymous cookie.
func (s *Server) ownerFor(w http.ResponseWriter, r *http.Request) string {
	if me := userFrom(r); me != nil {
		return scores.UserOwner(me.ID)
	}
	return scores.AnonOwner(s.ensureAnonID(w, r))
}

// owns reports whether the caller may act on sess.
func (s *Server) owns(r *http.Request, sess *game.Session) bool {
	if me := userFrom(r); me != nil && sess.Owner == scores.UserOwner(me.ID) {
		return true
	}
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return sess.Owner == scores.AnonOwner(c.Value)
	}
	return false
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	s.setCookie(w, anonCookieName, id, time.Now().Add(180*24*time.Hour), 0)
	return id
}

// setCookie writes an HttpOnly cookie; maxAge < 0 deletes it.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, exp time.Time, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if s.opts.Production {
		sameSite = http.SameSiteNoneMode // required for third‑party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Production,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	})
}
