package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/colorguess/internal/game"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsSendBuffer   = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the session ownership cookie check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans session snapshots out to WebSocket subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the update
// and catches up on the next one (snapshots are full state, not deltas).
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan game.Snapshot]struct{} // keyed by game ID
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan game.Snapshot]struct{})}
}

// Publish delivers snap to every subscriber of its game.
func (h *Hub) Publish(snap game.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[snap.GameID] {
		select {
		case ch <- snap:
		default:
			log.Warn().Str("gameId", snap.GameID).Msg("subscriber buffer full, dropping snapshot")
		}
	}
}

func (h *Hub) subscribe(id string) chan game.Snapshot {
	ch := make(chan game.Snapshot, wsSendBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[chan game.Snapshot]struct{})
	}
	h.subs[id][ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(id string, ch chan game.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[id]; ok {
		if _, ok := set[ch]; ok {
			delete(set, ch)
			close(ch)
		}
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
}

// Close ends every stream of a game.
func (h *Hub) Close(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[id] {
		close(ch)
	}
	delete(h.subs, id)
}

// CloseAll ends every stream.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
}

// Subscribers reports live stream count for a game.
func (h *Hub) Subscribers(id string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[id])
}

// handleStream upgrades to a WebSocket and pushes a snapshot on every
// transition. The first message is the current state.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.loadOwned(w, r, id)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	ch := s.hub.subscribe(id)
	defer s.hub.unsubscribe(id, ch)

	// Reader: only control frames are expected; any error ends the stream.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(v)
	}
	if err := write(sess.Snapshot()); err != nil {
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game ended"),
					time.Now().Add(wsWriteTimeout))
				return
			}
			if err := write(snap); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
