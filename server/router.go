package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pokerroom/server/engine"
	"pokerroom/server/store"
)

type apiServer struct {
	rooms   *Rooms
	db      *store.DB // nil disables the history endpoints
	log     *zap.Logger
	cfg     engine.Config // defaults for new tables
	timeout time.Duration
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is token-authenticated, so cross-origin pages may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Route("/api/tables", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{tableID}", func(r chi.Router) {
			r.Get("/", s.handleView)
			r.Post("/join", s.handleJoin)
			r.Post("/action", s.handleAction)
			r.Post("/rematch", s.handleRematch)
			r.Get("/equity", s.handleEquity)
			r.Get("/hands", s.handleHands)
			r.Get("/ws", s.handleWS)
		})
	})
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true})
}

func (s *apiServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BuyIn int   `json:"buy_in"`
		Seed  int64 `json:"seed"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	cfg := s.cfg
	if req.BuyIn != 0 {
		cfg.BuyIn = req.BuyIn
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if cfg.SmallBlind() < 1 {
		writeError(w, http.StatusBadRequest, errors.New("buy-in too small to post blinds"))
		return
	}
	t := NewTable(cfg, s.db, s.log, s.timeout)
	s.rooms.Add(t)
	s.log.Info("table created", zap.String("table", t.ID), zap.Int("buy_in", cfg.BuyIn))
	writeJSON(w, map[string]any{"table_id": t.ID, "state": t.View("")})
}

func (s *apiServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	seat, token, snap, err := t.Join()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, map[string]any{"seat": seat, "token": token, "state": snap})
}

func (s *apiServer) handleView(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	writeJSON(w, t.View(r.URL.Query().Get("token")))
}

func (s *apiServer) handleAction(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	var req struct {
		Token  string        `json:"token"`
		Action engine.Action `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Action.Kind == 0 {
		writeError(w, http.StatusBadRequest, errors.New("missing action kind"))
		return
	}
	snap, err := t.Act(req.Token, req.Action)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, snap)
}

func (s *apiServer) handleRematch(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snap, err := t.Rematch(req.Token)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, snap)
}

func (s *apiServer) handleEquity(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	trials, _ := strconv.Atoi(q.Get("trials"))
	eq, err := t.Equity(q.Get("token"), trials)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, eq)
}

func (s *apiServer) handleHands(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("hand history persistence is disabled"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.db.RecentHands(r.Context(), t.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, map[string]any{"hands": rows})
}

func (s *apiServer) handleWS(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	t.Subscribe(conn, r.URL.Query().Get("token"))
	// Drain client frames so closes are noticed promptly.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	t.Unsubscribe(conn)
}

func (s *apiServer) table(w http.ResponseWriter, r *http.Request) (*Table, bool) {
	id := chi.URLParam(r, "tableID")
	t, ok := s.rooms.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown table"))
		return nil, false
	}
	return t, true
}

// statusFor maps table and engine errors onto HTTP statuses. Rule
// violations are conflicts: the request was well-formed but the game
// state forbids it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, errUnknownToken):
		return http.StatusForbidden
	case errors.Is(err, errTableFull),
		errors.Is(err, errNotStarted),
		errors.Is(err, engine.ErrInvalidTurn),
		errors.Is(err, engine.ErrInvalidPhase),
		errors.Is(err, engine.ErrIllegalCheck),
		errors.Is(err, engine.ErrIllegalCall),
		errors.Is(err, engine.ErrIllegalRaise),
		errors.Is(err, engine.ErrInsufficientBalance),
		errors.Is(err, engine.ErrAlreadySettled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
