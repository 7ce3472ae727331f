package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pokerroom/server/engine"
	"pokerroom/server/store"
)

var (
	errTableFull    = errors.New("table is full")
	errUnknownToken = errors.New("unknown player token")
	errNotStarted   = errors.New("waiting for an opponent")
)

const spectator = -1

// Table owns one engine session and enforces the engine's concurrency
// contract: every mutation runs under t.mu, so at most one is in flight.
// All I/O (persistence, broadcast) happens after the mutation returns.
type Table struct {
	ID      string
	cfg     engine.Config
	log     *zap.Logger
	db      *store.DB // nil disables recording
	timeout time.Duration

	mu      sync.Mutex
	sess    *engine.Session
	tokens  [2]string
	seated  int
	subs    map[*websocket.Conn]int // conn -> viewer seat, or spectator
	timer   *time.Timer
	settled []engine.Settlement // filled by the engine callback, drained per mutation
}

func NewTable(cfg engine.Config, db *store.DB, log *zap.Logger, timeout time.Duration) *Table {
	id := uuid.NewString()
	return &Table{
		ID:      id,
		cfg:     cfg,
		log:     log.With(zap.String("table", id)),
		db:      db,
		timeout: timeout,
		subs:    make(map[*websocket.Conn]int),
	}
}

// onSettle runs synchronously inside an engine mutation while t.mu is
// held; it only records the event for afterMutation to consume.
func (t *Table) onSettle(ev engine.Settlement) {
	t.settled = append(t.settled, ev)
}

// Join claims the next open seat. The hand is dealt the moment the second
// seat is taken.
func (t *Table) Join() (seat int, token string, snap engine.Snapshot, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seated == 2 {
		return 0, "", engine.Snapshot{}, errTableFull
	}
	seat = t.seated
	token = uuid.NewString()
	t.tokens[seat] = token
	t.seated++
	if t.seated == 2 {
		sess, serr := engine.NewSession(t.cfg, t.onSettle)
		if serr != nil {
			t.seated--
			t.tokens[seat] = ""
			return 0, "", engine.Snapshot{}, serr
		}
		t.sess = sess
		t.log.Info("hand dealt",
			zap.Int("buy_in", t.cfg.BuyIn),
			zap.Int("small_blind", t.cfg.SmallBlind()))
		t.afterMutation(sess.Snapshot())
	}
	return seat, token, t.viewLocked(seat), nil
}

// Act validates the player token and applies one action.
func (t *Table) Act(token string, a engine.Action) (engine.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	seat, err := t.seatLocked(token)
	if err != nil {
		return engine.Snapshot{}, err
	}
	if t.sess == nil {
		return engine.Snapshot{}, errNotStarted
	}
	street := t.sess.Phase().String()
	snap, err := t.sess.Apply(seat, a)
	if err != nil {
		return snap.Redacted(seat), err
	}
	t.recordAction(street, seat, a, snap)
	t.afterMutation(snap)
	return snap.Redacted(seat), nil
}

// Rematch swaps the button and deals the next hand.
func (t *Table) Rematch(token string) (engine.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	seat, err := t.seatLocked(token)
	if err != nil {
		return engine.Snapshot{}, err
	}
	if t.sess == nil {
		return engine.Snapshot{}, errNotStarted
	}
	snap, err := t.sess.Rematch()
	if err != nil {
		return snap.Redacted(seat), err
	}
	t.log.Info("rematch", zap.Int("hand_no", snap.HandNo))
	t.afterMutation(snap)
	return snap.Redacted(seat), nil
}

// Equity estimates the token holder's current winning chances against a
// random opponent holding. The sampling runs outside the table lock.
func (t *Table) Equity(token string, trials int) (engine.Equity, error) {
	t.mu.Lock()
	seat, err := t.seatLocked(token)
	if err != nil {
		t.mu.Unlock()
		return engine.Equity{}, err
	}
	if t.sess == nil {
		t.mu.Unlock()
		return engine.Equity{}, errNotStarted
	}
	snap := t.sess.Snapshot()
	t.mu.Unlock()

	board := make([]engine.Card, 0, 5)
	for _, bc := range snap.Board {
		if bc.Revealed {
			board = append(board, bc.Card)
		}
	}
	return engine.HandEquity(snap.Players[seat].Hole, board, trials, 0)
}

// View returns the current state as seen by the holder of token (or by a
// spectator for an empty token).
func (t *Table) View(token string) engine.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	viewer := spectator
	if s, err := t.seatLocked(token); err == nil {
		viewer = s
	}
	return t.viewLocked(viewer)
}

// Subscribe attaches a websocket that receives a redacted snapshot after
// every mutation. The caller keeps reading conn for close detection.
// Every write to a subscribed conn happens under t.mu, including this
// initial one, so broadcasts never interleave with it.
func (t *Table) Subscribe(conn *websocket.Conn, token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	viewer := spectator
	if s, err := t.seatLocked(token); err == nil {
		viewer = s
	}
	if err := conn.WriteJSON(t.viewLocked(viewer)); err != nil {
		conn.Close()
		return
	}
	t.subs[conn] = viewer
}

func (t *Table) Unsubscribe(conn *websocket.Conn) {
	t.mu.Lock()
	delete(t.subs, conn)
	t.mu.Unlock()
	conn.Close()
}

func (t *Table) seatLocked(token string) (int, error) {
	if token != "" {
		for i, tok := range t.tokens {
			if tok == token {
				return i, nil
			}
		}
	}
	return 0, errUnknownToken
}

func (t *Table) viewLocked(viewer int) engine.Snapshot {
	if t.sess == nil {
		return engine.Snapshot{Phase: engine.PhaseWaiting, Turn: engine.NoTurn, Winner: engine.WinnerNone}
	}
	return t.sess.Snapshot().Redacted(viewer)
}

// afterMutation drains settlement events, rearms the turn timer and fans
// the new state out to subscribers. Caller holds t.mu.
func (t *Table) afterMutation(snap engine.Snapshot) {
	for _, ev := range t.settled {
		t.recordHand(ev, snap)
		t.log.Info("hand settled",
			zap.Int("hand_no", ev.HandNo),
			zap.Int("winner", ev.Winner),
			zap.Int("pot", ev.Pot))
	}
	t.settled = t.settled[:0]

	t.rearmTimer(snap)

	for conn, viewer := range t.subs {
		if err := conn.WriteJSON(snap.Redacted(viewer)); err != nil {
			delete(t.subs, conn)
			conn.Close()
		}
	}
}

// rearmTimer schedules a forced fold for the seat on turn. Caller holds t.mu.
func (t *Table) rearmTimer(snap engine.Snapshot) {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.timeout <= 0 || snap.Turn == engine.NoTurn {
		return
	}
	seat, handNo := snap.Turn, snap.HandNo
	t.timer = time.AfterFunc(t.timeout, func() { t.foldOnTimeout(seat, handNo) })
}

func (t *Table) foldOnTimeout(seat, handNo int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess == nil || t.sess.HandNo() != handNo {
		return
	}
	snap, err := t.sess.ForceFold(seat)
	if err != nil {
		// The seat acted between the timer firing and the lock; nothing to do.
		return
	}
	t.log.Info("seat folded on timeout", zap.Int("seat", seat), zap.Int("hand_no", handNo))
	t.recordAction("timeout", seat, engine.FoldAction(), snap)
	t.afterMutation(snap)
}

func (t *Table) recordAction(street string, seat int, a engine.Action, snap engine.Snapshot) {
	if t.db == nil {
		return
	}
	var amount *int
	if a.Kind == engine.Raise {
		v := a.Amount
		amount = &v
	}
	handNo, pot := snap.HandNo, snap.Pot
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.db.RecordAction(ctx, t.ID, handNo, street, seat, a.Kind.String(), amount, pot); err != nil {
			t.log.Warn("record action failed", zap.Error(err))
		}
	}()
}

func (t *Table) recordHand(ev engine.Settlement, snap engine.Snapshot) {
	if t.db == nil {
		return
	}
	board := make([]string, len(snap.Board))
	for i, bc := range snap.Board {
		board[i] = bc.Card.String()
	}
	rec := store.HandRecord{
		TableID:    t.ID,
		HandNo:     ev.HandNo,
		Dealer:     snap.Dealer,
		SmallBlind: t.cfg.SmallBlind(),
		BigBlind:   t.cfg.BigBlind(),
		Winner:     ev.Winner,
		Pot:        ev.Pot,
		Board:      strings.Join(board, " "),
	}
	for i, sc := range snap.Scores {
		if sc == nil {
			continue
		}
		cat := sc.Category.String()
		if i == 0 {
			rec.Category0 = &cat
		} else {
			rec.Category1 = &cat
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.db.RecordHand(ctx, rec); err != nil {
			t.log.Warn("record hand failed", zap.Error(err))
		}
	}()
}

// Rooms is the table registry.
type Rooms struct {
	mu sync.RWMutex
	m  map[string]*Table
}

func NewRooms() *Rooms { return &Rooms{m: make(map[string]*Table)} }

func (r *Rooms) Add(t *Table) {
	r.mu.Lock()
	r.m[t.ID] = t
	r.mu.Unlock()
}

func (r *Rooms) Get(id string) (*Table, bool) {
	r.mu.RLock()
	t, ok := r.m[id]
	r.mu.RUnlock()
	return t, ok
}
