package engine

import (
	"encoding/json"
	"fmt"
)

// Phase is the hand lifecycle state. Betting is only open during
// Preflop through River; Showdown and Settled are terminal-side states.
type Phase int

const (
	PhaseWaiting Phase = iota // table not yet full, no hand dealt
	PhasePreflop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
	PhaseSettled
)

var phaseNames = [...]string{
	PhaseWaiting:  "waiting",
	PhasePreflop:  "preflop",
	PhaseFlop:     "flop",
	PhaseTurn:     "turn",
	PhaseRiver:    "river",
	PhaseShowdown: "showdown",
	PhaseSettled:  "settled",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

func (p *Phase) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for i, name := range phaseNames {
		if s == name {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", s)
}

// Winner values beside the seat indexes 0 and 1.
const (
	WinnerNone = -1
	WinnerTie  = 2
)

// NoTurn marks the turn index while no seat may act (all-in runout,
// showdown, settled).
const NoTurn = -1

// Config fixes the per-hand economics. Both seats start with BuyIn chips;
// the small blind is 2% of the buy-in (floored) and the big blind twice
// that. Seed /= 0 makes every deal of the session deterministic.
type Config struct {
	BuyIn int
	Seed  int64
}

func (c Config) SmallBlind() int { return c.BuyIn * 2 / 100 }
func (c Config) BigBlind() int   { return 2 * c.SmallBlind() }

// Settlement is emitted exactly once per hand, on the transition to
// Settled. Amounts is what each seat receives out of the pot; the external
// ledger layer consumes it asynchronously and the engine never waits on it.
type Settlement struct {
	HandNo  int    `json:"hand_no"`
	Winner  int    `json:"winner"` // seat index, or WinnerTie
	Pot     int    `json:"pot"`
	Amounts [2]int `json:"amounts"`
}

type playerState struct {
	Balance    int
	StreetBet  int // committed this street
	TotalBet   int // committed this hand
	Hole       []Card
	Folded     bool
	AllIn      bool
	Acted      bool // has acted since the last bet level change
}

// Session resolves one heads-up hold'em hand at a time: it posts blinds,
// deals, applies validated actions, advances streets and resolves the
// showdown. It is synchronous and not safe for concurrent use; a hosting
// server serializes mutations per session.
type Session struct {
	cfg      Config
	deck     *Deck
	phase    Phase
	pot      int
	bet      int // outstanding bet level this street
	dealer   int
	turn     int
	board    []Card
	revealed int
	players  [2]playerState
	winner   int
	scores   [2]*HandScore
	handNo   int
	onSettle func(Settlement)
}

// NewSession deals the first hand: seat 0 is the dealer, posts the small
// blind and acts first preflop. onSettle may be nil.
func NewSession(cfg Config, onSettle func(Settlement)) (*Session, error) {
	if cfg.BuyIn <= 0 || cfg.SmallBlind() == 0 {
		return nil, fmt.Errorf("buy-in %d too small to derive blinds", cfg.BuyIn)
	}
	s := &Session{cfg: cfg, winner: WinnerNone, onSettle: onSettle}
	s.players[0].Balance = cfg.BuyIn
	s.players[1].Balance = cfg.BuyIn
	if err := s.begin(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rematch swaps the dealer, reshuffles and deals the next hand. Balances
// carry over; a busted seat cannot rematch.
func (s *Session) Rematch() (Snapshot, error) {
	if s.phase != PhaseSettled {
		return s.Snapshot(), fmt.Errorf("%w: rematch before settlement", ErrInvalidPhase)
	}
	if s.players[0].Balance == 0 || s.players[1].Balance == 0 {
		return s.Snapshot(), fmt.Errorf("%w: a seat is busted", ErrInsufficientBalance)
	}
	s.dealer = 1 - s.dealer
	s.handNo++
	if err := s.begin(); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

func (s *Session) begin() error {
	seed := s.cfg.Seed
	if seed != 0 {
		seed += int64(s.handNo)
	}
	s.deck = NewDeck(seed)
	s.phase = PhasePreflop
	s.pot = 0
	s.bet = 0
	s.revealed = 0
	s.winner = WinnerNone
	s.scores = [2]*HandScore{}

	for i := range s.players {
		p := &s.players[i]
		p.StreetBet, p.TotalBet = 0, 0
		p.Folded, p.AllIn, p.Acted = false, false, false
		hole, err := s.deck.Deal(2)
		if err != nil {
			return err
		}
		p.Hole = hole
	}
	board, err := s.deck.Deal(5)
	if err != nil {
		return err
	}
	s.board = board

	// Heads-up: the dealer is the small blind and opens preflop.
	s.commit(s.dealer, s.cfg.SmallBlind())
	s.commit(1-s.dealer, s.cfg.BigBlind())
	s.turn = s.dealer

	// Short stacks can be all-in from the blinds alone.
	if s.roundComplete() {
		s.endStreet()
	}
	return nil
}

// commit moves amt from seat's stack into the pot, capping at the stack
// and flagging all-in when the cap bites.
func (s *Session) commit(seat, amt int) {
	p := &s.players[seat]
	if amt >= p.Balance {
		amt = p.Balance
		p.AllIn = true
	}
	p.Balance -= amt
	p.StreetBet += amt
	p.TotalBet += amt
	if p.StreetBet > s.bet {
		s.bet = p.StreetBet
	}
	s.pot += amt
}

// Apply validates and applies one action for seat, returning the snapshot
// after the mutation. Validation happens entirely before mutation: on error
// the session is unchanged and the returned snapshot reflects that.
func (s *Session) Apply(seat int, a Action) (Snapshot, error) {
	if err := s.validate(seat, a); err != nil {
		return s.Snapshot(), err
	}
	s.apply(seat, a)
	if s.phase != PhaseSettled && s.roundComplete() {
		s.endStreet()
	}
	return s.Snapshot(), nil
}

// ForceFold is the timeout entry point: an external timer folds the seat
// that failed to act. It is exactly a Fold and passes the same validation.
func (s *Session) ForceFold(seat int) (Snapshot, error) {
	return s.Apply(seat, FoldAction())
}

func (s *Session) validate(seat int, a Action) error {
	if seat != 0 && seat != 1 {
		return fmt.Errorf("%w: seat %d", ErrInvalidTurn, seat)
	}
	switch s.phase {
	case PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
	case PhaseSettled:
		return ErrAlreadySettled
	default:
		return fmt.Errorf("%w: %s", ErrInvalidPhase, s.phase)
	}
	if seat != s.turn {
		return fmt.Errorf("%w: seat %d", ErrInvalidTurn, seat)
	}
	p := &s.players[seat]
	switch a.Kind {
	case Fold:
		return nil
	case Check:
		if s.bet > p.StreetBet {
			return fmt.Errorf("%w: %d outstanding", ErrIllegalCheck, s.bet-p.StreetBet)
		}
	case Call:
		if s.bet <= p.StreetBet {
			return ErrIllegalCall
		}
	case Raise:
		if a.Amount <= s.bet {
			return fmt.Errorf("%w: %d <= %d", ErrIllegalRaise, a.Amount, s.bet)
		}
		if a.Amount-p.StreetBet > p.Balance {
			return fmt.Errorf("%w: raise to %d needs %d", ErrInsufficientBalance, a.Amount, a.Amount-p.StreetBet)
		}
	case AllIn:
		if p.Balance <= 0 {
			return ErrInsufficientBalance
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownAction, a.Kind)
	}
	return nil
}

func (s *Session) apply(seat int, a Action) {
	p := &s.players[seat]
	o := &s.players[1-seat]
	switch a.Kind {
	case Fold:
		p.Folded = true
		p.Acted = true
		s.finish(1 - seat)
		return
	case Check:
		p.Acted = true
	case Call:
		s.commit(seat, s.bet-p.StreetBet)
		p.Acted = true
	case Raise:
		s.commit(seat, a.Amount-p.StreetBet)
		p.Acted = true
		o.Acted = false // opponent must respond to the new bet level
	case AllIn:
		prev := s.bet
		s.commit(seat, p.Balance)
		p.Acted = true
		if s.bet > prev {
			o.Acted = false
		}
	}
	s.turn = 1 - seat
	if o.Folded || o.AllIn {
		s.turn = seat
	}
}

// roundComplete reports whether no more betting can happen this street.
func (s *Session) roundComplete() bool {
	p0, p1 := &s.players[0], &s.players[1]
	if p0.Folded || p1.Folded {
		return true
	}
	if p0.AllIn && p1.AllIn {
		return true
	}
	if p0.AllIn {
		return p1.Acted && p1.StreetBet >= p0.StreetBet
	}
	if p1.AllIn {
		return p0.Acted && p0.StreetBet >= p1.StreetBet
	}
	return p0.Acted && p1.Acted && p0.StreetBet == p1.StreetBet
}

// endStreet closes the finished betting round: refunds any uncalled
// excess, then advances phases. Once a seat is all-in there is no further
// betting heads-up, so the remaining streets run out automatically.
func (s *Session) endStreet() {
	s.refundExcess()
	for {
		if s.phase == PhaseRiver {
			s.showdown()
			return
		}
		s.advancePhase()
		if s.players[0].AllIn || s.players[1].AllIn {
			continue
		}
		return
	}
}

// refundExcess returns the uncalled part of a bet when the opponent is
// all-in for less. Pot and total bets shrink together, preserving
// pot == totalBet[0] + totalBet[1]. A refunded seat has chips behind
// again, so it is no longer all-in.
func (s *Session) refundExcess() {
	for i := range s.players {
		p, o := &s.players[i], &s.players[1-i]
		if p.StreetBet > o.StreetBet && o.AllIn && !o.Folded {
			d := p.StreetBet - o.StreetBet
			p.StreetBet -= d
			p.TotalBet -= d
			p.Balance += d
			p.AllIn = false
			s.pot -= d
			s.bet = p.StreetBet
		}
	}
}

// advancePhase reveals the next street and resets the betting round.
// Postflop the non-dealer acts first.
func (s *Session) advancePhase() {
	switch s.phase {
	case PhasePreflop:
		s.phase, s.revealed = PhaseFlop, 3
	case PhaseFlop:
		s.phase, s.revealed = PhaseTurn, 4
	case PhaseTurn:
		s.phase, s.revealed = PhaseRiver, 5
	}
	s.bet = 0
	for i := range s.players {
		s.players[i].StreetBet = 0
		s.players[i].Acted = false
	}
	s.turn = 1 - s.dealer
	if s.players[0].AllIn || s.players[1].AllIn {
		s.turn = NoTurn
	}
}

// showdown evaluates both live hands over the full board and settles.
// It runs at most once per hand.
func (s *Session) showdown() {
	s.phase = PhaseShowdown
	s.revealed = 5
	for i := range s.players {
		all := make([]Card, 0, 7)
		all = append(all, s.players[i].Hole...)
		all = append(all, s.board...)
		sc := Evaluate(all)
		s.scores[i] = &sc
	}
	switch {
	case s.scores[0].Score > s.scores[1].Score:
		s.finish(0)
	case s.scores[1].Score > s.scores[0].Score:
		s.finish(1)
	default:
		s.finish(WinnerTie)
	}
}

// finish settles the hand: credits the pot, records the winner and emits
// the one-time settlement event.
func (s *Session) finish(winner int) {
	s.phase = PhaseSettled
	s.turn = NoTurn
	s.winner = winner

	var amounts [2]int
	if winner == WinnerTie {
		half := s.pot / 2
		// Odd chip goes to the dealer's opponent, who paid the big blind.
		amounts[s.dealer] = half
		amounts[1-s.dealer] = s.pot - half
	} else {
		amounts[winner] = s.pot
	}
	s.players[0].Balance += amounts[0]
	s.players[1].Balance += amounts[1]

	if s.onSettle != nil {
		s.onSettle(Settlement{HandNo: s.handNo, Winner: winner, Pot: s.pot, Amounts: amounts})
	}
}

func (s *Session) Phase() Phase { return s.phase }
func (s *Session) HandNo() int  { return s.handNo }
