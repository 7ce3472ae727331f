package engine

// BoardCard is a community card plus its reveal flag. The flag is purely
// presentational; evaluation never consults it.
type BoardCard struct {
	Card     Card `json:"card"`
	Revealed bool `json:"revealed"`
}

// PlayerSnapshot is one seat's state inside a Snapshot.
type PlayerSnapshot struct {
	Balance   int    `json:"balance"`
	StreetBet int    `json:"street_bet"`
	TotalBet  int    `json:"total_bet"`
	Hole      []Card `json:"hole"`
	Folded    bool   `json:"folded"`
	AllIn     bool   `json:"all_in"`
	Acted     bool   `json:"acted"`
}

// Snapshot is an immutable deep copy of the session after a mutation. The
// engine always reports true cards for both seats; hiding an opponent's
// hole cards from untrusted viewers is the caller's job (see Redacted).
type Snapshot struct {
	HandNo     int               `json:"hand_no"`
	Phase      Phase             `json:"phase"`
	Pot        int               `json:"pot"`
	CurrentBet int               `json:"current_bet"`
	Dealer     int               `json:"dealer"`
	Turn       int               `json:"turn"` // NoTurn when nobody may act
	Board      []BoardCard       `json:"board"`
	Players    [2]PlayerSnapshot `json:"players"`
	Winner     int               `json:"winner"` // seat, WinnerTie or WinnerNone
	Scores     [2]*HandScore     `json:"scores"`
}

// Snapshot builds the current state view. Every slice is copied, so the
// caller can hold it across later mutations.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		HandNo:     s.handNo,
		Phase:      s.phase,
		Pot:        s.pot,
		CurrentBet: s.bet,
		Dealer:     s.dealer,
		Turn:       s.turn,
		Winner:     s.winner,
	}
	snap.Board = make([]BoardCard, len(s.board))
	for i, c := range s.board {
		snap.Board[i] = BoardCard{Card: c, Revealed: i < s.revealed}
	}
	for i := range s.players {
		p := &s.players[i]
		snap.Players[i] = PlayerSnapshot{
			Balance:   p.Balance,
			StreetBet: p.StreetBet,
			TotalBet:  p.TotalBet,
			Hole:      append([]Card(nil), p.Hole...),
			Folded:    p.Folded,
			AllIn:     p.AllIn,
			Acted:     p.Acted,
		}
		if sc := s.scores[i]; sc != nil {
			cp := *sc
			cp.Cards = append([]Card(nil), sc.Cards...)
			snap.Scores[i] = &cp
		}
	}
	return snap
}

// Redacted returns a copy safe to show to viewer: unrevealed board cards
// are blanked, and so are the opponent's hole cards unless the hand went
// to showdown. Viewer values outside 0..1 (spectators) see neither hand
// before showdown.
func (snap Snapshot) Redacted(viewer int) Snapshot {
	out := snap
	out.Board = make([]BoardCard, len(snap.Board))
	for i, bc := range snap.Board {
		if !bc.Revealed {
			bc.Card = Card{}
		}
		out.Board[i] = bc
	}
	for i := range out.Players {
		p := snap.Players[i]
		p.Hole = append([]Card(nil), p.Hole...)
		// A hand is public only at showdown, where its score is recorded.
		if i != viewer && snap.Scores[i] == nil {
			p.Hole = nil
		}
		out.Players[i] = p
	}
	return out
}
