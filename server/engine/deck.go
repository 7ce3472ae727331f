package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// Deck is an ordered set of the 52 unique cards that shrinks as cards are
// dealt. Every card dealt from it stays unique: hole cards, board and the
// remainder always partition the full 52-card set.
type Deck struct {
	cards []Card
}

// NewDeck builds the 52-card set and shuffles it with a seeded
// Fisher-Yates pass. Seed 0 draws from the clock for live play; tests pass
// a fixed seed so deals are reproducible.
func NewDeck(seed int64) *Deck {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	d := &Deck{cards: make([]Card, 0, 52)}
	for _, s := range []byte(suitChars) {
		for rank := 2; rank <= 14; rank++ {
			d.cards = append(d.cards, Card{Rank: rank, Suit: s})
		}
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	return d
}

func (d *Deck) Remaining() int { return len(d.cards) }

// Deal removes and returns n cards from the front of the deck. Normal play
// draws 9 of 52, so ErrDeckExhausted signals a state-machine bug upstream,
// not a user error.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrDeckExhausted, n, len(d.cards))
	}
	out := d.cards[:n:n]
	d.cards = d.cards[n:]
	return out, nil
}
