package engine

import (
	"encoding/json"
	"fmt"
)

// Card is an immutable rank/suit pair. Ranks run 2..14 with 14 = Ace,
// suits are the bytes 'c', 'd', 'h', 's'.
type Card struct {
	Rank int
	Suit byte
}

const (
	rankChars = "  23456789TJQKA" // indexed by rank value
	suitChars = "cdhs"
)

func (c Card) String() string {
	if c.Rank < 2 || c.Rank > 14 {
		return "??"
	}
	return fmt.Sprintf("%c%c", rankChars[c.Rank], c.Suit)
}

// ParseCard reads a two-character mnemonic like "As", "Td" or "2c".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("bad card %q", s)
	}
	var rank int
	switch ch := s[0]; {
	case ch >= '2' && ch <= '9':
		rank = int(ch - '0')
	case ch == 'T':
		rank = 10
	case ch == 'J':
		rank = 11
	case ch == 'Q':
		rank = 12
	case ch == 'K':
		rank = 13
	case ch == 'A':
		rank = 14
	default:
		return Card{}, fmt.Errorf("bad rank in card %q", s)
	}
	switch s[1] {
	case 'c', 'd', 'h', 's':
		return Card{Rank: rank, Suit: s[1]}, nil
	}
	return Card{}, fmt.Errorf("bad suit in card %q", s)
}

// MustCard is ParseCard for literals in tests and fixtures.
func MustCard(s string) Card {
	c, err := ParseCard(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Cards are serialized as mnemonics so snapshots stay readable on the
// wire. The zero Card stands for a hidden card and crosses as "".
func (c Card) MarshalJSON() ([]byte, error) {
	if c == (Card{}) {
		return json.Marshal("")
	}
	return json.Marshal(c.String())
}

func (c *Card) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*c = Card{}
		return nil
	}
	parsed, err := ParseCard(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
