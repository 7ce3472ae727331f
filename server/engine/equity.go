package engine

import (
	"fmt"
	"math/rand"
	"time"

	poker "github.com/paulhankin/poker"
)

// Equity is a hand's outcome distribution against a uniformly random
// opponent holding. Fractions sum to 1.
type Equity struct {
	Win    float64 `json:"win"`
	Tie    float64 `json:"tie"`
	Lose   float64 `json:"lose"`
	Trials int     `json:"trials"`
}

const defaultEquityTrials = 2000

// HandEquity estimates equity for two hole cards against a random opponent
// given zero to five board cards. With a full board it enumerates every
// opponent combo exactly; earlier streets are sampled with the given number
// of trials (seed 0 draws a fresh source). The inputs must not overlap.
func HandEquity(hole, board []Card, trials int, seed int64) (Equity, error) {
	if len(hole) != 2 {
		return Equity{}, fmt.Errorf("equity: need 2 hole cards, got %d", len(hole))
	}
	if len(board) > 5 {
		return Equity{}, fmt.Errorf("equity: board has %d cards", len(board))
	}
	used := make(map[Card]bool, 7)
	for _, c := range hole {
		used[c] = true
	}
	for _, c := range board {
		used[c] = true
	}
	if len(used) != len(hole)+len(board) {
		return Equity{}, fmt.Errorf("equity: duplicate card in input")
	}

	avail := make([]Card, 0, 52)
	for _, s := range []byte(suitChars) {
		for r := 2; r <= 14; r++ {
			c := Card{Rank: r, Suit: s}
			if !used[c] {
				avail = append(avail, c)
			}
		}
	}

	if len(board) == 5 {
		return enumerateRiver(hole, board, avail), nil
	}

	if trials <= 0 {
		trials = defaultEquityTrials
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	need := 2 + (5 - len(board))
	var win, tie int
	for t := 0; t < trials; t++ {
		// Partial Fisher-Yates: only the first `need` positions matter.
		for i := 0; i < need; i++ {
			j := i + rng.Intn(len(avail)-i)
			avail[i], avail[j] = avail[j], avail[i]
		}
		runout := avail[2:need]
		full := append(append([]Card{}, board...), runout...)
		hero := libScore(hole, full)
		vill := libScore(avail[:2], full)
		switch {
		case hero > vill:
			win++
		case hero == vill:
			tie++
		}
	}
	return tally(win, tie, trials), nil
}

// enumerateRiver walks every remaining two-card combo for the opponent.
func enumerateRiver(hole, board, avail []Card) Equity {
	hero := libScore(hole, board)
	var win, tie, total int
	for i := 0; i < len(avail); i++ {
		for j := i + 1; j < len(avail); j++ {
			total++
			vill := libScore([]Card{avail[i], avail[j]}, board)
			switch {
			case hero > vill:
				win++
			case hero == vill:
				tie++
			}
		}
	}
	return tally(win, tie, total)
}

func tally(win, tie, total int) Equity {
	return Equity{
		Win:    float64(win) / float64(total),
		Tie:    float64(tie) / float64(total),
		Lose:   float64(total-win-tie) / float64(total),
		Trials: total,
	}
}

// libScore ranks hole+board with the reference evaluator; higher is better.
func libScore(hole, board []Card) int16 {
	var c7 [7]poker.Card
	n := 0
	for _, c := range hole {
		c7[n] = libCard(c)
		n++
	}
	for _, c := range board {
		c7[n] = libCard(c)
		n++
	}
	return poker.Eval7(&c7)
}

func libCard(c Card) poker.Card {
	var s poker.Suit
	switch c.Suit {
	case 'c':
		s = poker.Club
	case 'd':
		s = poker.Diamond
	case 'h':
		s = poker.Heart
	default:
		s = poker.Spade
	}
	r := poker.Rank(c.Rank)
	if c.Rank == 14 {
		r = poker.Rank(1)
	}
	pc, err := poker.MakeCard(s, r)
	if err != nil {
		panic(err)
	}
	return pc
}
