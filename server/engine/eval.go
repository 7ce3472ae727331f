package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// HandCategory ranks the ten hold'em hand classes, weakest first.
type HandCategory int

const (
	HighCard HandCategory = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var categoryNames = [...]string{
	HighCard:      "high card",
	OnePair:       "one pair",
	TwoPair:       "two pair",
	ThreeOfAKind:  "three of a kind",
	Straight:      "straight",
	Flush:         "flush",
	FullHouse:     "full house",
	FourOfAKind:   "four of a kind",
	StraightFlush: "straight flush",
	RoyalFlush:    "royal flush",
}

func (c HandCategory) String() string {
	if c >= HighCard && c <= RoyalFlush {
		return categoryNames[c]
	}
	return "unknown"
}

func (c HandCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *HandCategory) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for i := HighCard; i <= RoyalFlush; i++ {
		if s == categoryNames[i] {
			*c = i
			return nil
		}
	}
	return fmt.Errorf("unknown hand category %q", s)
}

// HandScore is the result of evaluating a hand: its category, a numeric
// score comparable across all categories with plain <, >, ==, and the five
// cards that make the hand, grouped cards first.
type HandScore struct {
	Category HandCategory `json:"category"`
	Score    int          `json:"score"`
	Cards    []Card       `json:"cards"`
}

func (h HandScore) String() string {
	names := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		names[i] = c.String()
	}
	return fmt.Sprintf("%s (%s)", h.Category, strings.Join(names, " "))
}

// score packs a category with its first two tie-break ranks. The category
// stride of 1000 dominates the largest rank term (14*15 + 14), so scores
// order the same way hands do.
func score(cat HandCategory, primary, secondary int) int {
	return int(cat)*1000 + primary*15 + secondary
}

// Evaluate returns the best five-card hand inside the given cards (two
// hole cards plus up to five board cards). It is pure: the same multiset
// of cards always yields the same category, score and contributing cards.
// With fewer than five cards it degrades to a provisional high-card score
// that preflop heuristics may use; showdown never sees that case.
func Evaluate(in []Card) HandScore {
	cards := make([]Card, len(in))
	copy(cards, in)
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Rank != cards[j].Rank {
			return cards[i].Rank > cards[j].Rank
		}
		return cards[i].Suit > cards[j].Suit // deterministic among equals
	})

	if len(cards) < 5 {
		sec := 0
		if len(cards) > 1 {
			sec = cards[1].Rank
		}
		prim := 0
		if len(cards) > 0 {
			prim = cards[0].Rank
		}
		return HandScore{Category: HighCard, Score: score(HighCard, prim, sec), Cards: cards}
	}

	suited := flushCards(cards)

	// A straight within the flush suit outranks everything else, so check
	// it before the generic groupings.
	if suited != nil {
		if run, high, ok := findStraight(suited); ok {
			if high == 14 {
				return HandScore{Category: RoyalFlush, Score: score(RoyalFlush, 14, 0), Cards: run}
			}
			return HandScore{Category: StraightFlush, Score: score(StraightFlush, high, 0), Cards: run}
		}
	}

	groups := groupRanks(cards)

	if len(groups[0].cards) == 4 {
		quad := groups[0]
		kick := kickers(cards, []int{quad.rank}, 1)
		return HandScore{
			Category: FourOfAKind,
			Score:    score(FourOfAKind, quad.rank, kick[0].Rank),
			Cards:    append(quad.cards[:4:4], kick...),
		}
	}

	if len(groups[0].cards) == 3 && len(groups) > 1 && len(groups[1].cards) >= 2 {
		trip, pair := groups[0], groups[1]
		hand := append(trip.cards[:3:3], pair.cards[:2]...)
		return HandScore{
			Category: FullHouse,
			Score:    score(FullHouse, trip.rank, pair.rank),
			Cards:    hand,
		}
	}

	if suited != nil {
		top := suited[:5:5]
		return HandScore{Category: Flush, Score: score(Flush, top[0].Rank, top[1].Rank), Cards: top}
	}

	if run, high, ok := findStraight(cards); ok {
		return HandScore{Category: Straight, Score: score(Straight, high, 0), Cards: run}
	}

	if len(groups[0].cards) == 3 {
		trip := groups[0]
		kick := kickers(cards, []int{trip.rank}, 2)
		return HandScore{
			Category: ThreeOfAKind,
			Score:    score(ThreeOfAKind, trip.rank, kick[0].Rank),
			Cards:    append(trip.cards[:3:3], kick...),
		}
	}

	if len(groups[0].cards) == 2 && len(groups) > 1 && len(groups[1].cards) == 2 {
		hi, lo := groups[0], groups[1]
		kick := kickers(cards, []int{hi.rank, lo.rank}, 1)
		hand := append(append(hi.cards[:2:2], lo.cards[:2]...), kick...)
		return HandScore{
			Category: TwoPair,
			Score:    score(TwoPair, hi.rank, lo.rank),
			Cards:    hand,
		}
	}

	if len(groups[0].cards) == 2 {
		pair := groups[0]
		kick := kickers(cards, []int{pair.rank}, 3)
		return HandScore{
			Category: OnePair,
			Score:    score(OnePair, pair.rank, kick[0].Rank),
			Cards:    append(pair.cards[:2:2], kick...),
		}
	}

	top := cards[:5:5]
	return HandScore{Category: HighCard, Score: score(HighCard, top[0].Rank, top[1].Rank), Cards: top}
}

// flushCards returns all cards of a suit holding five or more of the input,
// in descending rank order, or nil when no suit qualifies. At most one suit
// can qualify in seven cards.
func flushCards(sorted []Card) []Card {
	counts := map[byte]int{}
	for _, c := range sorted {
		counts[c.Suit]++
	}
	for suit, n := range counts {
		if n < 5 {
			continue
		}
		out := make([]Card, 0, n)
		for _, c := range sorted {
			if c.Suit == suit {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

// findStraight looks for five consecutive distinct ranks in the descending
// input and returns the highest such run. The wheel (A-2-3-4-5) counts as a
// 5-high straight, below every 6-high straight and above no straight.
func findStraight(sorted []Card) ([]Card, int, bool) {
	// One card per rank; keeps the first (deterministic) of duplicates.
	distinct := make([]Card, 0, len(sorted))
	for _, c := range sorted {
		if len(distinct) == 0 || distinct[len(distinct)-1].Rank != c.Rank {
			distinct = append(distinct, c)
		}
	}
	for i := 0; i+5 <= len(distinct); i++ {
		if distinct[i].Rank-distinct[i+4].Rank == 4 {
			return distinct[i : i+5 : i+5], distinct[i].Rank, true
		}
	}
	// Wheel: ace plays low under 5-4-3-2.
	if len(distinct) >= 5 && distinct[0].Rank == 14 {
		tail := distinct[len(distinct)-4:]
		if tail[0].Rank == 5 && tail[3].Rank == 2 {
			run := append(tail[:4:4], distinct[0])
			return run, 5, true
		}
	}
	return nil, 0, false
}

type rankGroup struct {
	rank  int
	cards []Card
}

// groupRanks buckets the descending input by rank and orders the buckets
// by size, then rank, so groups[0] is always the primary grouping.
func groupRanks(sorted []Card) []rankGroup {
	var groups []rankGroup
	for _, c := range sorted {
		if n := len(groups); n > 0 && groups[n-1].rank == c.Rank {
			groups[n-1].cards = append(groups[n-1].cards, c)
			continue
		}
		groups = append(groups, rankGroup{rank: c.Rank, cards: []Card{c}})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].cards) != len(groups[j].cards) {
			return len(groups[i].cards) > len(groups[j].cards)
		}
		return groups[i].rank > groups[j].rank
	})
	return groups
}

// kickers picks the n highest cards whose rank is not in exclude, so a
// kicker can never be a card already spent on the primary grouping.
func kickers(sorted []Card, exclude []int, n int) []Card {
	out := make([]Card, 0, n)
	for _, c := range sorted {
		skip := false
		for _, r := range exclude {
			if c.Rank == r {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out
}
