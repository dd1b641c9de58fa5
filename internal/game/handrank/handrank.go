package handrank

import (
	"fmt"
	"sort"

	"HoldemCore/internal/game/deck"
	"HoldemCore/internal/game/errs"
)

// Category is the type of poker hand, weakest first
type Category int

// Category constants
const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

func (c Category) String() string {
	switch c {
	case HighCard:
		return "high card"
	case Pair:
		return "pair"
	case TwoPair:
		return "two pair"
	case ThreeOfAKind:
		return "three of a kind"
	case Straight:
		return "straight"
	case Flush:
		return "flush"
	case FullHouse:
		return "full house"
	case FourOfAKind:
		return "four of a kind"
	case StraightFlush:
		return "straight flush"
	case RoyalFlush:
		return "royal flush"
	}

	return fmt.Sprintf("Category(%d)", int(c))
}

// CardsToEvaluate is the number of cards a showdown hand is built from (2 private + 5 community)
const CardsToEvaluate = 7

// Score is the value of the best five-card hand.
// Kickers are ordered most significant first.
type Score struct {
	Category Category    `json:"category"`
	Kickers  []deck.Rank `json:"kickers"`
	Cards    []deck.Card `json:"cards"`
}

// Compare returns 1 if s beats o, -1 if o beats s and 0 on a tie
func (s Score) Compare(o Score) int {
	if s.Category != o.Category {
		if s.Category > o.Category {
			return 1
		}
		return -1
	}

	for i := 0; i < len(s.Kickers) && i < len(o.Kickers); i++ {
		if s.Kickers[i] > o.Kickers[i] {
			return 1
		}
		if s.Kickers[i] < o.Kickers[i] {
			return -1
		}
	}

	return 0
}

func (s Score) String() string {
	switch s.Category {
	case HighCard:
		return fmt.Sprintf("%s high", s.Kickers[0])
	case Pair:
		return fmt.Sprintf("pair of %ss", s.Kickers[0])
	case TwoPair:
		return fmt.Sprintf("two pair, %ss and %ss", s.Kickers[0], s.Kickers[1])
	case ThreeOfAKind:
		return fmt.Sprintf("three %ss", s.Kickers[0])
	case Straight:
		return fmt.Sprintf("%s-high straight", s.Kickers[0])
	case Flush:
		return fmt.Sprintf("%s-high flush", s.Kickers[0])
	case FullHouse:
		return fmt.Sprintf("%ss full of %ss", s.Kickers[0], s.Kickers[1])
	case FourOfAKind:
		return fmt.Sprintf("four %ss", s.Kickers[0])
	case StraightFlush:
		return fmt.Sprintf("%s-high straight flush", s.Kickers[0])
	}

	return s.Category.String()
}

// Evaluate scores exactly seven distinct cards
func Evaluate(cards []deck.Card) (Score, error) {
	if len(cards) != CardsToEvaluate {
		return Score{}, errs.Validation("expected %d cards, got %d", CardsToEvaluate, len(cards))
	}

	seen := make(map[deck.Card]bool, len(cards))
	for _, c := range cards {
		if !c.Valid() {
			return Score{}, errs.Validation("invalid card %v", c)
		}
		if seen[c] {
			return Score{}, errs.Validation("duplicate card %s", c)
		}
		seen[c] = true
	}

	sorted := append([]deck.Card(nil), cards...)
	sortDesc(sorted)

	return evaluate(sorted), nil
}

// MustEvaluate panics on bad input. Intended for tests.
func MustEvaluate(cards []deck.Card) Score {
	s, err := Evaluate(cards)
	if err != nil {
		panic(err)
	}

	return s
}

func sortDesc(cards []deck.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Rank != cards[j].Rank {
			return cards[i].Rank > cards[j].Rank
		}
		return cards[i].Suit < cards[j].Suit
	})
}

// group is every card of one rank
type group struct {
	rank  deck.Rank
	cards []deck.Card
}

// evaluate expects cards sorted by rank, highest first
func evaluate(cards []deck.Card) Score {
	bySuit := make(map[deck.Suit][]deck.Card)
	byRank := make(map[deck.Rank][]deck.Card)
	for _, c := range cards {
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}

	var flush []deck.Card
	for _, s := range deck.Suits {
		if len(bySuit[s]) >= 5 {
			flush = bySuit[s]
		}
	}

	if flush != nil {
		if high, five, ok := findStraight(flush); ok {
			if high == deck.Ace {
				return Score{Category: RoyalFlush, Kickers: []deck.Rank{}, Cards: five}
			}
			return Score{Category: StraightFlush, Kickers: []deck.Rank{high}, Cards: five}
		}
	}

	// groups ordered by size, then by rank
	groups := make([]group, 0, len(byRank))
	for r, cs := range byRank {
		groups = append(groups, group{rank: r, cards: cs})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].cards) != len(groups[j].cards) {
			return len(groups[i].cards) > len(groups[j].cards)
		}
		return groups[i].rank > groups[j].rank
	})

	if len(groups[0].cards) == 4 {
		five, kickers := withKickers(cards, groups[0].cards, 1)
		return Score{Category: FourOfAKind, Kickers: append([]deck.Rank{groups[0].rank}, kickers...), Cards: five}
	}

	if len(groups[0].cards) == 3 && len(groups[1].cards) >= 2 {
		five := append(append([]deck.Card(nil), groups[0].cards...), groups[1].cards[:2]...)
		return Score{Category: FullHouse, Kickers: []deck.Rank{groups[0].rank, groups[1].rank}, Cards: five}
	}

	if flush != nil {
		five := append([]deck.Card(nil), flush[:5]...)
		return Score{Category: Flush, Kickers: ranks(five), Cards: five}
	}

	if high, five, ok := findStraight(cards); ok {
		return Score{Category: Straight, Kickers: []deck.Rank{high}, Cards: five}
	}

	if len(groups[0].cards) == 3 {
		five, kickers := withKickers(cards, groups[0].cards, 2)
		return Score{Category: ThreeOfAKind, Kickers: append([]deck.Rank{groups[0].rank}, kickers...), Cards: five}
	}

	if len(groups[0].cards) == 2 && len(groups[1].cards) == 2 {
		pairs := append(append([]deck.Card(nil), groups[0].cards...), groups[1].cards...)
		five, kickers := withKickers(cards, pairs, 1)
		return Score{Category: TwoPair, Kickers: append([]deck.Rank{groups[0].rank, groups[1].rank}, kickers...), Cards: five}
	}

	if len(groups[0].cards) == 2 {
		five, kickers := withKickers(cards, groups[0].cards, 3)
		return Score{Category: Pair, Kickers: append([]deck.Rank{groups[0].rank}, kickers...), Cards: five}
	}

	five := append([]deck.Card(nil), cards[:5]...)
	return Score{Category: HighCard, Kickers: ranks(five), Cards: five}
}

// withKickers fills made with the n highest cards not already in it
func withKickers(sorted, made []deck.Card, n int) ([]deck.Card, []deck.Rank) {
	used := make(map[deck.Card]bool, len(made))
	for _, c := range made {
		used[c] = true
	}

	five := append([]deck.Card(nil), made...)
	kickers := make([]deck.Rank, 0, n)
	for _, c := range sorted {
		if len(kickers) == n {
			break
		}
		if used[c] {
			continue
		}
		five = append(five, c)
		kickers = append(kickers, c.Rank)
	}

	return five, kickers
}

// findStraight returns the high rank and the five cards of the best straight.
// The wheel (A-2-3-4-5) is five-high.
func findStraight(sorted []deck.Card) (deck.Rank, []deck.Card, bool) {
	byRank := make(map[deck.Rank]deck.Card, len(sorted))
	for _, c := range sorted {
		if _, ok := byRank[c.Rank]; !ok {
			byRank[c.Rank] = c
		}
	}
	if ace, ok := byRank[deck.Ace]; ok {
		byRank[deck.LowAce] = ace
	}

	for high := deck.Ace; high >= deck.Five; high-- {
		five := make([]deck.Card, 0, 5)
		for r := high; r > high-5; r-- {
			c, ok := byRank[r]
			if !ok {
				break
			}
			five = append(five, c)
		}

		if len(five) == 5 {
			return high, five, true
		}
	}

	return 0, nil, false
}

func ranks(cards []deck.Card) []deck.Rank {
	out := make([]deck.Rank, len(cards))
	for i, c := range cards {
		out[i] = c.Rank
	}
	return out
}
