package deck

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"HoldemCore/internal/game/errs"
)

// Size is the number of cards in a full deck
const Size = 52

// ErrDuplicateCard is returned when a card is returned to a deck that already holds it
var ErrDuplicateCard = errors.New("card is already in the deck")

// ExhaustedError is returned when more cards are requested than the deck holds
type ExhaustedError struct {
	Want int
	Left int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("deck exhausted: wanted %d cards, %d left", e.Want, e.Left)
}

// Unwrap makes errors.Is(err, errs.ErrResourceExhausted) hold
func (e *ExhaustedError) Unwrap() error {
	return errs.ErrResourceExhausted
}

// Deck is an ordered sequence of unique cards. The top of the deck is index 0.
type Deck struct {
	cards []Card
	seed  int64
	rnd   *rand.Rand
}

// New returns a full, unshuffled deck.
// A seed of 0 seeds the shuffler from the clock; any other seed is deterministic.
func New(seed int64) *Deck {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Deck{
		cards: makeDeck(),
		seed:  seed,
		rnd:   rand.New(rand.NewSource(seed)),
	}
}

func makeDeck() []Card {
	cards := make([]Card, 0, Size)
	for _, s := range Suits {
		for r := Two; r <= Ace; r++ {
			cards = append(cards, Card{Suit: s, Rank: r})
		}
	}
	return cards
}

// Seed returns the seed the shuffler was created with
func (d *Deck) Seed() int64 {
	return d.seed
}

// Shuffle randomizes the order in place (Fisher-Yates) and returns the deck for chaining
func (d *Deck) Shuffle() *Deck {
	for j := len(d.cards) - 1; j > 0; j-- {
		i := d.rnd.Intn(j + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}

	return d
}

// Len returns the number of cards left
func (d *Deck) Len() int {
	return len(d.cards)
}

// CanDeal returns true if n cards are left
func (d *Deck) CanDeal(n int) bool {
	return n >= 0 && len(d.cards) >= n
}

// Cards returns a copy of the remaining cards, top first
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Deal removes and returns the top n cards.
// If fewer than n remain nothing is removed and an *ExhaustedError is returned.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 {
		return nil, errs.Validation("cannot deal %d cards", n)
	}

	if !d.CanDeal(n) {
		return nil, &ExhaustedError{Want: n, Left: len(d.cards)}
	}

	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out, nil
}

// Reveal deals n cards face up onto the community sequence and returns the extended sequence
func (d *Deck) Reveal(n int, community []Card) ([]Card, error) {
	cards, err := d.Deal(n)
	if err != nil {
		return community, err
	}

	return append(community, cards...), nil
}

// Return puts cards back at the bottom of the deck.
// Every card is checked before any is added, so a duplicate leaves the deck untouched.
func (d *Deck) Return(cards ...Card) error {
	seen := make(map[Card]bool, len(d.cards)+len(cards))
	for _, c := range d.cards {
		seen[c] = true
	}

	for _, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("cannot return invalid card %v", c)
		}

		if seen[c] {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, c)
		}
		seen[c] = true
	}

	d.cards = append(d.cards, cards...)
	return nil
}

// Stack moves the given cards to the top of the deck, in order. Used to replay
// a recorded deal or to rig a deck in tests.
func (d *Deck) Stack(cards ...Card) error {
	want := make(map[Card]bool, len(cards))
	for _, c := range cards {
		if want[c] {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, c)
		}
		want[c] = true
	}

	rest := make([]Card, 0, len(d.cards))
	for _, c := range d.cards {
		if want[c] {
			delete(want, c)
			continue
		}
		rest = append(rest, c)
	}

	if len(want) > 0 {
		return fmt.Errorf("cannot stack %d card(s) not in the deck", len(want))
	}

	d.cards = append(append(make([]Card, 0, len(cards)+len(rest)), cards...), rest...)
	return nil
}
