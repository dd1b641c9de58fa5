package deck

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit of a card (spades, hearts, diamonds, clubs)
type Suit int

// suit constants
const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in deck-building order
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	}

	return "?"
}

// Rank of a card. Ace is high (14); the wheel straight treats it as LowAce.
type Rank int

// rank constants
const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14

	LowAce Rank = 1
)

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace, LowAce:
		return "A"
	}

	return strconv.Itoa(int(r))
}

// Card is an individual playing card
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Valid returns true if the card exists in a standard 52 card deck
func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Spades && c.Suit <= Clubs
}

// ParseCard parses a card in the format <rank><suit>, i.e., "As", "10h", "Td", "2c"
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("could not parse card: %q", s)
	}

	var suit Suit
	switch strings.ToLower(s[len(s)-1:]) {
	case "s":
		suit = Spades
	case "h":
		suit = Hearts
	case "d":
		suit = Diamonds
	case "c":
		suit = Clubs
	default:
		return Card{}, fmt.Errorf("could not parse suit of card: %q", s)
	}

	var rank Rank
	switch r := strings.ToUpper(s[:len(s)-1]); r {
	case "A":
		rank = Ace
	case "K":
		rank = King
	case "Q":
		rank = Queen
	case "J":
		rank = Jack
	case "T":
		rank = Ten
	default:
		n, err := strconv.Atoi(r)
		if err != nil || n < 2 || n > 10 {
			return Card{}, fmt.Errorf("could not parse rank of card: %q", s)
		}
		rank = Rank(n)
	}

	return Card{Suit: suit, Rank: rank}, nil
}

// MustParseCards parses a comma separated list of cards, i.e., "As,Kd,10h"
// This panics on bad input and is intended for tests.
func MustParseCards(s string) []Card {
	if s == "" {
		return []Card{}
	}

	parts := strings.Split(s, ",")
	cards := make([]Card, len(parts))
	for i, part := range parts {
		c, err := ParseCard(part)
		if err != nil {
			panic(err)
		}
		cards[i] = c
	}

	return cards
}

// Format joins cards with a space, i.e., "A♠ K♦"
func Format(cards []Card) string {
	s := make([]string, len(cards))
	for i, c := range cards {
		s[i] = c.String()
	}

	return strings.Join(s, " ")
}
