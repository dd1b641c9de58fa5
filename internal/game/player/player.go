package player

import (
	"HoldemCore/internal/game/deck"
	"HoldemCore/internal/game/errs"
	"HoldemCore/internal/game/pool"
)

// HandSize is the number of private cards each player holds
const HandSize = 2

// Player is a seat at the table
type Player struct {
	ID      string
	Chips   *pool.Chips
	TableID string

	hand []deck.Card
}

// New returns a player holding stake chips
func New(id string, stake int) (*Player, error) {
	if id == "" {
		return nil, errs.Validation("player id must not be empty")
	}

	chips, err := pool.NewChips(stake)
	if err != nil {
		return nil, err
	}

	return &Player{
		ID:    id,
		Chips: chips,
	}, nil
}

// Draw deals exactly two private cards from d
func (p *Player) Draw(d *deck.Deck) error {
	if p.HasHand() {
		return &errs.StateError{Reason: "player " + p.ID + " already holds a hand"}
	}

	cards, err := d.Deal(HandSize)
	if err != nil {
		return err
	}

	p.hand = cards
	return nil
}

// Receive sets the private cards directly (used by the table when dealing)
func (p *Player) Receive(cards []deck.Card) error {
	if len(cards) != HandSize {
		return errs.Validation("a hand is exactly %d cards, got %d", HandSize, len(cards))
	}

	if p.HasHand() {
		return &errs.StateError{Reason: "player " + p.ID + " already holds a hand"}
	}

	p.hand = append([]deck.Card(nil), cards...)
	return nil
}

// Discard clears the hand and appends the cards to dest
func (p *Player) Discard(dest []deck.Card) []deck.Card {
	dest = append(dest, p.hand...)
	p.hand = nil
	return dest
}

// HasHand returns true once private cards are dealt
func (p *Player) HasHand() bool {
	return len(p.hand) == HandSize
}

// Hand returns a copy of the private cards (nil if unset)
func (p *Player) Hand() []deck.Card {
	if !p.HasHand() {
		return nil
	}

	return append([]deck.Card(nil), p.hand...)
}

// Peek is the view-only look at the private cards
func (p *Player) Peek() ([]deck.Card, error) {
	if !p.HasHand() {
		return nil, &errs.StateError{Reason: "player " + p.ID + " has no hand to peek at"}
	}

	return p.Hand(), nil
}

// Decide drafts the chips a decision needs and returns the amount owed.
// callValue is the pool's call value, committed what the player has put in this round.
// Nothing is drafted on error.
func (p *Player) Decide(d Decision, callValue, committed int) (int, error) {
	var owed int
	switch d.Action {
	case Fold, Peek:
		p.Chips.CancelDraft()
		return 0, nil
	case Call:
		owed = callValue - committed
	case Raise:
		if d.Amount <= callValue {
			return 0, errs.Validation("raise to %d must be greater than the call of %d", d.Amount, callValue)
		}
		owed = d.Amount - committed
	default:
		return 0, errs.Validation("unknown action %d", int(d.Action))
	}

	if owed < 0 {
		owed = 0
	}

	if err := p.Chips.Draft(owed); err != nil {
		return 0, err
	}

	return owed, nil
}

// CanCover returns true if the player can put amount into the pool
func (p *Player) CanCover(amount int) bool {
	return p.Chips.Value() >= amount
}
