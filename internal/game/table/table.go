package table

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"HoldemCore/internal/game/deck"
	"HoldemCore/internal/game/errs"
	"HoldemCore/internal/game/player"
	"HoldemCore/internal/game/pool"
)

// Table owns the deck, the pool and the seated players.
// Players are kept in an arena keyed by id; seats holds the seating order.
type Table struct {
	ID        string
	CreatedAt time.Time

	Deck *deck.Deck
	Pool *pool.Pool

	seats     []string
	players   map[string]*player.Player
	community []deck.Card
	muck      []deck.Card
}

// New creates a table around a deck and a pool
func New(d *deck.Deck, p *pool.Pool) *Table {
	return &Table{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Deck:      d,
		Pool:      p,
		players:   make(map[string]*player.Player),
	}
}

// Seat adds a player at the end of the seating order and registers them with the pool
func (t *Table) Seat(p *player.Player) error {
	if _, ok := t.players[p.ID]; ok {
		return errs.Validation("player %s is already seated", p.ID)
	}

	if err := t.Pool.Register(p.ID); err != nil {
		return err
	}

	p.TableID = t.ID
	t.players[p.ID] = p
	t.seats = append(t.seats, p.ID)
	return nil
}

// Unseat removes a player, mucking any cards they hold. The player keeps their chips.
func (t *Table) Unseat(id string) (*player.Player, error) {
	p, ok := t.players[id]
	if !ok {
		return nil, errs.Validation("player %s is not seated", id)
	}

	if err := t.Pool.Unregister(id); err != nil {
		return nil, err
	}

	t.muck = p.Discard(t.muck)
	p.Chips.ResetRound()
	p.TableID = ""
	delete(t.players, id)
	for i, s := range t.seats {
		if s == id {
			t.seats = append(t.seats[:i], t.seats[i+1:]...)
			break
		}
	}

	return p, nil
}

// Player returns a seated player
func (t *Table) Player(id string) (*player.Player, bool) {
	p, ok := t.players[id]
	return p, ok
}

// Players returns the seated players in seating order
func (t *Table) Players() []*player.Player {
	out := make([]*player.Player, 0, len(t.seats))
	for _, id := range t.seats {
		out = append(out, t.players[id])
	}
	return out
}

// SeatOrder returns the seated ids in seating order
func (t *Table) SeatOrder() []string {
	out := make([]string, len(t.seats))
	copy(out, t.seats)
	return out
}

// DealAll gives every listed player two private cards, in order, from the top of the deck.
// Capacity is checked first, so an underflow leaves every hand and the deck untouched.
func (t *Table) DealAll(order []string) error {
	for _, id := range order {
		p, ok := t.players[id]
		if !ok {
			return errs.Validation("player %s is not seated", id)
		}

		if p.HasHand() {
			return &errs.StateError{Reason: "player " + id + " already holds a hand"}
		}
	}

	need := len(order) * player.HandSize
	if !t.Deck.CanDeal(need) {
		return &deck.ExhaustedError{Want: need, Left: t.Deck.Len()}
	}

	for _, id := range order {
		if err := t.players[id].Draw(t.Deck); err != nil {
			return err
		}
	}

	return nil
}

// RevealThree turns the flop. Returns the new cards.
func (t *Table) RevealThree() ([]deck.Card, error) {
	return t.reveal(3)
}

// RevealOne turns the turn or the river. Returns the new card.
func (t *Table) RevealOne() ([]deck.Card, error) {
	return t.reveal(1)
}

func (t *Table) reveal(n int) ([]deck.Card, error) {
	before := len(t.community)
	community, err := t.Deck.Reveal(n, t.community)
	if err != nil {
		return nil, err
	}

	t.community = community
	return append([]deck.Card(nil), community[before:]...), nil
}

// Community returns a copy of the revealed community cards
func (t *Table) Community() []deck.Card {
	return append([]deck.Card(nil), t.community...)
}

// Reform returns every hand and community card to the deck. Pool state is untouched.
func (t *Table) Reform() error {
	cards := append([]deck.Card(nil), t.community...)
	cards = append(cards, t.muck...)
	for _, id := range t.seats {
		cards = t.players[id].Discard(cards)
	}

	if err := t.Deck.Return(cards...); err != nil {
		return fmt.Errorf("reform: %w", err)
	}

	t.community = nil
	t.muck = nil
	return nil
}

// Muck discards one player's hand face down. The cards go back to the deck on Reform.
func (t *Table) Muck(id string) error {
	p, ok := t.players[id]
	if !ok {
		return errs.Validation("player %s is not seated", id)
	}

	t.muck = p.Discard(t.muck)
	return nil
}

// Mucked returns the number of discarded cards waiting for Reform
func (t *Table) Mucked() int {
	return len(t.muck)
}

// Shuffle shuffles the deck
func (t *Table) Shuffle() {
	t.Deck.Shuffle()
}
