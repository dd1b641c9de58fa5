package pool

import (
	"HoldemCore/internal/game/errs"
)

// ErrBetTooLow is returned by RaiseCall when the new call value does not exceed the current one
const ErrBetTooLow = errs.ValidationError("bet too low: a raise must be greater than the current call")

// Pool is the betting ledger for one table.
// committed is reset every betting round, contributed every hand.
// Total() always equals the sum of contributed.
type Pool struct {
	order       []string
	committed   map[string]int
	contributed map[string]int
	callValue   int
	total       int
	blinds      int
}

// Snapshot is a read-only copy of the ledger
type Snapshot struct {
	Committed   map[string]int `json:"committed"`
	Contributed map[string]int `json:"contributed"`
	CallValue   int            `json:"callValue"`
	Total       int            `json:"total"`
	Blinds      int            `json:"blinds"`
}

// New returns an empty pool whose call value starts at blinds
func New(blinds int) (*Pool, error) {
	if blinds < 0 {
		return nil, errs.Validation("blinds must be non-negative, got %d", blinds)
	}

	return &Pool{
		committed:   make(map[string]int),
		contributed: make(map[string]int),
		callValue:   blinds,
		blinds:      blinds,
	}, nil
}

// Register adds a participant with a zero balance
func (p *Pool) Register(id string) error {
	if id == "" {
		return errs.Validation("participant id must not be empty")
	}

	if _, ok := p.committed[id]; ok {
		return errs.Validation("participant %s is already registered", id)
	}

	p.order = append(p.order, id)
	p.committed[id] = 0
	p.contributed[id] = 0
	return nil
}

// Unregister removes a participant who has nothing in the pool this hand
func (p *Pool) Unregister(id string) error {
	contributed, ok := p.contributed[id]
	if !ok {
		return errs.Validation("participant %s is not registered", id)
	}

	if contributed > 0 {
		return errs.Validation("participant %s has %d chips in the pool", id, contributed)
	}

	delete(p.committed, id)
	delete(p.contributed, id)
	for i, o := range p.order {
		if o == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}

	return nil
}

// IsRegistered returns true if id has a balance
func (p *Pool) IsRegistered(id string) bool {
	_, ok := p.committed[id]
	return ok
}

// AddBet moves amount from a participant into the pool
func (p *Pool) AddBet(id string, amount int) error {
	if amount < 0 {
		return errs.Validation("bet must be non-negative, got %d", amount)
	}

	if !p.IsRegistered(id) {
		return errs.Validation("participant %s is not registered", id)
	}

	p.committed[id] += amount
	p.contributed[id] += amount
	p.total += amount
	return nil
}

// RaiseCall sets a new call value for the round
func (p *Pool) RaiseCall(newValue int) error {
	if newValue <= p.callValue {
		return ErrBetTooLow
	}

	p.callValue = newValue
	return nil
}

// Owed returns what id must add to match the call value
func (p *Pool) Owed(id string) int {
	owed := p.callValue - p.committed[id]
	if owed < 0 {
		return 0
	}

	return owed
}

// Call matches the current call value for id and returns the amount added
func (p *Pool) Call(id string) (int, error) {
	owed := p.Owed(id)
	if err := p.AddBet(id, owed); err != nil {
		return 0, err
	}

	return owed, nil
}

// ResetRound zeroes every committed amount and the call value.
// Total is kept until the next hand.
func (p *Pool) ResetRound() {
	for id := range p.committed {
		p.committed[id] = 0
	}

	p.callValue = 0
}

// NewHand clears the ledger and seeds the call value with the blinds
func (p *Pool) NewHand() {
	for id := range p.committed {
		p.committed[id] = 0
		p.contributed[id] = 0
	}

	p.total = 0
	p.callValue = p.blinds
}

// SetBlinds changes the blinds for the next hand. Only valid while the pool is empty.
func (p *Pool) SetBlinds(blinds int) error {
	if blinds < 0 {
		return errs.Validation("blinds must be non-negative, got %d", blinds)
	}

	if p.total > 0 {
		return errs.Validation("cannot change blinds with %d chips in the pool", p.total)
	}

	p.blinds = blinds
	p.callValue = blinds
	return nil
}

// Blinds returns the blinds that seed each hand's call value
func (p *Pool) Blinds() int {
	return p.blinds
}

// CallValue returns the amount every active participant must have committed this round
func (p *Pool) CallValue() int {
	return p.callValue
}

// Total returns everything contributed this hand
func (p *Pool) Total() int {
	return p.total
}

// RoundTotal returns the sum committed this round
func (p *Pool) RoundTotal() int {
	sum := 0
	for _, v := range p.committed {
		sum += v
	}

	return sum
}

// Committed returns what id has put in this round
func (p *Pool) Committed(id string) int {
	return p.committed[id]
}

// Contributed returns what id has put in this hand
func (p *Pool) Contributed(id string) int {
	return p.contributed[id]
}

// Participants returns registered ids in registration order
func (p *Pool) Participants() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Payout splits the total between winners. Shares are equal; the remainder
// goes one chip at a time to winners in registration order.
// The pool is not modified.
func (p *Pool) Payout(winners []string) (map[string]int, error) {
	if len(winners) == 0 {
		return nil, errs.Validation("payout needs at least one winner")
	}

	isWinner := make(map[string]bool, len(winners))
	for _, w := range winners {
		if !p.IsRegistered(w) {
			return nil, errs.Validation("winner %s is not registered", w)
		}
		isWinner[w] = true
	}

	share := p.total / len(isWinner)
	remainder := p.total % len(isWinner)

	payouts := make(map[string]int, len(isWinner))
	for _, id := range p.order {
		if !isWinner[id] {
			continue
		}

		payouts[id] = share
		if remainder > 0 {
			payouts[id]++
			remainder--
		}
	}

	return payouts, nil
}

// Snapshot returns a copy of the ledger
func (p *Pool) Snapshot() Snapshot {
	s := Snapshot{
		Committed:   make(map[string]int, len(p.committed)),
		Contributed: make(map[string]int, len(p.contributed)),
		CallValue:   p.callValue,
		Total:       p.total,
		Blinds:      p.blinds,
	}

	for id, v := range p.committed {
		s.Committed[id] = v
	}
	for id, v := range p.contributed {
		s.Contributed[id] = v
	}

	return s
}
