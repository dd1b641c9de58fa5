package pool

import (
	"HoldemCore/internal/game/errs"
)

// Chips is a player's wallet for the current hand.
// A bet is first drafted (reserved), then confirmed once the pool accepts it,
// or cancelled when the pool rejects it. Value+BetFinal is constant across
// Draft, Confirm and CancelDraft.
type Chips struct {
	value    int
	betFinal int
	betDraft int
	lastBet  int
}

// NewChips returns a wallet holding stake chips
func NewChips(stake int) (*Chips, error) {
	if stake < 0 {
		return nil, errs.Validation("stake must be non-negative, got %d", stake)
	}

	return &Chips{value: stake}, nil
}

// Value is the number of chips not committed to the pool
func (c *Chips) Value() int {
	return c.value
}

// BetFinal is the amount confirmed into the pool this round
func (c *Chips) BetFinal() int {
	return c.betFinal
}

// BetDraft is the amount drafted and awaiting confirmation
func (c *Chips) BetDraft() int {
	return c.betDraft
}

// LastBet is the amount settled at the end of the previous round
func (c *Chips) LastBet() int {
	return c.lastBet
}

// Stake is the chips not yet settled into the pool: free chips plus this round's confirmed bet
func (c *Chips) Stake() int {
	return c.value + c.betFinal
}

// Draft reserves amount for a pending bet, replacing any earlier draft
func (c *Chips) Draft(amount int) error {
	if amount < 0 {
		return errs.Validation("bet must be non-negative, got %d", amount)
	}

	if amount > c.value {
		return errs.Validation("insufficient chips: bet of %d, only %d available", amount, c.value)
	}

	c.betDraft = amount
	return nil
}

// Confirm moves the draft out of the free chips into the confirmed bet. Returns the amount moved.
func (c *Chips) Confirm() int {
	moved := c.betDraft
	c.value -= moved
	c.betFinal += moved
	c.betDraft = 0
	return moved
}

// CancelDraft drops the pending reservation
func (c *Chips) CancelDraft() {
	c.betDraft = 0
}

// ResetRound settles the confirmed bet (it now lives in the pool) and remembers it as LastBet
func (c *Chips) ResetRound() {
	c.CancelDraft()
	c.lastBet = c.betFinal
	c.betFinal = 0
}

// Credit adds winnings
func (c *Chips) Credit(amount int) error {
	if amount < 0 {
		return errs.Validation("credit must be non-negative, got %d", amount)
	}

	c.value += amount
	return nil
}

// Refund gives back chips contributed to an aborted hand
func (c *Chips) Refund(amount int) error {
	if err := c.Credit(amount); err != nil {
		return err
	}

	c.betFinal = 0
	c.lastBet = 0
	return nil
}
