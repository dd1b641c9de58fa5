package engine

import (
	"fmt"

	"HoldemCore/internal/game/errs"
)

// Phase of a hand
type Phase int

// Phase constants
const (
	Idle Phase = iota
	Preflop
	Flop
	Turn
	River
	Showdown
	HandOver
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	case HandOver:
		return "hand_over"
	}

	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalText lets phases appear by name in JSON
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// IsBetting returns true for the four phases where players act
func (p Phase) IsBetting() bool {
	return p >= Preflop && p <= River
}

// transitions lists every legal move. Betting phases may fall back to Idle
// when the deck runs out mid-hand.
var transitions = map[Phase][]Phase{
	Idle:     {Preflop},
	Preflop:  {Flop, HandOver, Idle},
	Flop:     {Turn, HandOver, Idle},
	Turn:     {River, HandOver, Idle},
	River:    {Showdown, HandOver, Idle},
	Showdown: {HandOver},
	HandOver: {Preflop},
}

// machine is the phase state machine
type machine struct {
	phase Phase
}

func (m *machine) can(next Phase) bool {
	for _, p := range transitions[m.phase] {
		if p == next {
			return true
		}
	}
	return false
}

func (m *machine) to(next Phase) error {
	if !m.can(next) {
		return &errs.StateError{
			Reason: fmt.Sprintf("cannot move from %s to %s", m.phase, next),
			Phase:  m.phase.String(),
		}
	}

	m.phase = next
	return nil
}

// nextBettingPhase is where a completed betting round leads
func nextBettingPhase(p Phase) Phase {
	switch p {
	case Preflop:
		return Flop
	case Flop:
		return Turn
	case Turn:
		return River
	}

	return Showdown
}

// revealCount is the number of community cards turned when entering p
func revealCount(p Phase) int {
	switch p {
	case Flop:
		return 3
	case Turn, River:
		return 1
	}

	return 0
}
