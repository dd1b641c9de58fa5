package player

import (
	"fmt"
	"strconv"
	"strings"

	"HoldemCore/internal/game/errs"
)

// Action is what a player does on their turn
type Action int

// Action constants
const (
	Call Action = iota
	Raise
	Fold
	Peek
)

func (a Action) String() string {
	switch a {
	case Call:
		return "CALL"
	case Raise:
		return "RAISE"
	case Fold:
		return "FOLD"
	case Peek:
		return "PEEK"
	}

	return fmt.Sprintf("Action(%d)", int(a))
}

// MarshalText lets actions appear by name in JSON
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText is the inverse of MarshalText
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}

	*a = parsed
	return nil
}

// ParseAction parses "call", "raise", "fold" or "peek" (any case)
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "CHECK":
		return Call, nil
	case "RAISE", "BET":
		return Raise, nil
	case "FOLD":
		return Fold, nil
	case "PEEK":
		return Peek, nil
	}

	return Call, errs.Validation("unknown action %q", s)
}

// Decision is one turn's choice. Amount is only set for Raise and is the
// new call value the player raises to.
type Decision struct {
	Action Action `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// NewDecision validates the shape of a decision
func NewDecision(action Action, amount int) (Decision, error) {
	switch action {
	case Raise:
		if amount <= 0 {
			return Decision{}, errs.Validation("raise amount must be positive, got %d", amount)
		}
	case Call, Fold, Peek:
		if amount != 0 {
			return Decision{}, errs.Validation("%s does not take an amount", action)
		}
	default:
		return Decision{}, errs.Validation("unknown action %d", int(action))
	}

	return Decision{Action: action, Amount: amount}, nil
}

// ParseDecision parses "call", "fold", "peek" or "raise 40"
func ParseDecision(s string) (Decision, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Decision{}, errs.Validation("empty decision")
	}

	action, err := ParseAction(fields[0])
	if err != nil {
		return Decision{}, err
	}

	amount := 0
	if len(fields) > 1 {
		amount, err = strconv.Atoi(fields[1])
		if err != nil {
			return Decision{}, errs.Validation("could not parse amount %q", fields[1])
		}
	}

	return NewDecision(action, amount)
}

func (d Decision) String() string {
	if d.Action == Raise {
		return fmt.Sprintf("RAISE %d", d.Amount)
	}

	return d.Action.String()
}
