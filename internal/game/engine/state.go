package engine

import (
	"context"
	"time"

	"HoldemCore/internal/game/deck"
	"HoldemCore/internal/game/handrank"
	"HoldemCore/internal/game/player"
	"HoldemCore/internal/game/pool"
)

// DecisionProvider supplies the decision of the player whose turn it is
type DecisionProvider interface {
	Decide(ctx context.Context, state State, playerID string) (player.Decision, error)
}

// DecisionFunc adapts a function to DecisionProvider
type DecisionFunc func(ctx context.Context, state State, playerID string) (player.Decision, error)

func (f DecisionFunc) Decide(ctx context.Context, state State, playerID string) (player.Decision, error) {
	return f(ctx, state, playerID)
}

// SeatView is the public view of one seat
type SeatView struct {
	ID        string `json:"id"`
	Chips     int    `json:"chips"`
	Committed int    `json:"committed"`
	InHand    bool   `json:"inHand"`
	Folded    bool   `json:"folded"`
	Leaving   bool   `json:"leaving,omitempty"`
}

// State is a snapshot of the engine for decision providers and callers
type State struct {
	HandID        string        `json:"handId"`
	Hand          int           `json:"hand"`
	Phase         Phase         `json:"phase"`
	TurnHolder    string        `json:"turnHolder"`
	Anchor        string        `json:"anchor"`
	Pool          pool.Snapshot `json:"pool"`
	Community     []deck.Card   `json:"community"`
	Revealed      []deck.Card   `json:"revealed"`
	Active        []string      `json:"active"`
	Seats         []SeatView    `json:"seats"`
	RoundComplete bool          `json:"roundComplete"`
}

// Owed returns what id must add to call
func (s State) Owed(id string) int {
	owed := s.Pool.CallValue - s.Pool.Committed[id]
	if owed < 0 {
		return 0
	}
	return owed
}

// Seat returns the view of one seat
func (s State) Seat(id string) (SeatView, bool) {
	for _, v := range s.Seats {
		if v.ID == id {
			return v, true
		}
	}
	return SeatView{}, false
}

// ActionRecord is one applied decision
type ActionRecord struct {
	Player    string        `json:"player"`
	Phase     Phase         `json:"phase"`
	Action    player.Action `json:"action"`
	Amount    int           `json:"amount"`
	CallValue int           `json:"callValue"`
}

// Outcome is what SubmitDecision reports back to the caller
type Outcome struct {
	Player        string          `json:"player"`
	Decision      player.Decision `json:"decision"`
	Moved         int             `json:"moved"`
	Cards         []deck.Card     `json:"cards,omitempty"`
	NextTurn      string          `json:"nextTurn,omitempty"`
	RoundComplete bool            `json:"roundComplete"`
	HandOver      bool            `json:"handOver"`
}

// Standing is one player's showdown result
type Standing struct {
	PlayerID string         `json:"playerId"`
	Hand     []deck.Card    `json:"hand"`
	Score    handrank.Score `json:"score"`
}

// Result summarises a finished hand
type Result struct {
	HandID    string         `json:"handId"`
	Hand      int            `json:"hand"`
	TableID   string         `json:"tableId"`
	Players   []string       `json:"players"`
	Community []deck.Card    `json:"community"`
	Winners   []string       `json:"winners"`
	Tied      bool           `json:"tied"`
	ByFold    bool           `json:"byFold"`
	Pot       int            `json:"pot"`
	Payouts   map[string]int `json:"payouts"`
	Standings []Standing     `json:"standings,omitempty"`
	Actions   []ActionRecord `json:"actions"`
	StartedAt time.Time      `json:"startedAt"`
	EndedAt   time.Time      `json:"endedAt"`
}
