package history

import (
	"time"

	"HoldemCore/internal/game/deck"
	"HoldemCore/internal/game/engine"
)

// ActionEntry 单个动作
type ActionEntry struct {
	Player    string `json:"player"`
	Phase     string `json:"phase"`
	Action    string `json:"action"`
	Amount    int    `json:"amount"`
	CallValue int    `json:"callValue"`
}

// StandingEntry 摊牌结果
type StandingEntry struct {
	Player string      `json:"player"`
	Cards  []deck.Card `json:"cards"`
	Best   []deck.Card `json:"best"`
	Hand   string      `json:"hand"`
}

// HandRecord 一手牌的完整记录
type HandRecord struct {
	ID        string          `json:"id"`
	Hand      int             `json:"hand"`
	TableID   string          `json:"tableId"`
	StartedAt time.Time       `json:"startedAt"`
	EndedAt   time.Time       `json:"endedAt"`
	Players   []string        `json:"players"`
	Community []deck.Card     `json:"community"`
	Actions   []ActionEntry   `json:"actions"`
	Standings []StandingEntry `json:"standings,omitempty"`
	Winners   []string        `json:"winners"`
	Payouts   map[string]int  `json:"payouts"`
	Pot       int             `json:"pot"`
	ByFold    bool            `json:"byFold"`
	Tied      bool            `json:"tied"`
}

// FromResult builds a record from a finished hand
func FromResult(res *engine.Result) *HandRecord {
	rec := &HandRecord{
		ID:        res.HandID,
		Hand:      res.Hand,
		TableID:   res.TableID,
		StartedAt: res.StartedAt,
		EndedAt:   res.EndedAt,
		Players:   append([]string(nil), res.Players...),
		Community: append([]deck.Card(nil), res.Community...),
		Winners:   append([]string(nil), res.Winners...),
		Payouts:   make(map[string]int, len(res.Payouts)),
		Pot:       res.Pot,
		ByFold:    res.ByFold,
		Tied:      res.Tied,
	}

	for id, amt := range res.Payouts {
		rec.Payouts[id] = amt
	}

	for _, a := range res.Actions {
		rec.Actions = append(rec.Actions, ActionEntry{
			Player:    a.Player,
			Phase:     a.Phase.String(),
			Action:    a.Action.String(),
			Amount:    a.Amount,
			CallValue: a.CallValue,
		})
	}

	for _, s := range res.Standings {
		rec.Standings = append(rec.Standings, StandingEntry{
			Player: s.PlayerID,
			Cards:  s.Hand,
			Best:   s.Score.Cards,
			Hand:   s.Score.String(),
		})
	}

	return rec
}
