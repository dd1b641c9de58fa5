package engine

import (
	"fmt"
	"sort"
	"time"

	"HoldemCore/internal/game/deck"
	"HoldemCore/internal/game/handrank"
	"HoldemCore/internal/hub"
)

// showdown scores every active player and pays the best hand(s)
func (e *Engine) showdown() error {
	community := e.Table.Community()
	standings := make([]Standing, 0, len(e.active))
	for _, id := range e.active {
		p, ok := e.Table.Player(id)
		if !ok {
			return fmt.Errorf("showdown: player %s is not seated", id)
		}

		hand := p.Hand()
		score, err := handrank.Evaluate(append(append([]deck.Card(nil), hand...), community...))
		if err != nil {
			return fmt.Errorf("showdown: evaluate %s: %w", id, err)
		}

		standings = append(standings, Standing{PlayerID: id, Hand: hand, Score: score})
	}

	// 按牌力降序，同分保持行动顺序
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score.Compare(standings[j].Score) > 0
	})

	winners := []string{standings[0].PlayerID}
	for _, s := range standings[1:] {
		if s.Score.Compare(standings[0].Score) != 0 {
			break
		}
		winners = append(winners, s.PlayerID)
	}

	e.logger.Info("showdown", "hand", e.hands, "community", deck.Format(community), "winners", winners, "best", standings[0].Score.String())

	view := make([]map[string]any, len(standings))
	for i, s := range standings {
		view[i] = map[string]any{
			"player": s.PlayerID,
			"cards":  s.Hand,
			"rank":   s.Score.Category.String(),
			"best":   s.Score.Cards,
			"hand":   s.Score.String(),
		}
	}
	e.broadcast(hub.EventShowdown, map[string]any{
		"table":     e.Table.ID,
		"hand":      e.handID,
		"community": community,
		"standings": view,
	})

	return e.finish(winners, standings, false)
}

// finishByFold awards the pool to the last active player without evaluating
func (e *Engine) finishByFold() error {
	return e.finish([]string{e.active[0]}, nil, true)
}

// finish pays winners, settles the pool and moves to HandOver
func (e *Engine) finish(winners []string, standings []Standing, byFold bool) error {
	pl := e.Table.Pool
	pot := pl.Total()

	payouts, err := pl.Payout(winners)
	if err != nil {
		return fmt.Errorf("payout: %w", err)
	}

	for _, id := range winners {
		p, ok := e.Table.Player(id)
		if !ok {
			return fmt.Errorf("payout: winner %s is not seated", id)
		}
		if err := p.Chips.Credit(payouts[id]); err != nil {
			return err
		}
	}

	for _, id := range e.players {
		if p, ok := e.Table.Player(id); ok {
			p.Chips.ResetRound()
		}
	}

	// 奖池已分完
	pl.NewHand()

	if err := e.fsm.to(HandOver); err != nil {
		return err
	}

	e.turn = ""
	e.pending = make(map[string]bool)
	e.result = &Result{
		HandID:    e.handID,
		Hand:      e.hands,
		TableID:   e.Table.ID,
		Players:   append([]string(nil), e.players...),
		Community: e.Table.Community(),
		Winners:   winners,
		Tied:      len(winners) > 1,
		ByFold:    byFold,
		Pot:       pot,
		Payouts:   payouts,
		Standings: standings,
		Actions:   append([]ActionRecord(nil), e.actions...),
		StartedAt: e.startedAt,
		EndedAt:   time.Now(),
	}

	e.logger.Info("hand over", "hand", e.hands, "pot", pot, "winners", winners, "byFold", byFold, "tied", e.result.Tied)
	e.broadcast(hub.EventHandOver, map[string]any{
		"table":   e.Table.ID,
		"hand":    e.handID,
		"winners": winners,
		"payouts": payouts,
		"pot":     pot,
		"byFold":  byFold,
		"tied":    e.result.Tied,
	})

	e.releaseLeaving()
	return nil
}
