package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"HoldemCore/internal/game/deck"
	"HoldemCore/internal/game/errs"
	"HoldemCore/internal/game/player"
	"HoldemCore/internal/game/table"
	"HoldemCore/internal/hub"
)

// ---------------------
//       ENGINE
// ---------------------

// Engine runs hands at one table. It is not safe for concurrent use;
// callers serialize access (see manager.GameManager).
type Engine struct {
	Table  *table.Table
	Hub    hub.HubInterface
	logger *log.Logger

	fsm     machine
	hands   int
	shuffle func() error

	handID    string
	startedAt time.Time
	players   []string        // hand participants, in turn order
	active    []string        // not folded
	pending   map[string]bool // still to act this round
	turn      string
	anchor    string
	leaving   map[string]bool
	revealed  []deck.Card
	actions   []ActionRecord
	result    *Result
}

func NewEngine(t *table.Table, h hub.HubInterface, logger *log.Logger) *Engine {
	if h == nil {
		h = hub.Discard{}
	}

	e := &Engine{
		Table:   t,
		Hub:     h,
		logger:  logger.WithPrefix("engine"),
		pending: make(map[string]bool),
		leaving: make(map[string]bool),
	}
	e.shuffle = func() error {
		e.Table.Shuffle()
		return nil
	}
	return e
}

// Phase returns the current phase
func (e *Engine) Phase() Phase {
	return e.fsm.phase
}

// HandID returns the id of the current (or last) hand
func (e *Engine) HandID() string {
	return e.handID
}

// Result returns the last finished hand, or nil
func (e *Engine) Result() *Result {
	return e.result
}

// TurnHolder returns the player expected to act, or "" when nobody is
func (e *Engine) TurnHolder() string {
	return e.turn
}

// RoundComplete is true when every active player has acted and Advance is due
func (e *Engine) RoundComplete() bool {
	return e.fsm.phase.IsBetting() && e.turn == ""
}

// ---------------------
//        SEATS
// ---------------------

// Seat adds a player. They join from the next hand.
func (e *Engine) Seat(p *player.Player) error {
	if err := e.Table.Seat(p); err != nil {
		return err
	}

	e.logger.Info("player seated", "player", p.ID, "chips", p.Chips.Value())
	return nil
}

// Unseat removes a player. A player still in a betting hand folds first; if
// they have chips in the pool their seat is released when the hand ends.
func (e *Engine) Unseat(id string) (*player.Player, error) {
	p, ok := e.Table.Player(id)
	if !ok {
		return nil, errs.Validation("player %s is not seated", id)
	}

	if e.fsm.phase.IsBetting() && e.inHand(id) {
		if e.isActive(id) {
			e.logger.Info("player leaving mid-hand, folding", "player", id)
			if _, err := e.fold(id); err != nil {
				return nil, err
			}
		}

		if e.Table.Pool.Contributed(id) > 0 && e.fsm.phase.IsBetting() {
			e.leaving[id] = true
			return p, nil
		}
	}

	if _, err := e.Table.Unseat(id); err != nil {
		return nil, err
	}
	e.players = remove(e.players, id)
	e.logger.Info("player unseated", "player", id, "chips", p.Chips.Value())
	return p, nil
}

// ---------------------
//       NEW HAND
// ---------------------

// NewHand starts a hand. players nil means every seated player in seat order;
// the first listed player acts first. Every player must be able to call the blinds.
func (e *Engine) NewHand(players []string, blinds int) error {
	if !e.fsm.can(Preflop) {
		return &errs.StateError{Reason: "a hand is already in progress", Phase: e.fsm.phase.String()}
	}

	if players == nil {
		players = e.Table.SeatOrder()
	}

	if len(players) < 2 {
		return errs.Validation("a hand needs at least 2 players, got %d", len(players))
	}

	if blinds < 0 {
		return errs.Validation("blinds must be non-negative, got %d", blinds)
	}

	seen := make(map[string]bool, len(players))
	for _, id := range players {
		p, ok := e.Table.Player(id)
		if !ok {
			return errs.Validation("player %s is not seated", id)
		}
		if seen[id] {
			return errs.Validation("player %s listed twice", id)
		}
		seen[id] = true

		if !p.CanCover(blinds) {
			return errs.Validation("player %s has %d chips, cannot cover blinds of %d", id, p.Chips.Value(), blinds)
		}
	}

	// 洗牌发牌在动池子之前，发牌失败不影响池子
	if err := e.Table.Reform(); err != nil {
		return err
	}
	if err := e.shuffle(); err != nil {
		return err
	}
	if err := e.Table.DealAll(players); err != nil {
		if rerr := e.Table.Reform(); rerr != nil {
			e.logger.Error("reform after failed deal", "err", rerr)
		}
		return fmt.Errorf("deal hole cards: %w", err)
	}

	pl := e.Table.Pool
	if err := pl.SetBlinds(blinds); err != nil {
		return err
	}
	pl.NewHand()

	for _, id := range players {
		p, _ := e.Table.Player(id)
		p.Chips.ResetRound()
	}

	if err := e.fsm.to(Preflop); err != nil {
		return err
	}

	e.hands++
	e.handID = uuid.NewString()
	e.startedAt = time.Now()
	e.players = append([]string(nil), players...)
	e.active = append([]string(nil), players...)
	e.revealed = nil
	e.actions = nil
	e.result = nil
	e.startRound()

	e.logger.Info("hand started", "hand", e.hands, "id", e.handID, "players", len(players), "blinds", blinds)

	// 私牌发给对应玩家
	for _, id := range players {
		p, _ := e.Table.Player(id)
		e.Hub.SendToPlayer(id, hub.OutgoingMessage{
			Event: hub.EventDealHole,
			Data: map[string]any{
				"table": e.Table.ID,
				"hand":  e.handID,
				"cards": p.Hand(),
				"you":   id,
			},
		})
	}

	// 公共信息广播
	e.broadcast(hub.EventDealtPublic, map[string]any{
		"table":   e.Table.ID,
		"hand":    e.handID,
		"phase":   e.fsm.phase,
		"players": e.players,
		"blinds":  blinds,
		"turn":    e.turn,
	})

	return nil
}

// startRound puts every active player back in the rotation, starting with the first
func (e *Engine) startRound() {
	e.pending = make(map[string]bool, len(e.active))
	for _, id := range e.active {
		e.pending[id] = true
	}

	e.anchor = e.active[0]
	e.turn = e.active[0]
}

// ---------------------
//       DECISIONS
// ---------------------

// SubmitDecision applies the turn holder's decision.
// A *errs.StateError means the decision arrived at the wrong time; an
// errs.ValidationError means it was malformed and the player may try again.
// In both cases nothing changed.
func (e *Engine) SubmitDecision(id string, d player.Decision) (Outcome, error) {
	if err := e.checkTurn(id); err != nil {
		return Outcome{}, err
	}

	if _, err := player.NewDecision(d.Action, d.Amount); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Player: id, Decision: d}
	switch d.Action {
	case player.Peek:
		p, _ := e.Table.Player(id)
		cards, err := p.Peek()
		if err != nil {
			return Outcome{}, err
		}

		out.Cards = cards
		out.NextTurn = e.turn
		e.record(id, d.Action, 0)
		e.Hub.SendToPlayer(id, hub.OutgoingMessage{
			Event: hub.EventPeek,
			Data: map[string]any{
				"table": e.Table.ID,
				"hand":  e.handID,
				"cards": cards,
			},
		})
		return out, nil

	case player.Fold:
		return e.fold(id)

	case player.Call, player.Raise:
		moved, err := e.bet(id, d)
		if err != nil {
			return Outcome{}, err
		}
		out.Moved = moved
	}

	e.record(id, d.Action, out.Moved)
	e.broadcastAction(id, d, out.Moved)

	if d.Action == player.Raise {
		// 加注后其余玩家都要重新表态
		e.anchor = id
		for _, other := range e.active {
			e.pending[other] = other != id
		}
	} else {
		delete(e.pending, id)
	}

	e.passTurn(id)
	out.NextTurn = e.turn
	out.RoundComplete = e.RoundComplete()
	return out, nil
}

func (e *Engine) checkTurn(id string) error {
	phase := e.fsm.phase
	if !phase.IsBetting() {
		return &errs.StateError{Reason: "no betting round in progress", Phase: phase.String()}
	}

	if e.turn == "" {
		return &errs.StateError{Reason: "betting round is complete", Expected: "advance", Phase: phase.String()}
	}

	if !e.inHand(id) {
		return &errs.StateError{Reason: "player " + id + " is not in this hand", Expected: e.turn, Phase: phase.String()}
	}

	if !e.isActive(id) {
		return &errs.StateError{Reason: "player " + id + " has folded", Expected: e.turn, Phase: phase.String()}
	}

	if id != e.turn {
		return &errs.StateError{Reason: "not " + id + "'s turn", Expected: e.turn, Phase: phase.String()}
	}

	return nil
}

// bet drafts, checks with the pool, then confirms
func (e *Engine) bet(id string, d player.Decision) (int, error) {
	p, _ := e.Table.Player(id)
	pl := e.Table.Pool

	owed, err := p.Decide(d, pl.CallValue(), pl.Committed(id))
	if err != nil {
		return 0, err
	}

	if d.Action == player.Raise {
		if err := pl.RaiseCall(d.Amount); err != nil {
			p.Chips.CancelDraft()
			return 0, err
		}
	}

	if err := pl.AddBet(id, owed); err != nil {
		p.Chips.CancelDraft()
		return 0, fmt.Errorf("add bet for %s: %w", id, err)
	}

	return p.Chips.Confirm(), nil
}

func (e *Engine) fold(id string) (Outcome, error) {
	if err := e.Table.Muck(id); err != nil {
		return Outcome{}, err
	}

	idx := indexOf(e.active, id)
	e.active = remove(e.active, id)
	delete(e.pending, id)

	d := player.Decision{Action: player.Fold}
	e.record(id, player.Fold, 0)
	e.broadcastAction(id, d, 0)

	out := Outcome{Player: id, Decision: d}
	if len(e.active) == 1 {
		// 只剩一人，直接结束，不比牌
		if err := e.finishByFold(); err != nil {
			return Outcome{}, err
		}
		out.HandOver = true
		return out, nil
	}

	if e.anchor == id {
		e.anchor = e.active[idx%len(e.active)]
	}

	if e.turn == id {
		e.turn = e.nextPending(idx - 1)
	}

	out.NextTurn = e.turn
	out.RoundComplete = e.RoundComplete()
	return out, nil
}

// passTurn moves the turn to the next player still to act after id
func (e *Engine) passTurn(id string) {
	e.turn = e.nextPending(indexOf(e.active, id))
}

// nextPending returns the first pending player after position from, wrapping around
func (e *Engine) nextPending(from int) string {
	n := len(e.active)
	for i := 1; i <= n; i++ {
		id := e.active[((from+i)%n+n)%n]
		if e.pending[id] {
			return id
		}
	}

	return ""
}

// ---------------------
//        下一阶段逻辑
// ---------------------

// Advance moves to the next phase once the betting round is complete.
// It returns false (and does nothing) when the round is still open.
func (e *Engine) Advance() (bool, error) {
	if !e.RoundComplete() {
		return false, nil
	}

	pl := e.Table.Pool
	pl.ResetRound()
	for _, id := range e.players {
		if p, ok := e.Table.Player(id); ok {
			p.Chips.ResetRound()
		}
	}

	next := nextBettingPhase(e.fsm.phase)
	if next == Showdown {
		if err := e.fsm.to(Showdown); err != nil {
			return false, err
		}
		return true, e.showdown()
	}

	var (
		cards []deck.Card
		err   error
	)
	if revealCount(next) == 3 {
		cards, err = e.Table.RevealThree()
	} else {
		cards, err = e.Table.RevealOne()
	}
	if err != nil {
		return false, e.abort(err)
	}

	if err := e.fsm.to(next); err != nil {
		return false, err
	}

	e.revealed = cards
	e.startRound()
	e.logger.Debug("phase advanced", "hand", e.hands, "phase", next, "community", deck.Format(e.Table.Community()))

	e.broadcast(hub.EventCommunity, map[string]any{
		"table":     e.Table.ID,
		"hand":      e.handID,
		"community": e.Table.Community(),
		"new":       cards,
		"phase":     next,
		"turn":      e.turn,
	})

	return true, nil
}

// Abort ends the hand in progress without a winner: every contribution is
// refunded, the cards are reformed and the phase returns to Idle.
func (e *Engine) Abort(cause error) error {
	if !e.fsm.phase.IsBetting() {
		return &errs.StateError{Reason: "no hand in progress", Phase: e.fsm.phase.String()}
	}
	return e.reset(cause)
}

// abort refunds every contribution and returns the cards after the deck ran out
func (e *Engine) abort(cause error) error {
	if err := e.reset(cause); err != nil {
		return err
	}
	return fmt.Errorf("hand %s aborted: %w", e.handID, cause)
}

func (e *Engine) reset(cause error) error {
	pl := e.Table.Pool
	for _, id := range e.players {
		p, ok := e.Table.Player(id)
		if !ok {
			continue
		}
		p.Chips.CancelDraft()
		if err := p.Chips.Refund(pl.Contributed(id)); err != nil {
			return err
		}
	}
	pl.NewHand()

	if err := e.Table.Reform(); err != nil {
		e.logger.Error("reform after abort", "err", err)
	}

	if err := e.fsm.to(Idle); err != nil {
		return err
	}

	e.turn = ""
	e.pending = make(map[string]bool)
	e.releaseLeaving()

	e.logger.Warn("hand aborted", "hand", e.hands, "id", e.handID, "err", cause)
	e.broadcast(hub.EventAborted, map[string]any{
		"table":  e.Table.ID,
		"hand":   e.handID,
		"reason": cause.Error(),
	})

	return nil
}

// ---------------------
//    SYNC BOUNDARY
// ---------------------

// Await asks the turn holder's provider for one decision and applies it
func (e *Engine) Await(ctx context.Context, provider DecisionProvider) (Outcome, error) {
	id := e.turn
	if err := e.checkTurn(id); err != nil {
		return Outcome{}, err
	}

	d, err := provider.Decide(ctx, e.CurrentState(), id)
	if err != nil {
		return Outcome{}, fmt.Errorf("decision for %s: %w", id, err)
	}

	return e.SubmitDecision(id, d)
}

// CurrentState returns a snapshot of the table
func (e *Engine) CurrentState() State {
	s := State{
		HandID:        e.handID,
		Hand:          e.hands,
		Phase:         e.fsm.phase,
		TurnHolder:    e.turn,
		Anchor:        e.anchor,
		Pool:          e.Table.Pool.Snapshot(),
		Community:     e.Table.Community(),
		Revealed:      append([]deck.Card(nil), e.revealed...),
		Active:        append([]string(nil), e.active...),
		RoundComplete: e.RoundComplete(),
	}

	if !e.fsm.phase.IsBetting() {
		s.TurnHolder = ""
		s.Anchor = ""
	}

	for _, p := range e.Table.Players() {
		in := e.inHand(p.ID) && e.fsm.phase != Idle
		s.Seats = append(s.Seats, SeatView{
			ID:        p.ID,
			Chips:     p.Chips.Value(),
			Committed: e.Table.Pool.Committed(p.ID),
			InHand:    in,
			Folded:    in && !e.isActive(p.ID),
			Leaving:   e.leaving[p.ID],
		})
	}

	return s
}

// ---------------------
//       HELPERS
// ---------------------

func (e *Engine) record(id string, a player.Action, amount int) {
	e.actions = append(e.actions, ActionRecord{
		Player:    id,
		Phase:     e.fsm.phase,
		Action:    a,
		Amount:    amount,
		CallValue: e.Table.Pool.CallValue(),
	})
}

func (e *Engine) broadcast(event string, data map[string]any) {
	e.Hub.BroadcastToPlayers(e.Table.SeatOrder(), hub.OutgoingMessage{
		Event: event,
		Data:  data,
	})
}

func (e *Engine) broadcastAction(id string, d player.Decision, moved int) {
	e.logger.Debug("action", "hand", e.hands, "phase", e.fsm.phase, "player", id, "decision", d, "moved", moved)
	e.broadcast(hub.EventAction, map[string]any{
		"table":  e.Table.ID,
		"hand":   e.handID,
		"phase":  e.fsm.phase,
		"player": id,
		"action": d.Action,
		"amount": moved,
		"pot":    e.Table.Pool.Total(),
		"call":   e.Table.Pool.CallValue(),
	})
}

func (e *Engine) inHand(id string) bool {
	return indexOf(e.players, id) >= 0
}

func (e *Engine) isActive(id string) bool {
	return indexOf(e.active, id) >= 0
}

// releaseLeaving unseats players who asked to leave during the hand
func (e *Engine) releaseLeaving() {
	for id := range e.leaving {
		if _, err := e.Table.Unseat(id); err != nil {
			e.logger.Error("release seat", "player", id, "err", err)
			continue
		}
		e.players = remove(e.players, id)
		delete(e.leaving, id)
		e.logger.Info("player unseated", "player", id)
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
