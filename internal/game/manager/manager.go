package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"HoldemCore/internal/game/deck"
	"HoldemCore/internal/game/engine"
	"HoldemCore/internal/game/errs"
	"HoldemCore/internal/game/player"
	"HoldemCore/internal/game/pool"
	"HoldemCore/internal/game/table"
	"HoldemCore/internal/history"
	"HoldemCore/internal/hub"
)

// DefaultAttempts is how many malformed decisions a player gets before being folded
const DefaultAttempts = 3

type Options struct {
	Blinds   int
	Seed     int64
	Attempts int
}

// GameManager 串行驱动一张桌子：入座、离座、逐手打牌、记录牌谱
type GameManager struct {
	mu        sync.Mutex
	engine    *engine.Engine
	hub       hub.HubInterface
	history   *history.Service
	logger    *log.Logger
	providers map[string]engine.DecisionProvider
	blinds    int
	attempts  int
	button    int
	recorded  string // id of the last hand handed to history
}

// NewGameManager builds a table with its own deck and pool. history may be nil.
func NewGameManager(h hub.HubInterface, hist *history.Service, logger *log.Logger, opts Options) (*GameManager, error) {
	pl, err := pool.New(opts.Blinds)
	if err != nil {
		return nil, err
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if h == nil {
		h = hub.Discard{}
	}

	t := table.New(deck.New(opts.Seed), pl)
	logger = logger.With("table", t.ID)

	return &GameManager{
		engine:    engine.NewEngine(t, h, logger),
		hub:       h,
		history:   hist,
		logger:    logger.WithPrefix("manager"),
		providers: make(map[string]engine.DecisionProvider),
		blinds:    opts.Blinds,
		attempts:  opts.Attempts,
	}, nil
}

// TableID returns the id of the managed table
func (m *GameManager) TableID() string {
	return m.engine.Table.ID
}

// Blinds returns the blinds used for the next hand
func (m *GameManager) Blinds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blinds
}

// SetBlinds changes the blinds from the next hand on
func (m *GameManager) SetBlinds(blinds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inHand() {
		return &errs.StateError{Reason: "blinds can only change between hands", Phase: m.engine.Phase().String()}
	}
	if blinds < 0 {
		return errs.Validation("blinds must be non-negative, got %d", blinds)
	}

	m.blinds = blinds
	return nil
}

// ---------------------
//        SEATS
// ---------------------

// Join seats a player. provider drives their decisions in PlayHand; nil
// means decisions arrive through Submit.
func (m *GameManager) Join(id string, stake int, provider engine.DecisionProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := player.New(id, stake)
	if err != nil {
		return err
	}
	if err := m.engine.Seat(p); err != nil {
		return err
	}

	if provider != nil {
		m.providers[id] = provider
	}
	return nil
}

// Leave unseats a player and returns their chips. A player still in the hand
// folds; chips they already put in stay in the pool.
func (m *GameManager) Leave(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.engine.Unseat(id)
	if err != nil {
		return 0, err
	}
	delete(m.providers, id)

	// 离座弃牌可能直接结束这手牌
	if err := m.settle(ctx); err != nil {
		m.logger.Error("settle after leave", "player", id, "err", err)
	}

	return p.Chips.Value(), nil
}

// Chips returns the chip count of every seated player
func (m *GameManager) Chips() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chips()
}

func (m *GameManager) chips() map[string]int {
	out := make(map[string]int)
	for _, p := range m.engine.Table.Players() {
		out[p.ID] = p.Chips.Value()
	}
	return out
}

// State returns a snapshot of the engine
func (m *GameManager) State() engine.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.CurrentState()
}

// LastResult returns the last finished hand, or nil
func (m *GameManager) LastResult() *engine.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Result()
}

// ---------------------
//        HANDS
// ---------------------

// StartHand deals a new hand to every player who can cover the blinds,
// moving the button one seat.
func (m *GameManager) StartHand() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startHand()
}

func (m *GameManager) startHand() error {
	order := m.engine.Table.SeatOrder()
	if len(order) == 0 {
		return errs.Validation("no players seated")
	}

	// 按钮轮转：每手从下一个座位开始
	start := m.button % len(order)
	var players []string
	for i := range order {
		id := order[(start+i)%len(order)]
		p, _ := m.engine.Table.Player(id)
		if p.CanCover(m.blinds) && p.Chips.Value() > 0 {
			players = append(players, id)
		}
	}

	if err := m.engine.NewHand(players, m.blinds); err != nil {
		return err
	}

	m.button++
	return nil
}

// Submit applies an external decision and advances the hand as far as it
// can go without another decision.
func (m *GameManager) Submit(ctx context.Context, id string, d player.Decision) (engine.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out, err := m.engine.SubmitDecision(id, d)
	if err != nil {
		return out, err
	}

	if err := m.settle(ctx); err != nil {
		return out, err
	}
	return out, nil
}

// PlayHand starts a hand and plays it to the end with the seated providers
func (m *GameManager) PlayHand(ctx context.Context) (*engine.Result, error) {
	m.mu.Lock()
	if err := m.startHand(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	for {
		done, err := m.step(ctx)
		if err != nil {
			m.abandon(err)
			return nil, err
		}
		if done {
			return m.LastResult(), nil
		}
	}
}

// abandon aborts a hand that can no longer be played, refunding the pool
func (m *GameManager) abandon(cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.inHand() {
		return
	}
	if err := m.engine.Abort(cause); err != nil {
		m.logger.Error("abort hand", "err", err)
	}
}

// step takes one decision, then advances as far as possible.
// It reports true once the hand is over.
func (m *GameManager) step(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	if !m.inHand() {
		return true, nil
	}

	turn := m.engine.TurnHolder()
	provider, ok := m.providers[turn]
	if !ok {
		return false, fmt.Errorf("no decision provider for %s", turn)
	}

	if err := m.decide(ctx, turn, provider); err != nil {
		return false, err
	}

	if err := m.settle(ctx); err != nil {
		return false, err
	}
	return !m.inHand(), nil
}

// decide asks for a decision, giving the player a few tries before folding
// them. One PEEK per turn is free; further ones count as invalid.
func (m *GameManager) decide(ctx context.Context, id string, provider engine.DecisionProvider) error {
	peeked := false
	for attempt := 1; attempt <= m.attempts; attempt++ {
		out, err := m.engine.Await(ctx, provider)
		if err == nil {
			if out.Decision.Action != player.Peek {
				return nil
			}
			if !peeked {
				peeked = true
				attempt--
				continue
			}
			m.logger.Warn("repeated peek", "player", id, "attempt", attempt)
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if errs.IsValidation(err) {
			m.logger.Warn("invalid decision", "player", id, "attempt", attempt, "err", err)
			continue
		}
		if errs.IsState(err) {
			return err
		}

		m.logger.Warn("provider failed, folding", "player", id, "err", err)
		break
	}

	if _, err := m.engine.SubmitDecision(id, player.Decision{Action: player.Fold}); err != nil {
		return fmt.Errorf("fold %s: %w", id, err)
	}
	return nil
}

// settle advances completed rounds and closes out a finished hand
func (m *GameManager) settle(ctx context.Context) error {
	for m.engine.RoundComplete() {
		if _, err := m.engine.Advance(); err != nil {
			return err
		}
	}

	if m.engine.Phase() == engine.HandOver {
		m.finishHand(ctx)
	}
	return nil
}

// finishHand records the result once, reports chip counts and unseats busted players
func (m *GameManager) finishHand(ctx context.Context) {
	res := m.engine.Result()
	if res == nil || res.HandID == m.recorded {
		return
	}
	m.recorded = res.HandID

	if m.history != nil {
		if _, err := m.history.Record(ctx, res); err != nil {
			m.logger.Error("record hand", "hand", res.Hand, "err", err)
		}
	}

	var busted []string
	for _, p := range m.engine.Table.Players() {
		if p.Chips.Value() == 0 || p.Chips.Value() < m.blinds {
			busted = append(busted, p.ID)
		}
	}

	seated := m.engine.Table.SeatOrder()
	chips := m.chips()
	m.hub.BroadcastToPlayers(seated, hub.OutgoingMessage{
		Event: hub.EventSummary,
		Data: map[string]any{
			"table":   m.engine.Table.ID,
			"hand":    res.HandID,
			"number":  res.Hand,
			"winners": res.Winners,
			"payouts": res.Payouts,
			"chips":   chips,
			"busted":  busted,
		},
	})

	for _, id := range busted {
		if _, err := m.engine.Unseat(id); err != nil {
			m.logger.Error("unseat busted player", "player", id, "err", err)
			continue
		}
		delete(m.providers, id)
		m.logger.Info("player busted", "player", id, "chips", chips[id])
	}
}

func (m *GameManager) inHand() bool {
	return m.engine.Phase().IsBetting()
}

// Play runs hands until fewer than two players can play, n hands are done
// (n <= 0 means no limit) or ctx ends.
func (m *GameManager) Play(ctx context.Context, n int) ([]*engine.Result, error) {
	var results []*engine.Result
	for n <= 0 || len(results) < n {
		res, err := m.PlayHand(ctx)
		if errs.IsValidation(err) && m.playable() < 2 {
			return results, nil
		}
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (m *GameManager) playable() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, p := range m.engine.Table.Players() {
		if p.CanCover(m.blinds) && p.Chips.Value() > 0 {
			n++
		}
	}
	return n
}

// ErrNoHistory is returned when the manager was built without a history service
var ErrNoHistory = errors.New("hand history is not enabled")

// Recent returns recorded hands, newest first
func (m *GameManager) Recent(ctx context.Context, n int) ([]*history.HandRecord, error) {
	if m.history == nil {
		return nil, ErrNoHistory
	}
	return m.history.Recent(ctx, n)
}
