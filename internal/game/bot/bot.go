package bot

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"HoldemCore/internal/game/engine"
	"HoldemCore/internal/game/player"
)

var (
	call = player.Decision{Action: player.Call}
	fold = player.Decision{Action: player.Fold}
)

// CallingStation calls every bet it can afford and folds otherwise
type CallingStation struct{}

func (CallingStation) Decide(_ context.Context, s engine.State, id string) (player.Decision, error) {
	seat, ok := s.Seat(id)
	if ok && seat.Chips < s.Owed(id) {
		return fold, nil
	}

	return call, nil
}

// Scripted plays queued decisions per player and calls once a queue runs dry
type Scripted struct {
	mu     sync.Mutex
	queues map[string][]player.Decision
}

func NewScripted() *Scripted {
	return &Scripted{queues: make(map[string][]player.Decision)}
}

// Push queues decisions for a player
func (s *Scripted) Push(id string, decisions ...player.Decision) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queues[id] = append(s.queues[id], decisions...)
	return s
}

// Remaining returns how many decisions are queued for a player
func (s *Scripted) Remaining(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queues[id])
}

func (s *Scripted) Decide(_ context.Context, _ engine.State, id string) (player.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[id]
	if len(q) == 0 {
		return call, nil
	}

	s.queues[id] = q[1:]
	return q[0], nil
}

// Random mostly calls, raises about once every raiseEvery decisions and
// folds when the call costs more than half its stack.
type Random struct {
	mu         sync.Mutex
	rnd        *rand.Rand
	raiseEvery int
}

// NewRandom returns a seeded random player. A seed of 0 seeds from the clock.
func NewRandom(seed int64, raiseEvery int) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if raiseEvery <= 0 {
		raiseEvery = 4
	}

	return &Random{
		rnd:        rand.New(rand.NewSource(seed)),
		raiseEvery: raiseEvery,
	}
}

func (r *Random) Decide(_ context.Context, s engine.State, id string) (player.Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat, _ := s.Seat(id)
	owed := s.Owed(id)

	if owed > seat.Chips || (owed > 0 && owed*2 > seat.Chips && r.rnd.Intn(2) == 0) {
		return fold, nil
	}

	if r.rnd.Intn(r.raiseEvery) == 0 {
		step := s.Pool.Blinds
		if step <= 0 {
			step = 1
		}

		to := s.Pool.CallValue + step*(1+r.rnd.Intn(3))
		if to-s.Pool.Committed[id] <= seat.Chips {
			return player.Decision{Action: player.Raise, Amount: to}, nil
		}
	}

	return call, nil
}

// timeoutProvider folds for a player who does not decide in time
type timeoutProvider struct {
	inner engine.DecisionProvider
	wait  time.Duration
}

// WithTimeout wraps p so that a decision not made within d, or a provider
// error, becomes a FOLD.
func WithTimeout(p engine.DecisionProvider, d time.Duration) engine.DecisionProvider {
	return &timeoutProvider{inner: p, wait: d}
}

type decided struct {
	d   player.Decision
	err error
}

func (t *timeoutProvider) Decide(ctx context.Context, s engine.State, id string) (player.Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, t.wait)
	defer cancel()

	ch := make(chan decided, 1)
	go func() {
		d, err := t.inner.Decide(ctx, s, id)
		ch <- decided{d: d, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return fold, nil
		}
		return res.d, nil
	case <-ctx.Done():
		// 超时自动弃牌
		return fold, nil
	}
}
