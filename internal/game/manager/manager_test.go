package manager

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HoldemCore/internal/game/bot"
	"HoldemCore/internal/game/engine"
	"HoldemCore/internal/game/errs"
	"HoldemCore/internal/game/player"
	"HoldemCore/internal/history"
	"HoldemCore/internal/hub"
)

// mockHub 实现 HubInterface，记录消息
type mockHub struct {
	mu           sync.Mutex
	sentToPlayer map[string][]hub.OutgoingMessage
	broadcasts   []hub.OutgoingMessage
}

func newMockHub() *mockHub {
	return &mockHub{
		sentToPlayer: make(map[string][]hub.OutgoingMessage),
	}
}

func (h *mockHub) BroadcastToPlayers(ids []string, msg hub.OutgoingMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasts = append(h.broadcasts, msg)
}

func (h *mockHub) SendToPlayer(id string, msg hub.OutgoingMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sentToPlayer[id] = append(h.sentToPlayer[id], msg)
}

func (h *mockHub) events(event string) []hub.OutgoingMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []hub.OutgoingMessage
	for _, m := range h.broadcasts {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

func newManager(t *testing.T, blinds int) (*GameManager, *mockHub, *history.Service) {
	t.Helper()

	h := newMockHub()
	logger := log.New(io.Discard)
	hist := history.NewService(history.NewMemoryRepo(0), h, logger)

	mgr, err := NewGameManager(h, hist, logger, Options{Blinds: blinds, Seed: 7})
	require.NoError(t, err)
	return mgr, h, hist
}

func total(chips map[string]int) int {
	sum := 0
	for _, v := range chips {
		sum += v
	}
	return sum
}

// ✅ 测试一手完整牌局：筹码守恒、牌谱记录、结算广播
func TestGameManagerPlayHand(t *testing.T) {
	ctx := context.Background()
	mgr, h, hist := newManager(t, 10)

	for _, id := range []string{"alice", "bob", "carol"} {
		require.NoError(t, mgr.Join(id, 100, bot.CallingStation{}))
	}

	res, err := mgr.PlayHand(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 30, res.Pot)
	assert.False(t, res.ByFold)
	assert.NotEmpty(t, res.Winners)
	assert.Equal(t, 300, total(mgr.Chips()))
	assert.Equal(t, engine.HandOver, mgr.State().Phase)

	cnt, err := hist.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)

	summaries := h.events(hub.EventSummary)
	require.Len(t, summaries, 1)
	data := summaries[0].Data.(map[string]any)
	assert.Equal(t, res.HandID, data["hand"])

	recent, err := mgr.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, res.HandID, recent[0].ID)
}

// ✅ 测试按钮轮转：每手由下一个座位先行动
func TestGameManagerButtonRotates(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t, 10)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, mgr.Join(id, 100, bot.CallingStation{}))
	}

	var first []string
	for i := 0; i < 3; i++ {
		res, err := mgr.PlayHand(ctx)
		require.NoError(t, err)
		first = append(first, res.Actions[0].Player)
	}

	assert.Equal(t, []string{"a", "b", "c"}, first)
}

// ✅ 测试非法决策三次后自动弃牌
func TestGameManagerInvalidDecisionFolds(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t, 10)

	tooLow := player.Decision{Action: player.Raise, Amount: 5}
	script := bot.NewScripted().Push("a", tooLow, tooLow, tooLow)

	require.NoError(t, mgr.Join("a", 100, script))
	require.NoError(t, mgr.Join("b", 100, bot.CallingStation{}))

	res, err := mgr.PlayHand(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, script.Remaining("a"))
	assert.True(t, res.ByFold)
	assert.Equal(t, []string{"b"}, res.Winners)
	assert.Equal(t, map[string]int{"a": 100, "b": 100}, mgr.Chips())
}

// ✅ 测试决策源出错时弃牌
func TestGameManagerProviderErrorFolds(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t, 10)

	offline := engine.DecisionFunc(func(context.Context, engine.State, string) (player.Decision, error) {
		return player.Decision{}, errors.New("offline")
	})

	require.NoError(t, mgr.Join("a", 100, offline))
	require.NoError(t, mgr.Join("b", 100, bot.CallingStation{}))

	res, err := mgr.PlayHand(ctx)
	require.NoError(t, err)
	assert.True(t, res.ByFold)
	assert.Equal(t, []string{"b"}, res.Winners)
}

// ✅ 测试输光的玩家在手牌结束后离座
func TestGameManagerBustedPlayerUnseated(t *testing.T) {
	ctx := context.Background()
	mgr, h, _ := newManager(t, 10)

	// a 全下 10，b 加注到 20，a 无力跟注只能弃牌
	require.NoError(t, mgr.Join("a", 10, bot.CallingStation{}))
	require.NoError(t, mgr.Join("b", 100, bot.NewScripted().Push("b", player.Decision{Action: player.Raise, Amount: 20})))

	results, err := mgr.Play(ctx, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, []string{"b"}, results[0].Winners)
	assert.Equal(t, map[string]int{"b": 110}, mgr.Chips())

	summaries := h.events(hub.EventSummary)
	require.Len(t, summaries, 1)
	assert.Equal(t, []string{"a"}, summaries[0].Data.(map[string]any)["busted"])
}

// ✅ 测试外部提交决策，轮次自动推进直到结束
func TestGameManagerSubmit(t *testing.T) {
	ctx := context.Background()
	mgr, _, hist := newManager(t, 10)

	require.NoError(t, mgr.Join("a", 100, nil))
	require.NoError(t, mgr.Join("b", 100, nil))
	require.NoError(t, mgr.StartHand())

	st := mgr.State()
	assert.Equal(t, engine.Preflop, st.Phase)
	assert.Equal(t, "a", st.TurnHolder)

	_, err := mgr.Submit(ctx, "b", player.Decision{Action: player.Call})
	assert.True(t, errs.IsState(err), "out of turn should be a state error: %v", err)

	call := player.Decision{Action: player.Call}
	_, err = mgr.Submit(ctx, "a", call)
	require.NoError(t, err)
	_, err = mgr.Submit(ctx, "b", call)
	require.NoError(t, err)

	st = mgr.State()
	assert.Equal(t, engine.Flop, st.Phase)
	assert.Len(t, st.Community, 3)

	for mgr.State().Phase != engine.HandOver {
		turn := mgr.State().TurnHolder
		require.NotEmpty(t, turn)
		_, err := mgr.Submit(ctx, turn, call)
		require.NoError(t, err)
	}

	res := mgr.LastResult()
	require.NotNil(t, res)
	assert.Len(t, res.Community, 5)
	assert.Equal(t, 200, total(mgr.Chips()))

	cnt, err := hist.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
}

// ✅ 测试手牌中途离座：弃牌并直接结束
func TestGameManagerLeaveMidHand(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t, 10)

	require.NoError(t, mgr.Join("a", 100, nil))
	require.NoError(t, mgr.Join("b", 100, nil))
	require.NoError(t, mgr.StartHand())

	_, err := mgr.Submit(ctx, "a", player.Decision{Action: player.Call})
	require.NoError(t, err)

	chips, err := mgr.Leave(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 100, chips)

	res := mgr.LastResult()
	require.NotNil(t, res)
	assert.True(t, res.ByFold)
	assert.Equal(t, []string{"a"}, res.Winners)
	assert.Equal(t, map[string]int{"a": 100}, mgr.Chips())

	_, err = mgr.Leave(ctx, "b")
	assert.True(t, errs.IsValidation(err))
}

// ✅ 测试盲注只能在两手之间修改
func TestGameManagerSetBlinds(t *testing.T) {
	mgr, _, _ := newManager(t, 10)

	require.NoError(t, mgr.Join("a", 100, nil))
	require.NoError(t, mgr.Join("b", 100, nil))
	require.NoError(t, mgr.StartHand())

	assert.True(t, errs.IsState(mgr.SetBlinds(20)))
	assert.Equal(t, 10, mgr.Blinds())

	err := mgr.StartHand()
	assert.True(t, errs.IsState(err), "hand already running: %v", err)
}

// ✅ 测试没有决策源时 PlayHand 报错
func TestGameManagerMissingProvider(t *testing.T) {
	mgr, _, _ := newManager(t, 10)

	require.NoError(t, mgr.Join("a", 100, nil))
	require.NoError(t, mgr.Join("b", 100, bot.CallingStation{}))

	_, err := mgr.PlayHand(context.Background())
	assert.ErrorContains(t, err, "no decision provider for a")
}

// ✅ 测试并发读取状态与打牌
func TestGameManagerConcurrency(t *testing.T) {
	ctx := context.Background()
	// 盲注为 0：只有筹码归零才离座，总数守恒
	mgr, _, _ := newManager(t, 0)

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, mgr.Join(id, 200, bot.NewRandom(int64(i+1), 3)))
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = mgr.State()
					_ = mgr.Chips()
				}
			}
		}()
	}

	_, err := mgr.Play(ctx, 10)
	close(stop)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 800, total(mgr.Chips()))
}

func TestGameManagerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mgr, _, _ := newManager(t, 10)

	require.NoError(t, mgr.Join("a", 100, bot.CallingStation{}))
	require.NoError(t, mgr.Join("b", 100, bot.CallingStation{}))

	cancel()
	_, err := mgr.PlayHand(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// ✅ 测试中途取消：本手退还筹码，桌子可以继续开局
func TestGameManagerCancelledMidHandResumes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr, h, hist := newManager(t, 10)

	// b 跟注后取消：a、b 都已投入 10
	cancelling := engine.DecisionFunc(func(context.Context, engine.State, string) (player.Decision, error) {
		cancel()
		return player.Decision{Action: player.Call}, nil
	})

	require.NoError(t, mgr.Join("a", 100, bot.CallingStation{}))
	require.NoError(t, mgr.Join("b", 100, cancelling))
	require.NoError(t, mgr.Join("c", 100, bot.CallingStation{}))

	_, err := mgr.PlayHand(ctx)
	require.ErrorIs(t, err, context.Canceled)

	st := mgr.State()
	assert.Equal(t, engine.Idle, st.Phase)
	assert.Equal(t, 0, st.Pool.Total)
	assert.Equal(t, map[string]int{"a": 100, "b": 100, "c": 100}, mgr.Chips())
	assert.NotEmpty(t, h.events(hub.EventAborted))

	cnt, err := hist.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), cnt, "aborted hands are not recorded")

	res, err := mgr.PlayHand(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 300, total(mgr.Chips()))

	results, err := mgr.Play(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

// ✅ 测试缺少决策源的手牌被中止，补上后可继续
func TestGameManagerMissingProviderAborts(t *testing.T) {
	mgr, _, _ := newManager(t, 10)

	require.NoError(t, mgr.Join("a", 100, nil))
	require.NoError(t, mgr.Join("b", 100, bot.CallingStation{}))

	_, err := mgr.PlayHand(context.Background())
	require.Error(t, err)
	assert.Equal(t, engine.Idle, mgr.State().Phase)

	_, err = mgr.Leave(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, mgr.Join("a", 100, bot.CallingStation{}))

	_, err = mgr.PlayHand(context.Background())
	assert.NoError(t, err)
}

// ✅ 测试一直看牌的玩家：第一次免费，之后计为无效决策并弃牌
func TestGameManagerRepeatedPeekFolds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mgr, h, _ := newManager(t, 10)

	var peeks int
	peeker := engine.DecisionFunc(func(context.Context, engine.State, string) (player.Decision, error) {
		peeks++
		return player.Decision{Action: player.Peek}, nil
	})

	require.NoError(t, mgr.Join("alice", 100, peeker))
	require.NoError(t, mgr.Join("bob", 100, bot.CallingStation{}))

	res, err := mgr.PlayHand(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1+DefaultAttempts, peeks)
	assert.True(t, res.ByFold)
	assert.Equal(t, []string{"bob"}, res.Winners)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Len(t, h.sentToPlayer["alice"], 1+1+DefaultAttempts, "deal_hole plus one message per peek")
}

// ✅ 测试看一次牌后正常行动
func TestGameManagerPeekThenCall(t *testing.T) {
	mgr, _, _ := newManager(t, 10)

	peek := player.Decision{Action: player.Peek}
	script := bot.NewScripted().Push("a", peek, player.Decision{Action: player.Call})

	require.NoError(t, mgr.Join("a", 100, script))
	require.NoError(t, mgr.Join("b", 100, bot.CallingStation{}))

	res, err := mgr.PlayHand(context.Background())
	require.NoError(t, err)
	assert.False(t, res.ByFold)
	assert.Equal(t, 0, script.Remaining("a"))
	assert.Equal(t, 200, total(mgr.Chips()))
}
