package history

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HoldemCore/internal/game/deck"
	"HoldemCore/internal/game/engine"
	"HoldemCore/internal/game/handrank"
	"HoldemCore/internal/game/player"
	"HoldemCore/internal/hub"
)

// MockHub 用于捕获 BroadcastToPlayers 的调用
type MockHub struct {
	mu   sync.Mutex
	msgs map[string]hub.OutgoingMessage
}

func NewMockHub() *MockHub {
	return &MockHub{msgs: make(map[string]hub.OutgoingMessage)}
}

func (m *MockHub) BroadcastToPlayers(ids []string, msg hub.OutgoingMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.msgs[id] = msg
	}
}

func (m *MockHub) GetMsg(id string) (hub.OutgoingMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msgs[id]
	return msg, ok
}

func showdownResult(n int) *engine.Result {
	board := deck.MustParseCards("Qh,Jh,10h,5s,3c")
	alice := deck.MustParseCards("Ah,Kh")
	bob := deck.MustParseCards("2c,2d")

	return &engine.Result{
		HandID:    uuid.NewString(),
		Hand:      n,
		TableID:   "table-1",
		Players:   []string{"alice", "bob"},
		Community: board,
		Winners:   []string{"alice"},
		Pot:       40,
		Payouts:   map[string]int{"alice": 40},
		Standings: []engine.Standing{
			{PlayerID: "alice", Hand: alice, Score: handrank.MustEvaluate(append(append([]deck.Card(nil), alice...), board...))},
			{PlayerID: "bob", Hand: bob, Score: handrank.MustEvaluate(append(append([]deck.Card(nil), bob...), board...))},
		},
		Actions: []engine.ActionRecord{
			{Player: "alice", Phase: engine.Preflop, Action: player.Raise, Amount: 20, CallValue: 20},
			{Player: "bob", Phase: engine.Preflop, Action: player.Call, Amount: 20, CallValue: 20},
		},
		StartedAt: time.Now().Add(-time.Second).UTC().Truncate(time.Millisecond),
		EndedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestFromResult(t *testing.T) {
	res := showdownResult(1)
	rec := FromResult(res)

	assert.Equal(t, res.HandID, rec.ID)
	assert.Equal(t, 40, rec.Pot)
	assert.Equal(t, []string{"alice"}, rec.Winners)
	require.Len(t, rec.Actions, 2)
	assert.Equal(t, ActionEntry{Player: "alice", Phase: "preflop", Action: "RAISE", Amount: 20, CallValue: 20}, rec.Actions[0])
	require.Len(t, rec.Standings, 2)
	assert.Equal(t, "royal flush", rec.Standings[0].Hand)
	assert.Len(t, rec.Standings[0].Best, 5)

	res.Payouts["alice"] = 0
	assert.Equal(t, 40, rec.Payouts["alice"], "record owns its maps")
}

// ---------- 内存实现测试 ----------
func Test_MemoryRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo(3)

	var ids []string
	for i := 1; i <= 5; i++ {
		rec := FromResult(showdownResult(i))
		ids = append(ids, rec.ID)
		require.NoError(t, repo.Append(ctx, rec))
	}

	cnt, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cnt)

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, 5, recent[0].Hand)
	assert.Equal(t, 3, recent[2].Hand)

	_, err = repo.Get(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)

	rec, err := repo.Get(ctx, ids[4])
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Hand)
}

// ---------- Redis（miniredis）实现测试 ----------
func Test_RedisRepo(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewRedisRepo(rdb, 3, 0)

	var recs []*HandRecord
	for i := 1; i <= 5; i++ {
		rec := FromResult(showdownResult(i))
		recs = append(recs, rec)
		require.NoError(t, repo.Append(ctx, rec))
	}

	cnt, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cnt)

	// 被挤出的记录应删除
	assert.False(t, mr.Exists(handKey(recs[0].ID)))
	assert.False(t, mr.Exists(handKey(recs[1].ID)))
	assert.True(t, mr.Exists(handKey(recs[4].ID)))

	_, err = repo.Get(ctx, recs[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.Get(ctx, recs[4].ID)
	require.NoError(t, err)
	assert.Equal(t, recs[4].ID, got.ID)
	assert.Equal(t, recs[4].Community, got.Community)
	assert.True(t, recs[4].EndedAt.Equal(got.EndedAt))
	assert.Equal(t, recs[4].Actions, got.Actions)

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 5, recent[0].Hand)
	assert.Equal(t, 4, recent[1].Hand)

	empty, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func Test_RedisRepo_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewRedisRepo(rdb, 10, time.Hour)

	a := FromResult(showdownResult(1))
	b := FromResult(showdownResult(2))
	require.NoError(t, repo.Append(ctx, a))
	require.NoError(t, repo.Append(ctx, b))

	mr.FastForward(2 * time.Hour)

	// 列表仍在，但记录已过期
	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
	_, err = repo.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Record(t *testing.T) {
	ctx := context.Background()
	h := NewMockHub()
	svc := NewService(NewMemoryRepo(0), h, log.New(io.Discard))

	rec, err := svc.Record(ctx, showdownResult(1))
	require.NoError(t, err)

	for _, p := range []string{"alice", "bob"} {
		msg, ok := h.GetMsg(p)
		require.True(t, ok, "player %s should have received a message", p)
		assert.Equal(t, hub.EventHandRecorded, msg.Event)
	}

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	cnt, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)

	_, err = svc.Record(ctx, nil)
	assert.Error(t, err)
}

type failingRepo struct{ Repo }

func (failingRepo) Append(context.Context, *HandRecord) error {
	return fmt.Errorf("redis down")
}

func TestService_RecordError(t *testing.T) {
	h := NewMockHub()
	svc := NewService(failingRepo{NewMemoryRepo(0)}, h, log.New(io.Discard))

	_, err := svc.Record(context.Background(), showdownResult(1))
	assert.EqualError(t, err, "redis down")
	_, ok := h.GetMsg("alice")
	assert.False(t, ok)
}
