package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HoldemCore/internal/game/errs"
)

func TestNewChips(t *testing.T) {
	c, err := NewChips(100)
	require.NoError(t, err)
	assert.Equal(t, 100, c.Value())
	assert.Equal(t, 100, c.Stake())

	_, err = NewChips(-5)
	assert.True(t, errs.IsValidation(err))
}

// ✅ draft / confirm / cancel 不改变 value + betFinal
func TestChips_DraftConfirmCancel(t *testing.T) {
	c, err := NewChips(100)
	require.NoError(t, err)

	require.NoError(t, c.Draft(30))
	assert.Equal(t, 30, c.BetDraft())
	assert.Equal(t, 100, c.Value()+c.BetFinal())

	c.CancelDraft()
	assert.Equal(t, 0, c.BetDraft())
	assert.Equal(t, 100, c.Value())

	require.NoError(t, c.Draft(40))
	require.NoError(t, c.Draft(20))
	assert.Equal(t, 20, c.Confirm())
	assert.Equal(t, 80, c.Value())
	assert.Equal(t, 20, c.BetFinal())
	assert.Equal(t, 100, c.Value()+c.BetFinal())

	assert.Equal(t, 0, c.Confirm())
}

func TestChips_DraftValidation(t *testing.T) {
	c, err := NewChips(50)
	require.NoError(t, err)

	assert.True(t, errs.IsValidation(c.Draft(-1)))
	assert.True(t, errs.IsValidation(c.Draft(51)))
	assert.Equal(t, 0, c.BetDraft())

	require.NoError(t, c.Draft(50))
}

func TestChips_ResetRound(t *testing.T) {
	c, err := NewChips(100)
	require.NoError(t, err)
	require.NoError(t, c.Draft(10))
	c.Confirm()
	require.NoError(t, c.Draft(5))

	c.ResetRound()
	assert.Equal(t, 10, c.LastBet())
	assert.Equal(t, 0, c.BetFinal())
	assert.Equal(t, 0, c.BetDraft())
	assert.Equal(t, 90, c.Value())
}

func TestChips_CreditRefund(t *testing.T) {
	c, err := NewChips(100)
	require.NoError(t, err)
	require.NoError(t, c.Draft(25))
	c.Confirm()

	require.NoError(t, c.Refund(25))
	assert.Equal(t, 100, c.Value())
	assert.Equal(t, 0, c.BetFinal())

	require.NoError(t, c.Credit(40))
	assert.Equal(t, 140, c.Value())
	assert.True(t, errs.IsValidation(c.Credit(-1)))
}

// ✅ 筹码守恒: Σ value + pool.Total 在整手牌中保持不变
func TestConservation(t *testing.T) {
	p := newPool(t, 10, "a", "b")
	wallets := map[string]*Chips{}
	for _, id := range []string{"a", "b"} {
		c, err := NewChips(100)
		require.NoError(t, err)
		wallets[id] = c
	}

	sum := func() int {
		s := p.Total()
		for _, c := range wallets {
			s += c.Value()
		}
		return s
	}

	bet := func(id string, amount int) {
		require.NoError(t, wallets[id].Draft(amount))
		require.NoError(t, p.AddBet(id, amount))
		wallets[id].Confirm()
		assert.Equal(t, 200, sum())
	}

	bet("a", p.Owed("a"))
	bet("b", p.Owed("b"))
	p.ResetRound()
	for _, c := range wallets {
		c.ResetRound()
	}

	require.NoError(t, p.RaiseCall(40))
	bet("a", 40)
	bet("b", p.Owed("b"))

	payouts, err := p.Payout([]string{"b"})
	require.NoError(t, err)
	for id, amt := range payouts {
		require.NoError(t, wallets[id].Credit(amt))
	}

	assert.Equal(t, 200, wallets["a"].Value()+wallets["b"].Value())
	assert.Equal(t, 150, wallets["b"].Value())
}
