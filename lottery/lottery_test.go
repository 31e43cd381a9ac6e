package lottery_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotto/ledger"
	"lotto/lottery"
)

var (
	manager = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol   = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func fundedLedger(t *testing.T, amount string, who ...common.Address) *ledger.Memory {
	t.Helper()
	l := ledger.NewMemory()
	for _, addr := range who {
		_, err := l.Fund(addr, lottery.Ether(amount))
		require.NoError(t, err)
	}
	return l
}

func TestLottery_EnterMovesFundsIntoPool(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	escrow := fundedLedger(t, "1", alice, bob)
	lot := lottery.New(manager, lottery.Ether("0.01"), escrow)

	require.NoError(t, lot.Enter(ctx, alice, lottery.Ether("0.02")))
	require.NoError(t, lot.Enter(ctx, bob, lottery.Ether("0.03")))

	snap := lot.Snapshot()
	assert.Equal(t, []common.Address{alice, bob}, snap.Players)
	assert.Equal(t, lottery.Ether("0.05").String(), snap.Balance.String())
	assert.Equal(t, manager, snap.Manager)
	assert.Equal(t, uint64(1), snap.Round)
	assert.Equal(t, lottery.Ether("0.98").String(), escrow.BalanceOf(alice).String())
	assert.Equal(t, lottery.Ether("0.97").String(), escrow.BalanceOf(bob).String())
}

func TestLottery_EnterInsufficientStakeTakesNothing(t *testing.T) {
	t.Parallel()

	escrow := fundedLedger(t, "1", alice)
	lot := lottery.New(manager, lottery.Ether("0.01"), escrow)

	err := lot.Enter(context.Background(), alice, big.NewInt(0))

	assert.ErrorIs(t, err, lottery.ErrInsufficientStake)
	assert.Empty(t, lot.Players())
	assert.Equal(t, lottery.Ether("1").String(), escrow.BalanceOf(alice).String())
}

func TestLottery_EnterWithoutFundsIsRejected(t *testing.T) {
	t.Parallel()

	lot := lottery.New(manager, lottery.Ether("0.01"), ledger.NewMemory())

	err := lot.Enter(context.Background(), alice, lottery.Ether("0.02"))

	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Empty(t, lot.Players())
	assert.Equal(t, "0", lot.Snapshot().Balance.String())
}

// Scenario: two entrants, the manager draws, the winner receives the pool.
func TestLottery_PickWinnerPaysWinner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	escrow := fundedLedger(t, "1", alice, bob)
	mClock := quartz.NewMock(t)
	mClock.Set(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)).MustWait(ctx)
	lot := lottery.New(manager, lottery.Ether("0.01"), escrow, lottery.WithClock(mClock))

	require.NoError(t, lot.Enter(ctx, alice, lottery.Ether("0.02")))
	require.NoError(t, lot.Enter(ctx, bob, lottery.Ether("0.02")))

	result, err := lot.PickWinner(ctx, manager)
	require.NoError(t, err)

	assert.Contains(t, []common.Address{alice, bob}, result.Winner)
	assert.Equal(t, lottery.Ether("0.04").String(), result.Payout.String())
	assert.Equal(t, mClock.Now(), result.PickedAt)
	assert.Equal(t, lottery.Ether("1.02").String(), escrow.BalanceOf(result.Winner).String())

	snap := lot.Snapshot()
	assert.Empty(t, snap.Players)
	assert.Equal(t, "0", snap.Balance.String())
	assert.Equal(t, uint64(2), snap.Round)
}

func TestLottery_PickWinnerUnauthorized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	escrow := fundedLedger(t, "1", alice)
	lot := lottery.New(manager, lottery.Ether("0.01"), escrow)
	require.NoError(t, lot.Enter(ctx, alice, lottery.Ether("0.02")))

	result, err := lot.PickWinner(ctx, alice)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, lottery.ErrUnauthorized)
	assert.Equal(t, []common.Address{alice}, lot.Players())
	assert.Equal(t, lottery.Ether("0.02").String(), lot.Snapshot().Balance.String())
}

func TestLottery_PickWinnerEmptyPool(t *testing.T) {
	t.Parallel()

	lot := lottery.New(manager, lottery.Ether("0.01"), ledger.NewMemory())

	_, err := lot.PickWinner(context.Background(), manager)

	assert.ErrorIs(t, err, lottery.ErrEmptyPool)
	assert.Empty(t, lot.History(0))
}

func TestLottery_PickWinnerRejectedPaymentLeavesPool(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	escrow := fundedLedger(t, "1", alice)
	escrow.RejectPayments(alice, true)
	lot := lottery.New(manager, lottery.Ether("0.01"), escrow)
	require.NoError(t, lot.Enter(ctx, alice, lottery.Ether("0.02")))

	_, err := lot.PickWinner(ctx, manager)

	assert.ErrorIs(t, err, lottery.ErrTransferFailure)
	assert.ErrorIs(t, err, ledger.ErrPaymentRejected)
	assert.Equal(t, []common.Address{alice}, lot.Players())
	assert.Equal(t, lottery.Ether("0.02").String(), lot.Snapshot().Balance.String())

	escrow.RejectPayments(alice, false)
	result, err := lot.PickWinner(ctx, manager)
	require.NoError(t, err)
	assert.Equal(t, alice, result.Winner)
	assert.Equal(t, lottery.Ether("1").String(), escrow.BalanceOf(alice).String())
}

func TestLottery_HistoryNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	escrow := fundedLedger(t, "1", alice, bob, carol)
	lot := lottery.New(manager, lottery.Ether("0.01"), escrow)

	for _, who := range []common.Address{alice, bob, carol} {
		require.NoError(t, lot.Enter(ctx, who, lottery.Ether("0.02")))
		_, err := lot.PickWinner(ctx, manager)
		require.NoError(t, err)
	}

	history := lot.History(0)
	require.Len(t, history, 3)
	assert.Equal(t, uint64(3), history[0].Round)
	assert.Equal(t, carol, history[0].Winner)
	assert.Equal(t, uint64(1), history[2].Round)
	assert.Equal(t, alice, history[2].Winner)

	assert.Len(t, lot.History(2), 2)
}

func TestLottery_ConcurrentEntriesConserveValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	players := make([]common.Address, 25)
	for i := range players {
		players[i] = common.BigToAddress(big.NewInt(int64(1000 + i)))
	}
	escrow := fundedLedger(t, "1", players...)
	lot := lottery.New(manager, lottery.Ether("0.01"), escrow)

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func(addr common.Address) {
			defer wg.Done()
			assert.NoError(t, lot.Enter(ctx, addr, lottery.Ether("0.1")))
		}(p)
	}
	wg.Wait()

	snap := lot.Snapshot()
	assert.Len(t, snap.Players, len(players))
	assert.Equal(t, lottery.Ether("2.5").String(), snap.Balance.String())

	result, err := lot.PickWinner(ctx, manager)
	require.NoError(t, err)

	total := new(big.Int)
	for _, p := range players {
		total.Add(total, escrow.BalanceOf(p))
	}
	assert.Equal(t, lottery.Ether("25").String(), total.String())
	assert.Equal(t, lottery.Ether("3.4").String(), escrow.BalanceOf(result.Winner).String())
}
