package lottery

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	manager = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol   = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

// recordingTransferrer captures transfers
type recordingTransferrer struct {
	transfers map[common.Address]*big.Int
}

func newRecordingTransferrer() *recordingTransferrer {
	return &recordingTransferrer{transfers: make(map[common.Address]*big.Int)}
}

func (r *recordingTransferrer) Transfer(_ context.Context, to common.Address, amount *big.Int) error {
	prev, ok := r.transfers[to]
	if !ok {
		prev = new(big.Int)
	}
	r.transfers[to] = new(big.Int).Add(prev, amount)
	return nil
}

// fixedSelector always returns the same index
type fixedSelector int

func (f fixedSelector) Select(in Entropy) (Selection, error) {
	if len(in.Players) == 0 {
		return Selection{}, ErrEmptyPool
	}
	return Selection{Index: int(f)}, nil
}

func assertWei(t *testing.T, expected, actual *big.Int) {
	t.Helper()
	if assert.NotNil(t, actual) {
		assert.Equal(t, expected.String(), actual.String())
	}
}

func newTestGame() *Game {
	return NewGame(manager, Ether("0.01"))
}

func TestGame_Enter_SingleEntrant(t *testing.T) {
	t.Parallel()

	game := newTestGame()
	require.NoError(t, game.Enter(alice, Ether("0.02")))

	players := game.Players()
	assert.Equal(t, []common.Address{alice}, players)
	assert.Len(t, players, 1)
	assertWei(t, Ether("0.02"), game.Balance())
}

func TestGame_Enter_MultipleEntrantsKeepOrder(t *testing.T) {
	t.Parallel()

	game := newTestGame()
	for _, who := range []common.Address{alice, bob, carol} {
		require.NoError(t, game.Enter(who, Ether("0.02")))
	}

	assert.Equal(t, []common.Address{alice, bob, carol}, game.Players())
	assertWei(t, Ether("0.06"), game.Balance())
}

func TestGame_Enter_DuplicatesAreKept(t *testing.T) {
	t.Parallel()

	game := newTestGame()
	require.NoError(t, game.Enter(alice, Ether("0.02")))
	require.NoError(t, game.Enter(bob, Ether("0.02")))
	require.NoError(t, game.Enter(alice, Ether("0.05")))

	assert.Equal(t, []common.Address{alice, bob, alice}, game.Players())
	assertWei(t, Ether("0.09"), game.Balance())
}

func TestGame_Enter_InsufficientStake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stake *big.Int
	}{
		{name: "zero stake", stake: big.NewInt(0)},
		{name: "nil stake", stake: nil},
		{name: "negative stake", stake: big.NewInt(-1)},
		{name: "one wei below minimum", stake: new(big.Int).Sub(Ether("0.01"), big.NewInt(1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			game := newTestGame()
			require.NoError(t, game.Enter(bob, Ether("0.02")))

			err := game.Enter(alice, tt.stake)
			assert.ErrorIs(t, err, ErrInsufficientStake)
			assert.Equal(t, []common.Address{bob}, game.Players())
			assertWei(t, Ether("0.02"), game.Balance())
		})
	}
}

func TestGame_Enter_ExactMinimumIsAdmitted(t *testing.T) {
	t.Parallel()

	game := newTestGame()
	assert.NoError(t, game.Enter(alice, Ether("0.01")))
	assert.Equal(t, 1, len(game.Players()))
}

func TestGame_PickWinner_Unauthorized(t *testing.T) {
	t.Parallel()

	game := newTestGame()
	require.NoError(t, game.Enter(alice, Ether("0.02")))
	transferrer := newRecordingTransferrer()

	result, err := game.PickWinner(context.Background(), bob, time.Now(), NewKeccakSelector(), transferrer)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, result)
	assert.Equal(t, []common.Address{alice}, game.Players())
	assertWei(t, Ether("0.02"), game.Balance())
	assert.Empty(t, transferrer.transfers)
	assert.Equal(t, uint64(1), game.Round())
}

func TestGame_PickWinner_EmptyPool(t *testing.T) {
	t.Parallel()

	game := newTestGame()
	transferrer := newRecordingTransferrer()

	result, err := game.PickWinner(context.Background(), manager, time.Now(), NewKeccakSelector(), transferrer)

	assert.ErrorIs(t, err, ErrEmptyPool)
	assert.Nil(t, result)
	assert.Empty(t, transferrer.transfers)
}

func TestGame_PickWinner_PaysWholeBalanceAndResets(t *testing.T) {
	t.Parallel()

	game := newTestGame()
	require.NoError(t, game.Enter(alice, Ether("2")))
	transferrer := newRecordingTransferrer()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	result, err := game.PickWinner(context.Background(), manager, now, NewKeccakSelector(), transferrer)
	require.NoError(t, err)

	assert.Equal(t, alice, result.Winner)
	assertWei(t, Ether("2"), result.Payout)
	assert.Equal(t, uint64(1), result.Round)
	assert.Equal(t, 1, result.EntrantSize)
	assert.Equal(t, now, result.PickedAt)
	assertWei(t, Ether("2"), transferrer.transfers[alice])

	assert.Empty(t, game.Players())
	assert.Equal(t, 0, game.Balance().Sign())
	assert.Equal(t, uint64(2), game.Round())
}

func TestGame_PickWinner_WinnerIsMember(t *testing.T) {
	t.Parallel()

	entrants := []common.Address{alice, bob, carol, bob}
	for i := 0; i < 20; i++ {
		game := newTestGame()
		for _, who := range entrants {
			require.NoError(t, game.Enter(who, Ether("0.02")))
		}

		now := time.Unix(int64(1700000000+i*13), 0)
		result, err := game.PickWinner(context.Background(), manager, now, NewKeccakSelector(), newRecordingTransferrer())
		require.NoError(t, err)

		assert.Contains(t, entrants, result.Winner)
		assert.Equal(t, entrants[result.Index], result.Winner)
		assertWei(t, Ether("0.08"), result.Payout)
		assert.Empty(t, game.Players())
	}
}

func TestGame_PickWinner_TransferFailureLeavesPoolIntact(t *testing.T) {
	t.Parallel()

	game := newTestGame()
	require.NoError(t, game.Enter(alice, Ether("0.02")))
	require.NoError(t, game.Enter(bob, Ether("0.03")))

	cause := errors.New("recipient rejected value")
	var attempted common.Address
	rejecting := TransferFunc(func(_ context.Context, to common.Address, _ *big.Int) error {
		attempted = to
		return cause
	})

	result, err := game.PickWinner(context.Background(), manager, time.Now(), fixedSelector(1), rejecting)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrTransferFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, bob, attempted)
	assert.Equal(t, []common.Address{alice, bob}, game.Players())
	assertWei(t, Ether("0.05"), game.Balance())
	assert.Equal(t, uint64(1), game.Round())
}

func TestGame_PickWinner_IndexOutOfRange(t *testing.T) {
	t.Parallel()

	game := newTestGame()
	require.NoError(t, game.Enter(alice, Ether("0.02")))
	require.NoError(t, game.Enter(bob, Ether("0.03")))
	transferrer := newRecordingTransferrer()

	result, err := game.PickWinner(context.Background(), manager, time.Now(), fixedSelector(5), transferrer)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
	assert.NotErrorIs(t, err, ErrTransferFailure)
	assert.Empty(t, transferrer.transfers)
	assert.Equal(t, []common.Address{alice, bob}, game.Players())
	assertWei(t, Ether("0.05"), game.Balance())
	assert.Equal(t, uint64(1), game.Round())
}

func TestGame_PickWinner_NewRoundAcceptsEntries(t *testing.T) {
	t.Parallel()

	game := newTestGame()
	require.NoError(t, game.Enter(alice, Ether("0.02")))
	_, err := game.PickWinner(context.Background(), manager, time.Now(), fixedSelector(0), newRecordingTransferrer())
	require.NoError(t, err)

	require.NoError(t, game.Enter(bob, Ether("0.02")))
	assert.Equal(t, []common.Address{bob}, game.Players())
	assertWei(t, Ether("0.02"), game.Balance())
}

func TestRestoreGame(t *testing.T) {
	t.Parallel()

	game := RestoreGame(manager, Ether("0.01"), 7, []common.Address{alice, bob}, Ether("0.04"))

	assert.Equal(t, manager, game.Manager())
	assert.True(t, game.IsManager(manager))
	assert.False(t, game.IsManager(alice))
	assert.Equal(t, uint64(7), game.Round())
	assert.Equal(t, []common.Address{alice, bob}, game.Players())
	assertWei(t, Ether("0.04"), game.Balance())
	assertWei(t, Ether("0.01"), game.MinStake())
}
