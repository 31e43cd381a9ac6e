package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lotto/events"
	"lotto/ledger"
	"lotto/lottery"
	"lotto/models"
)

type memoryFixture struct {
	svc      *MemoryService
	ledger   *ledger.Memory
	bus      *MockEventPublisher
	failures *MockFailureRecorder
}

func newMemoryFixture(t *testing.T, selector lottery.Selector) *memoryFixture {
	f := &memoryFixture{
		ledger:   ledger.NewMemory(),
		bus:      new(MockEventPublisher),
		failures: new(MockFailureRecorder),
	}
	f.bus.On("Publish", mock.Anything).Return()
	f.svc = NewMemoryService(lottery.Ether("0.01"), f.ledger, f.bus,
		WithSelector(selector),
		WithFailureRecorder(f.failures),
	)
	_, err := f.svc.Deploy(context.Background(), manager)
	require.NoError(t, err)
	return f
}

func TestMemoryService_FullRound(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture(t, fixedSelector(1))

	_, err := f.svc.Fund(ctx, alice, lottery.Ether("1"))
	require.NoError(t, err)
	_, err = f.svc.Fund(ctx, bob, lottery.Ether("1"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Enter(ctx, alice, lottery.Ether("0.02")))
	require.NoError(t, f.svc.Enter(ctx, bob, lottery.Ether("0.03")))

	players, err := f.svc.GetPlayers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{alice, bob}, players)

	state, err := f.svc.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, lottery.Ether("0.05").String(), state.Balance.String())
	assert.Equal(t, int64(1), state.Round)

	result, err := f.svc.PickWinner(ctx, manager)
	require.NoError(t, err)
	assert.Equal(t, bob, result.Winner)
	assert.Equal(t, lottery.Ether("1.02").String(), f.ledger.BalanceOf(bob).String())
	assert.Equal(t, lottery.Ether("0.98").String(), f.ledger.BalanceOf(alice).String())

	state, err = f.svc.GetState(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Players)
	assert.Equal(t, "0", state.Balance.String())
	assert.Equal(t, int64(2), state.Round)

	rounds, err := f.svc.ListRounds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, bob, rounds[0].Winner)
	assert.Equal(t, manager, rounds[0].PickedBy)

	history, err := f.svc.History(ctx, bob, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.TransactionTypePayout, history[0].TransactionType)
	assert.Equal(t, models.TransactionTypeStake, history[1].TransactionType)
	assert.Equal(t, models.TransactionTypeDeposit, history[2].TransactionType)
}

func TestMemoryService_DeployTwice(t *testing.T) {
	f := newMemoryFixture(t, fixedSelector(0))

	_, err := f.svc.Deploy(context.Background(), bob)

	assert.ErrorIs(t, err, ErrAlreadyDeployed)
}

func TestMemoryService_NotDeployed(t *testing.T) {
	ctx := context.Background()
	failures := new(MockFailureRecorder)
	failures.On("RecordFailure", ctx, mock.Anything, ErrNotDeployed).Return()
	svc := NewMemoryService(lottery.Ether("0.01"), ledger.NewMemory(), events.NewBus(), WithFailureRecorder(failures))

	assert.ErrorIs(t, svc.Enter(ctx, alice, lottery.Ether("1")), ErrNotDeployed)
	_, err := svc.PickWinner(ctx, manager)
	assert.ErrorIs(t, err, ErrNotDeployed)
	_, err = svc.GetState(ctx)
	assert.ErrorIs(t, err, ErrNotDeployed)

	rounds, err := svc.ListRounds(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rounds)
	failures.AssertNumberOfCalls(t, "RecordFailure", 2)
}

func TestMemoryService_EnterWithoutFunds(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture(t, fixedSelector(0))
	f.failures.On("RecordFailure", ctx, "enter", mock.Anything).Return()

	err := f.svc.Enter(ctx, alice, lottery.Ether("0.02"))

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	players, _ := f.svc.GetPlayers(ctx)
	assert.Empty(t, players)
	f.bus.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestMemoryService_EnterBelowMinimum(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture(t, fixedSelector(0))
	f.failures.On("RecordFailure", ctx, "enter", mock.Anything).Return()
	_, err := f.svc.Fund(ctx, alice, lottery.Ether("1"))
	require.NoError(t, err)

	err = f.svc.Enter(ctx, alice, lottery.Ether("0.005"))

	assert.ErrorIs(t, err, lottery.ErrInsufficientStake)
	assert.Equal(t, lottery.Ether("1").String(), f.ledger.BalanceOf(alice).String())
}

func TestMemoryService_PaymentRejected(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture(t, fixedSelector(0))
	f.failures.On("RecordFailure", ctx, "pick_winner", mock.MatchedBy(func(err error) bool {
		return errors.Is(err, ErrPaymentRejected) && errors.Is(err, lottery.ErrTransferFailure)
	})).Return()

	_, err := f.svc.Fund(ctx, alice, lottery.Ether("1"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Enter(ctx, alice, lottery.Ether("0.5")))
	require.NoError(t, f.svc.SetAcceptsPayments(ctx, alice, false))

	_, err = f.svc.PickWinner(ctx, manager)
	assert.ErrorIs(t, err, ErrPaymentRejected)

	state, err := f.svc.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{alice}, state.Players)
	assert.Equal(t, lottery.Ether("0.5").String(), state.Balance.String())

	account, err := f.svc.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.False(t, account.AcceptsPayments)
	f.failures.AssertExpectations(t)
}

func TestMemoryService_Unauthorized(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture(t, fixedSelector(0))
	f.failures.On("RecordFailure", ctx, "pick_winner", lottery.ErrUnauthorized).Return()

	_, err := f.svc.PickWinner(ctx, alice)

	assert.ErrorIs(t, err, lottery.ErrUnauthorized)
	f.failures.AssertExpectations(t)
}
