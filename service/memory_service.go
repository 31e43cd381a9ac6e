package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"lotto/events"
	"lotto/ledger"
	"lotto/lottery"
	"lotto/models"
)

// MemoryService runs the lottery in process on top of an in-memory ledger.
// State is lost on restart.
type MemoryService struct {
	mu       sync.Mutex
	minStake *big.Int
	ledger   *ledger.Memory
	events   EventPublisher
	opts     options
	lot      *lottery.Lottery
	history  map[common.Address][]*models.BalanceHistory
}

var (
	_ LotteryService = (*MemoryService)(nil)
	_ AccountService = (*MemoryService)(nil)
)

// NewMemoryService creates an undeployed in-memory lottery
func NewMemoryService(minStake *big.Int, l *ledger.Memory, publisher EventPublisher, opts ...Option) *MemoryService {
	return &MemoryService{
		minStake: new(big.Int).Set(minStake),
		ledger:   l,
		events:   publisher,
		opts:     buildOptions(opts),
		history:  make(map[common.Address][]*models.BalanceHistory),
	}
}

func (s *MemoryService) Deploy(_ context.Context, manager common.Address) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lot != nil {
		return nil, ErrAlreadyDeployed
	}
	s.lot = lottery.New(manager, s.minStake, s.ledger,
		lottery.WithSelector(s.opts.selector),
		lottery.WithClock(s.opts.clock),
	)

	log.WithField("manager", manager.Hex()).Info("In-memory lottery deployed")
	return stateFromSnapshot(s.lot.Snapshot()), nil
}

func (s *MemoryService) Enter(ctx context.Context, caller common.Address, stake *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lot == nil {
		return s.fail(ctx, "enter", ErrNotDeployed)
	}

	if err := s.lot.Enter(ctx, caller, stake); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			err = fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
		}
		return s.fail(ctx, "enter", err)
	}

	snap := s.lot.Snapshot()
	after := s.ledger.BalanceOf(caller)
	s.record(caller, new(big.Int).Add(after, stake), after, new(big.Int).Neg(stake), models.TransactionTypeStake)
	s.events.Publish(events.EntryAdmittedEvent{
		Round:     int64(snap.Round),
		Position:  len(snap.Players) - 1,
		Address:   caller,
		Stake:     new(big.Int).Set(stake),
		PoolSize:  len(snap.Players),
		PoolValue: snap.Balance,
	})
	return nil
}

func (s *MemoryService) PickWinner(ctx context.Context, caller common.Address) (*lottery.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lot == nil {
		return nil, s.fail(ctx, "pick_winner", ErrNotDeployed)
	}

	result, err := s.lot.PickWinner(ctx, caller)
	if err != nil {
		if errors.Is(err, ledger.ErrPaymentRejected) {
			err = fmt.Errorf("%w: %w", ErrPaymentRejected, err)
		}
		return nil, s.fail(ctx, "pick_winner", err)
	}

	after := s.ledger.BalanceOf(result.Winner)
	s.record(result.Winner, new(big.Int).Sub(after, result.Payout), after, result.Payout, models.TransactionTypePayout)
	s.events.Publish(events.WinnerPickedEvent{
		Round:       int64(result.Round),
		Winner:      result.Winner,
		Payout:      new(big.Int).Set(result.Payout),
		EntrantSize: result.EntrantSize,
		Seed:        result.Seed,
		PickedBy:    caller,
	})

	log.WithFields(log.Fields{
		"round":  result.Round,
		"winner": result.Winner.Hex(),
		"payout": result.Payout.String(),
	}).Info("Winner picked")

	return result, nil
}

func (s *MemoryService) GetPlayers(ctx context.Context) ([]common.Address, error) {
	state, err := s.GetState(ctx)
	if err != nil {
		return nil, err
	}
	return state.Players, nil
}

func (s *MemoryService) GetState(context.Context) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lot == nil {
		return nil, ErrNotDeployed
	}
	return stateFromSnapshot(s.lot.Snapshot()), nil
}

func (s *MemoryService) ListRounds(_ context.Context, limit int) ([]*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lot == nil {
		return []*models.Round{}, nil
	}

	manager := s.lot.Snapshot().Manager
	results := s.lot.History(listLimit(limit))
	rounds := make([]*models.Round, 0, len(results))
	for _, r := range results {
		rounds = append(rounds, &models.Round{
			Round:       int64(r.Round),
			Winner:      r.Winner,
			Payout:      r.Payout,
			EntrantSize: r.EntrantSize,
			WinnerIndex: r.Index,
			Seed:        r.Seed,
			PickedBy:    manager,
			CreatedAt:   r.PickedAt,
		})
	}
	return rounds, nil
}

func (s *MemoryService) Fund(_ context.Context, address common.Address, amount *big.Int) (*models.Account, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.ledger.Fund(address, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to fund account: %w", err)
	}
	s.record(address, new(big.Int).Sub(balance, amount), balance, amount, models.TransactionTypeDeposit)

	return s.account(address), nil
}

func (s *MemoryService) GetAccount(_ context.Context, address common.Address) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account(address), nil
}

func (s *MemoryService) SetAcceptsPayments(_ context.Context, address common.Address, accepts bool) error {
	s.ledger.RejectPayments(address, !accepts)
	return nil
}

func (s *MemoryService) History(_ context.Context, address common.Address, limit int) ([]*models.BalanceHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.history[address]
	limit = listLimit(limit)
	out := make([]*models.BalanceHistory, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *MemoryService) account(address common.Address) *models.Account {
	return &models.Account{
		Address:         address,
		Balance:         s.ledger.BalanceOf(address),
		AcceptsPayments: s.ledger.AcceptsPayments(address),
	}
}

// record mirrors RecordBalanceChange for the in-memory ledger
func (s *MemoryService) record(address common.Address, before, after, change *big.Int, txType models.TransactionType) {
	h := &models.BalanceHistory{
		ID:              int64(len(s.history[address]) + 1),
		Address:         address,
		BalanceBefore:   before,
		BalanceAfter:    after,
		ChangeAmount:    new(big.Int).Set(change),
		TransactionType: txType,
		CreatedAt:       s.opts.clock.Now(),
	}
	s.history[address] = append(s.history[address], h)

	s.events.Publish(events.BalanceChangeEvent{
		Address:         address,
		OldBalance:      before,
		NewBalance:      after,
		TransactionType: txType,
		ChangeAmount:    h.ChangeAmount,
	})
}

func (s *MemoryService) fail(ctx context.Context, operation string, err error) error {
	s.opts.failures.RecordFailure(ctx, operation, err)
	return err
}

func stateFromSnapshot(snap lottery.Snapshot) *GameState {
	return &GameState{
		Manager:  snap.Manager,
		MinStake: snap.MinStake,
		Balance:  snap.Balance,
		Round:    int64(snap.Round),
		Players:  snap.Players,
	}
}
