package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"lotto/events"
	"lotto/lottery"
	"lotto/models"
)

type lotteryService struct {
	uowFactory UnitOfWorkFactory
	minStake   *big.Int
	opts       options
}

// NewLotteryService creates a lottery service backed by the unit of work
func NewLotteryService(uowFactory UnitOfWorkFactory, minStake *big.Int, opts ...Option) LotteryService {
	return &lotteryService{
		uowFactory: uowFactory,
		minStake:   new(big.Int).Set(minStake),
		opts:       buildOptions(opts),
	}
}

func (s *lotteryService) Deploy(ctx context.Context, manager common.Address) (*GameState, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.GameRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing game: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyDeployed
	}

	game := &models.Game{
		Manager:  manager,
		MinStake: s.minStake,
	}
	if err := uow.GameRepository().Create(ctx, game); err != nil {
		// a concurrent deploy won the insert
		if errors.Is(err, ErrAlreadyDeployed) {
			return nil, ErrAlreadyDeployed
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"manager":  manager.Hex(),
		"minStake": s.minStake.String(),
	}).Info("Lottery deployed")

	return &GameState{
		Manager:  game.Manager,
		MinStake: new(big.Int).Set(game.MinStake),
		Balance:  new(big.Int),
		Round:    game.CurrentRound,
		Players:  []common.Address{},
	}, nil
}

func (s *lotteryService) Enter(ctx context.Context, caller common.Address, stake *big.Int) error {
	if err := s.enter(ctx, caller, stake); err != nil {
		s.opts.failures.RecordFailure(ctx, "enter", err)
		return err
	}
	return nil
}

func (s *lotteryService) enter(ctx context.Context, caller common.Address, stake *big.Int) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// The row lock serializes every mutating operation on the game
	game, entries, err := loadGameForUpdate(ctx, uow)
	if err != nil {
		return err
	}
	core := restoreGame(game, entries)

	if err := core.ValidateStake(stake); err != nil {
		return err
	}

	account, err := uow.AccountRepository().GetForUpdate(ctx, caller)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || account.Balance.Cmp(stake) < 0 {
		have := big.NewInt(0)
		if account != nil {
			have = account.Balance
		}
		return fmt.Errorf("%w: %s has %s wei, needs %s wei", ErrInsufficientFunds, caller.Hex(), have, stake)
	}

	if err := core.Enter(caller, stake); err != nil {
		return err
	}

	if err := uow.AccountRepository().Debit(ctx, caller, stake); err != nil {
		return fmt.Errorf("failed to debit stake: %w", err)
	}

	entry := &models.Entry{
		Round:   game.CurrentRound,
		Address: caller,
		Stake:   new(big.Int).Set(stake),
	}
	if err := uow.EntryRepository().Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}

	relatedType := models.RelatedTypeEntry
	history := &models.BalanceHistory{
		Address:         caller,
		BalanceBefore:   account.Balance,
		BalanceAfter:    new(big.Int).Sub(account.Balance, stake),
		ChangeAmount:    new(big.Int).Neg(stake),
		TransactionType: models.TransactionTypeStake,
		TransactionMetadata: map[string]any{
			"round":    game.CurrentRound,
			"position": entry.Position,
		},
		RelatedID:   &entry.ID,
		RelatedType: &relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return fmt.Errorf("failed to record balance change: %w", err)
	}

	poolValue := core.Balance()
	if err := uow.GameRepository().UpdateBalance(ctx, poolValue); err != nil {
		return fmt.Errorf("failed to update held balance: %w", err)
	}

	uow.EventBus().Publish(events.EntryAdmittedEvent{
		Round:     game.CurrentRound,
		Position:  entry.Position,
		Address:   caller,
		Stake:     new(big.Int).Set(stake),
		PoolSize:  len(core.Players()),
		PoolValue: poolValue,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"address":  caller.Hex(),
		"stake":    stake.String(),
		"round":    game.CurrentRound,
		"position": entry.Position,
	}).Info("Entry admitted")

	return nil
}

func (s *lotteryService) PickWinner(ctx context.Context, caller common.Address) (*lottery.Result, error) {
	result, err := s.pickWinner(ctx, caller)
	if err != nil {
		s.opts.failures.RecordFailure(ctx, "pick_winner", err)
		return nil, err
	}
	return result, nil
}

func (s *lotteryService) pickWinner(ctx context.Context, caller common.Address) (*lottery.Result, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	game, entries, err := loadGameForUpdate(ctx, uow)
	if err != nil {
		return nil, err
	}
	core := restoreGame(game, entries)

	transferrer := &ledgerTransferrer{uow: uow, round: game.CurrentRound}
	result, err := core.PickWinner(ctx, caller, s.opts.clock.Now(), s.opts.selector, transferrer)
	if err != nil {
		return nil, err
	}

	round := &models.Round{
		Round:       game.CurrentRound,
		Winner:      result.Winner,
		Payout:      result.Payout,
		EntrantSize: result.EntrantSize,
		WinnerIndex: result.Index,
		Seed:        result.Seed,
		PickedBy:    caller,
	}
	if err := uow.RoundRepository().Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to record round: %w", err)
	}

	if _, err := uow.GameRepository().AdvanceRound(ctx); err != nil {
		return nil, fmt.Errorf("failed to advance round: %w", err)
	}

	uow.EventBus().Publish(events.WinnerPickedEvent{
		Round:       game.CurrentRound,
		Winner:      result.Winner,
		Payout:      new(big.Int).Set(result.Payout),
		EntrantSize: result.EntrantSize,
		Seed:        result.Seed,
		PickedBy:    caller,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"round":    game.CurrentRound,
		"winner":   result.Winner.Hex(),
		"payout":   result.Payout.String(),
		"entrants": result.EntrantSize,
	}).Info("Winner picked")

	return result, nil
}

func (s *lotteryService) GetPlayers(ctx context.Context) ([]common.Address, error) {
	state, err := s.GetState(ctx)
	if err != nil {
		return nil, err
	}
	return state.Players, nil
}

func (s *lotteryService) GetState(ctx context.Context) (*GameState, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	game, err := uow.GameRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, ErrNotDeployed
	}

	entries, err := uow.EntryRepository().ListRound(ctx, game.CurrentRound)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	return &GameState{
		Manager:  game.Manager,
		MinStake: game.MinStake,
		Balance:  game.Balance,
		Round:    game.CurrentRound,
		Players:  entrants(entries),
	}, nil
}

func (s *lotteryService) ListRounds(ctx context.Context, limit int) ([]*models.Round, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rounds, err := uow.RoundRepository().List(ctx, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}

// ledgerTransferrer pays the winner by crediting their account inside the
// draw's transaction, so a failed draw never leaves a credited winner behind.
type ledgerTransferrer struct {
	uow   UnitOfWork
	round int64
}

func (t *ledgerTransferrer) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	account, err := t.uow.AccountRepository().Ensure(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to load winner account: %w", err)
	}
	if !account.AcceptsPayments {
		return ErrPaymentRejected
	}

	if err := t.uow.AccountRepository().Credit(ctx, to, amount); err != nil {
		return fmt.Errorf("failed to credit winner: %w", err)
	}

	relatedID := t.round
	relatedType := models.RelatedTypeRound
	history := &models.BalanceHistory{
		Address:         to,
		BalanceBefore:   account.Balance,
		BalanceAfter:    new(big.Int).Add(account.Balance, amount),
		ChangeAmount:    new(big.Int).Set(amount),
		TransactionType: models.TransactionTypePayout,
		TransactionMetadata: map[string]any{
			"round": t.round,
		},
		RelatedID:   &relatedID,
		RelatedType: &relatedType,
	}
	return RecordBalanceChange(ctx, t.uow, history)
}

func loadGameForUpdate(ctx context.Context, uow UnitOfWork) (*models.Game, []*models.Entry, error) {
	game, err := uow.GameRepository().GetForUpdate(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock game: %w", err)
	}
	if game == nil {
		return nil, nil, ErrNotDeployed
	}

	entries, err := uow.EntryRepository().ListRound(ctx, game.CurrentRound)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return game, entries, nil
}

func restoreGame(game *models.Game, entries []*models.Entry) *lottery.Game {
	return lottery.RestoreGame(game.Manager, game.MinStake, uint64(game.CurrentRound), entrants(entries), game.Balance)
}

func entrants(entries []*models.Entry) []common.Address {
	players := make([]common.Address, 0, len(entries))
	for _, e := range entries {
		players = append(players, e.Address)
	}
	return players
}
