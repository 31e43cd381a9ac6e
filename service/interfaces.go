package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lotto/events"
	"lotto/lottery"
	"lotto/models"
)

// AccountRepository defines the interface for ledger account data access
type AccountRepository interface {
	// Get retrieves an account, returning nil when it does not exist
	Get(ctx context.Context, address common.Address) (*models.Account, error)

	// GetForUpdate retrieves an account and locks its row for the transaction
	GetForUpdate(ctx context.Context, address common.Address) (*models.Account, error)

	// Ensure creates the account with a zero balance if it does not exist and returns it locked
	Ensure(ctx context.Context, address common.Address) (*models.Account, error)

	// Credit adds amount to the account balance
	Credit(ctx context.Context, address common.Address, amount *big.Int) error

	// Debit removes amount from the account balance, failing if it would go negative
	Debit(ctx context.Context, address common.Address, amount *big.Int) error

	// SetAcceptsPayments toggles whether the account accepts incoming payments
	SetAcceptsPayments(ctx context.Context, address common.Address, accepts bool) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByAddress returns balance history for an address, newest first
	GetByAddress(ctx context.Context, address common.Address, limit int) ([]*models.BalanceHistory, error)
}

// GameRepository defines the interface for the deployed game row
type GameRepository interface {
	// Create inserts the game row
	Create(ctx context.Context, game *models.Game) error

	// Get retrieves the game, returning nil when none is deployed
	Get(ctx context.Context) (*models.Game, error)

	// GetForUpdate retrieves the game and locks its row for the transaction
	GetForUpdate(ctx context.Context) (*models.Game, error)

	// UpdateBalance sets the held balance
	UpdateBalance(ctx context.Context, balance *big.Int) error

	// AdvanceRound moves to the next round and zeroes the held balance
	AdvanceRound(ctx context.Context) (int64, error)
}

// EntryRepository defines the interface for round entries
type EntryRepository interface {
	// Append adds an entry at the next position of its round
	Append(ctx context.Context, entry *models.Entry) error

	// ListRound returns a round's entries in admission order
	ListRound(ctx context.Context, round int64) ([]*models.Entry, error)
}

// RoundRepository defines the interface for completed round results
type RoundRepository interface {
	// Create records a completed round
	Create(ctx context.Context, round *models.Round) error

	// GetByRound retrieves a completed round, returning nil when not found
	GetByRound(ctx context.Context, round int64) (*models.Round, error)

	// List returns completed rounds, newest first
	List(ctx context.Context, limit int) ([]*models.Round, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	AccountRepository() AccountRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	GameRepository() GameRepository
	EntryRepository() EntryRepository
	RoundRepository() RoundRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// GameState is a consistent view of the deployed lottery
type GameState struct {
	Manager  common.Address
	MinStake *big.Int
	Balance  *big.Int
	Round    int64
	Players  []common.Address
}

// LotteryService defines the lottery operations
type LotteryService interface {
	// Deploy creates the lottery with the caller as manager
	Deploy(ctx context.Context, manager common.Address) (*GameState, error)

	// Enter admits caller into the current round with the given stake
	Enter(ctx context.Context, caller common.Address, stake *big.Int) error

	// PickWinner pays the whole pool to a selected entrant; only the manager may call it
	PickWinner(ctx context.Context, caller common.Address) (*lottery.Result, error)

	// GetPlayers returns the current round's entrants in admission order
	GetPlayers(ctx context.Context) ([]common.Address, error)

	// GetState returns the lottery state
	GetState(ctx context.Context) (*GameState, error)

	// ListRounds returns completed rounds, newest first
	ListRounds(ctx context.Context, limit int) ([]*models.Round, error)
}

// AccountService defines ledger account operations
type AccountService interface {
	// Fund deposits amount into the account, creating it if needed
	Fund(ctx context.Context, address common.Address, amount *big.Int) (*models.Account, error)

	// GetAccount returns an account, or a zero-balance view if it does not exist
	GetAccount(ctx context.Context, address common.Address) (*models.Account, error)

	// SetAcceptsPayments toggles whether payouts to the account succeed
	SetAcceptsPayments(ctx context.Context, address common.Address, accepts bool) error

	// History returns recent balance changes for the account
	History(ctx context.Context, address common.Address, limit int) ([]*models.BalanceHistory, error)
}
