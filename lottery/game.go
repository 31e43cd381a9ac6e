package lottery

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Game is the escrow state machine for a single manager. It is not safe for
// concurrent use; callers pass it by exclusive reference into each operation.
type Game struct {
	access AccessControl
	pool   *EntryPool
	round  uint64
}

// NewGame creates an open game with an empty pool
func NewGame(manager common.Address, minStake *big.Int) *Game {
	return &Game{
		access: NewAccessControl(manager),
		pool:   NewEntryPool(minStake),
		round:  1,
	}
}

// RestoreGame rebuilds a game from persisted state
func RestoreGame(manager common.Address, minStake *big.Int, round uint64, entrants []common.Address, balance *big.Int) *Game {
	return &Game{
		access: NewAccessControl(manager),
		pool:   RestoreEntryPool(minStake, entrants, balance),
		round:  round,
	}
}

// Result describes a completed round
type Result struct {
	Round       uint64
	Winner      common.Address
	Payout      *big.Int
	Index       int
	EntrantSize int
	Seed        common.Hash
	PickedAt    time.Time
}

// Enter admits caller with the given stake
func (g *Game) Enter(caller common.Address, stake *big.Int) error {
	return g.pool.Admit(caller, stake)
}

// PickWinner selects a winner and pays out the whole pool. Nothing changes
// unless every step succeeds.
func (g *Game) PickWinner(ctx context.Context, caller common.Address, now time.Time, selector Selector, transferrer Transferrer) (*Result, error) {
	if err := g.access.Authorize(caller); err != nil {
		return nil, err
	}
	if g.pool.Size() == 0 {
		return nil, ErrEmptyPool
	}

	selection, err := selector.Select(Entropy{
		Round:     g.round,
		Timestamp: now,
		Caller:    caller,
		Players:   g.pool.Players(),
	})
	if err != nil {
		return nil, err
	}

	payout, err := NewPayoutEngine(transferrer).Payout(ctx, g.pool, selection.Index)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Round:       g.round,
		Winner:      payout.Winner,
		Payout:      payout.Amount,
		Index:       payout.Index,
		EntrantSize: payout.EntrantSize,
		Seed:        selection.Seed,
		PickedAt:    now,
	}
	g.round++

	return result, nil
}

// Players returns the current entrants in insertion order
func (g *Game) Players() []common.Address {
	return g.pool.Players()
}

// Balance returns the held balance
func (g *Game) Balance() *big.Int {
	return g.pool.Balance()
}

// Manager returns the manager identity
func (g *Game) Manager() common.Address {
	return g.access.Manager()
}

// IsManager reports whether caller is the manager
func (g *Game) IsManager(caller common.Address) bool {
	return g.access.IsManager(caller)
}

// Round returns the current round number, starting at 1
func (g *Game) Round() uint64 {
	return g.round
}

// MinStake returns the admission threshold
func (g *Game) MinStake() *big.Int {
	return g.pool.MinStake()
}

// ValidateStake checks a stake without admitting it
func (g *Game) ValidateStake(stake *big.Int) error {
	return g.pool.Validate(stake)
}
