package lottery

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/coder/quartz"
	"github.com/ethereum/go-ethereum/common"
)

// Escrow is the value-transfer primitive an in-process lottery runs on
type Escrow interface {
	Transferrer
	Debit(ctx context.Context, from common.Address, amount *big.Int) error
}

// Lottery serializes access to a Game for use inside a single process
type Lottery struct {
	mu       sync.Mutex
	game     *Game
	escrow   Escrow
	selector Selector
	clock    quartz.Clock
	history  []*Result
}

// Option configures a Lottery
type Option func(*Lottery)

// WithSelector overrides the default keccak selector
func WithSelector(s Selector) Option {
	return func(l *Lottery) {
		l.selector = s
	}
}

// WithClock overrides the real clock
func WithClock(c quartz.Clock) Option {
	return func(l *Lottery) {
		l.clock = c
	}
}

// New creates a lottery managed by manager and backed by escrow
func New(manager common.Address, minStake *big.Int, escrow Escrow, opts ...Option) *Lottery {
	l := &Lottery{
		game:     NewGame(manager, minStake),
		escrow:   escrow,
		selector: NewKeccakSelector(),
		clock:    quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enter takes stake from caller and admits them to the pool
func (l *Lottery) Enter(ctx context.Context, caller common.Address, stake *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.game.ValidateStake(stake); err != nil {
		return err
	}
	if err := l.escrow.Debit(ctx, caller, stake); err != nil {
		return fmt.Errorf("failed to collect stake: %w", err)
	}
	return l.game.Enter(caller, stake)
}

// PickWinner pays the pool to a selected entrant; only the manager may call it
func (l *Lottery) PickWinner(ctx context.Context, caller common.Address) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	result, err := l.game.PickWinner(ctx, caller, l.clock.Now(), l.selector, l.escrow)
	if err != nil {
		return nil, err
	}
	l.history = append(l.history, result)
	return result, nil
}

// Players returns the current entrants in insertion order
func (l *Lottery) Players() []common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.game.Players()
}

// Snapshot is a consistent view of the lottery state
type Snapshot struct {
	Manager  common.Address
	MinStake *big.Int
	Balance  *big.Int
	Round    uint64
	Players  []common.Address
}

// Snapshot returns the current state under the lock
func (l *Lottery) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		Manager:  l.game.Manager(),
		MinStake: l.game.MinStake(),
		Balance:  l.game.Balance(),
		Round:    l.game.Round(),
		Players:  l.game.Players(),
	}
}

// History returns up to limit completed rounds, newest first
func (l *Lottery) History(limit int) []*Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Result, 0, len(l.history))
	for i := len(l.history) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, l.history[i])
	}
	return out
}
