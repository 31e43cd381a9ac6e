package lottery

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Transferrer moves value from the escrow to a recipient
type Transferrer interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}

// TransferFunc adapts a function to the Transferrer interface
type TransferFunc func(ctx context.Context, to common.Address, amount *big.Int) error

// Transfer calls f(ctx, to, amount)
func (f TransferFunc) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return f(ctx, to, amount)
}

// Payout is the result of a successful payout
type Payout struct {
	Winner      common.Address
	Amount      *big.Int
	Index       int
	EntrantSize int
}

// PayoutEngine delivers the pool balance to a chosen entrant
type PayoutEngine struct {
	transferrer Transferrer
}

// NewPayoutEngine creates a payout engine using the given transfer primitive
func NewPayoutEngine(transferrer Transferrer) *PayoutEngine {
	return &PayoutEngine{transferrer: transferrer}
}

// Payout transfers the pool's entire balance to the entrant at index and then
// clears the pool. The pool is left untouched if the transfer fails.
func (e *PayoutEngine) Payout(ctx context.Context, pool *EntryPool, index int) (*Payout, error) {
	winner, err := pool.at(index)
	if err != nil {
		return nil, err
	}

	amount := pool.Balance()
	if err := e.transferrer.Transfer(ctx, winner, new(big.Int).Set(amount)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransferFailure, winner.Hex(), err)
	}

	result := &Payout{
		Winner:      winner,
		Amount:      amount,
		Index:       index,
		EntrantSize: pool.Size(),
	}
	pool.clear()

	return result, nil
}
