package lottery

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EntryPool is the ordered set of entrants for the current round together with
// the balance held on their behalf.
type EntryPool struct {
	minStake *big.Int
	entrants []common.Address
	balance  *big.Int
}

// NewEntryPool creates an empty pool admitting stakes of at least minStake
func NewEntryPool(minStake *big.Int) *EntryPool {
	return &EntryPool{
		minStake: normalize(minStake),
		balance:  new(big.Int),
	}
}

// RestoreEntryPool rebuilds a pool from persisted state
func RestoreEntryPool(minStake *big.Int, entrants []common.Address, balance *big.Int) *EntryPool {
	p := NewEntryPool(minStake)
	p.entrants = append(p.entrants, entrants...)
	p.balance = normalize(balance)
	return p
}

// Admit appends caller to the pool and adds stake to the held balance
func (p *EntryPool) Admit(caller common.Address, stake *big.Int) error {
	if err := p.Validate(stake); err != nil {
		return err
	}

	p.entrants = append(p.entrants, caller)
	p.balance = new(big.Int).Add(p.balance, stake)
	return nil
}

// Validate checks a stake against the minimum without mutating the pool
func (p *EntryPool) Validate(stake *big.Int) error {
	if stake == nil || stake.Sign() <= 0 || stake.Cmp(p.minStake) < 0 {
		return fmt.Errorf("%w: got %s wei, minimum is %s wei", ErrInsufficientStake, amountString(stake), p.minStake)
	}
	return nil
}

// Players returns the entrants in insertion order, duplicates included
func (p *EntryPool) Players() []common.Address {
	players := make([]common.Address, len(p.entrants))
	copy(players, p.entrants)
	return players
}

// Size returns the number of entries in the pool
func (p *EntryPool) Size() int {
	return len(p.entrants)
}

// Balance returns a copy of the held balance
func (p *EntryPool) Balance() *big.Int {
	return new(big.Int).Set(p.balance)
}

// MinStake returns a copy of the admission threshold
func (p *EntryPool) MinStake() *big.Int {
	return new(big.Int).Set(p.minStake)
}

// at resolves the entrant at index
func (p *EntryPool) at(index int) (common.Address, error) {
	if index < 0 || index >= len(p.entrants) {
		return common.Address{}, fmt.Errorf("index %d out of range for pool of %d", index, len(p.entrants))
	}
	return p.entrants[index], nil
}

// clear empties the pool and zeroes the held balance
func (p *EntryPool) clear() {
	p.entrants = nil
	p.balance = new(big.Int)
}

func normalize(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
