package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the account balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrPaymentRejected is returned when the recipient does not accept payments
	ErrPaymentRejected = errors.New("recipient rejected payment")
)

// Memory is an in-process ledger of account balances. It plays the role of
// the value-transfer substrate for a lottery that does not persist state.
type Memory struct {
	mu       sync.RWMutex
	balances map[common.Address]*big.Int
	rejects  map[common.Address]bool
}

// NewMemory creates an empty ledger
func NewMemory() *Memory {
	return &Memory{
		balances: make(map[common.Address]*big.Int),
		rejects:  make(map[common.Address]bool),
	}
}

// Fund credits amount to addr and returns the new balance
func (m *Memory) Fund(addr common.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("fund amount must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	balance := m.credit(addr, amount)
	log.WithFields(log.Fields{
		"address": addr.Hex(),
		"amount":  amount.String(),
		"balance": balance.String(),
	}).Debug("Funded account")

	return new(big.Int).Set(balance), nil
}

// BalanceOf returns the balance of addr
func (m *Memory) BalanceOf(addr common.Address) *big.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if b, ok := m.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// RejectPayments toggles whether transfers to addr fail
func (m *Memory) RejectPayments(addr common.Address, reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if reject {
		m.rejects[addr] = true
		return
	}
	delete(m.rejects, addr)
}

// AcceptsPayments reports whether transfers to addr succeed
func (m *Memory) AcceptsPayments(addr common.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.rejects[addr]
}

// Debit removes amount from the balance of from
func (m *Memory) Debit(_ context.Context, from common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance, ok := m.balances[from]
	if !ok || balance.Cmp(amount) < 0 {
		have := "0"
		if ok {
			have = balance.String()
		}
		return fmt.Errorf("%w: %s has %s wei, needs %s wei", ErrInsufficientFunds, from.Hex(), have, amount.String())
	}

	m.balances[from] = new(big.Int).Sub(balance, amount)
	return nil
}

// Transfer credits amount to the recipient unless it rejects payments
func (m *Memory) Transfer(_ context.Context, to common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rejects[to] {
		return fmt.Errorf("%w: %s", ErrPaymentRejected, to.Hex())
	}

	m.credit(to, amount)
	return nil
}

func (m *Memory) credit(addr common.Address, amount *big.Int) *big.Int {
	prev, ok := m.balances[addr]
	if !ok {
		prev = new(big.Int)
	}
	next := new(big.Int).Add(prev, amount)
	m.balances[addr] = next
	return next
}
