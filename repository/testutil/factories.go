package testutil

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lotto/models"
)

// Address returns a deterministic address for index n
func Address(n int64) common.Address {
	return common.BigToAddress(big.NewInt(n))
}

// Wei parses a decimal wei amount, panicking on malformed input
func Wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid wei literal " + s)
	}
	return v
}

// CreateTestGame creates a game managed by manager with a 0.01 ether minimum stake
func CreateTestGame(manager common.Address) *models.Game {
	return &models.Game{
		ID:           models.GameID,
		Manager:      manager,
		MinStake:     Wei("10000000000000000"),
		Balance:      new(big.Int),
		CurrentRound: 1,
	}
}

// CreateTestEntry creates an entry for the given round
func CreateTestEntry(round int64, address common.Address, stake *big.Int) *models.Entry {
	return &models.Entry{
		Round:   round,
		Address: address,
		Stake:   stake,
	}
}

// CreateTestRound creates a completed round result
func CreateTestRound(round int64, winner, manager common.Address, payout *big.Int) *models.Round {
	return &models.Round{
		Round:       round,
		Winner:      winner,
		Payout:      payout,
		EntrantSize: 2,
		WinnerIndex: 1,
		Seed:        common.BigToHash(big.NewInt(round)),
		PickedBy:    manager,
	}
}

// CreateTestBalanceHistory creates a balance history entry
func CreateTestBalanceHistory(address common.Address, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		Address:         address,
		BalanceBefore:   Wei("100"),
		BalanceAfter:    Wei("90"),
		ChangeAmount:    Wei("-10"),
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}
