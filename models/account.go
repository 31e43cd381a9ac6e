package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Account represents an address holding a balance on the ledger
type Account struct {
	Address         common.Address `db:"address"`
	Balance         *big.Int       `db:"balance"`
	AcceptsPayments bool           `db:"accepts_payments"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}
