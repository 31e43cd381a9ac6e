package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// GameID is the primary key of the single deployed game
const GameID int64 = 1

// Game represents the deployed lottery and the value it currently holds
type Game struct {
	ID           int64          `db:"id"`
	Manager      common.Address `db:"manager"`
	MinStake     *big.Int       `db:"min_stake"`
	Balance      *big.Int       `db:"balance"`
	CurrentRound int64          `db:"current_round"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}
