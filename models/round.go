package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Round represents a completed draw
type Round struct {
	ID          int64          `db:"id"`
	Round       int64          `db:"round"`
	Winner      common.Address `db:"winner"`
	Payout      *big.Int       `db:"payout"`
	EntrantSize int            `db:"entrant_size"`
	WinnerIndex int            `db:"winner_index"`
	Seed        common.Hash    `db:"seed"`
	PickedBy    common.Address `db:"picked_by"`
	CreatedAt   time.Time      `db:"created_at"`
}
