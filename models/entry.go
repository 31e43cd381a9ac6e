package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Entry is one admission into a round's pool. An address may hold several
// entries in the same round.
type Entry struct {
	ID        int64          `db:"id"`
	Round     int64          `db:"round"`
	Position  int            `db:"position"`
	Address   common.Address `db:"address"`
	Stake     *big.Int       `db:"stake"`
	CreatedAt time.Time      `db:"created_at"`
}
