package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeDeposit TransactionType = "deposit"
	TransactionTypeStake   TransactionType = "stake"
	TransactionTypePayout  TransactionType = "payout"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeEntry RelatedType = "entry"
	RelatedTypeRound RelatedType = "round"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	Address             common.Address  `db:"address"`
	BalanceBefore       *big.Int        `db:"balance_before"`
	BalanceAfter        *big.Int        `db:"balance_after"`
	ChangeAmount        *big.Int        `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
