package api

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lotto/lottery"
	"lotto/models"
	"lotto/service"
)

type enterRequest struct {
	Stake string `json:"stake" binding:"required"`
}

type fundRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type paymentsRequest struct {
	Accepts *bool `json:"accepts" binding:"required"`
}

type stateResponse struct {
	Manager     common.Address   `json:"manager"`
	MinStakeWei string           `json:"min_stake_wei"`
	BalanceWei  string           `json:"balance_wei"`
	Round       int64            `json:"round"`
	Players     []common.Address `json:"players"`
	Count       int              `json:"count"`
}

type playersResponse struct {
	Players []common.Address `json:"players"`
	Count   int              `json:"count"`
}

type resultResponse struct {
	Round       uint64         `json:"round"`
	Winner      common.Address `json:"winner"`
	PayoutWei   string         `json:"payout_wei"`
	Index       int            `json:"index"`
	EntrantSize int            `json:"entrant_size"`
	Seed        common.Hash    `json:"seed"`
	PickedAt    time.Time      `json:"picked_at"`
}

type roundResponse struct {
	Round       int64          `json:"round"`
	Winner      common.Address `json:"winner"`
	PayoutWei   string         `json:"payout_wei"`
	EntrantSize int            `json:"entrant_size"`
	WinnerIndex int            `json:"winner_index"`
	Seed        common.Hash    `json:"seed"`
	PickedBy    common.Address `json:"picked_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

type accountResponse struct {
	Address         common.Address `json:"address"`
	BalanceWei      string         `json:"balance_wei"`
	AcceptsPayments bool           `json:"accepts_payments"`
}

type historyResponse struct {
	ID              int64                  `json:"id"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeWei       string                 `json:"change_wei"`
	BalanceAfterWei string                 `json:"balance_after_wei"`
	CreatedAt       time.Time              `json:"created_at"`
}

func wei(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newStateResponse(s *service.GameState) stateResponse {
	return stateResponse{
		Manager:     s.Manager,
		MinStakeWei: wei(s.MinStake),
		BalanceWei:  wei(s.Balance),
		Round:       s.Round,
		Players:     s.Players,
		Count:       len(s.Players),
	}
}

func newResultResponse(r *lottery.Result) resultResponse {
	return resultResponse{
		Round:       r.Round,
		Winner:      r.Winner,
		PayoutWei:   wei(r.Payout),
		Index:       r.Index,
		EntrantSize: r.EntrantSize,
		Seed:        r.Seed,
		PickedAt:    r.PickedAt,
	}
}

func newRoundResponse(r *models.Round) roundResponse {
	return roundResponse{
		Round:       r.Round,
		Winner:      r.Winner,
		PayoutWei:   wei(r.Payout),
		EntrantSize: r.EntrantSize,
		WinnerIndex: r.WinnerIndex,
		Seed:        r.Seed,
		PickedBy:    r.PickedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func newAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		Address:         a.Address,
		BalanceWei:      wei(a.Balance),
		AcceptsPayments: a.AcceptsPayments,
	}
}

func newHistoryResponse(h *models.BalanceHistory) historyResponse {
	return historyResponse{
		ID:              h.ID,
		TransactionType: h.TransactionType,
		ChangeWei:       wei(h.ChangeAmount),
		BalanceAfterWei: wei(h.BalanceAfter),
		CreatedAt:       h.CreatedAt,
	}
}
