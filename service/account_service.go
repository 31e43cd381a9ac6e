package service

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"lotto/models"
)

type accountService struct {
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates an account service backed by the unit of work
func NewAccountService(uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{uowFactory: uowFactory}
}

func (s *accountService) Fund(ctx context.Context, address common.Address, amount *big.Int) (*models.Account, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().Ensure(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}

	if err := uow.AccountRepository().Credit(ctx, address, amount); err != nil {
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}

	newBalance := new(big.Int).Add(account.Balance, amount)
	history := &models.BalanceHistory{
		Address:         address,
		BalanceBefore:   account.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    new(big.Int).Set(amount),
		TransactionType: models.TransactionTypeDeposit,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"address": address.Hex(),
		"amount":  amount.String(),
		"balance": newBalance.String(),
	}).Info("Account funded")

	account.Balance = newBalance
	return account, nil
}

func (s *accountService) GetAccount(ctx context.Context, address common.Address) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().Get(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return emptyAccount(address), nil
	}
	return account, nil
}

func (s *accountService) SetAcceptsPayments(ctx context.Context, address common.Address, accepts bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.AccountRepository().Ensure(ctx, address); err != nil {
		return fmt.Errorf("failed to ensure account: %w", err)
	}
	if err := uow.AccountRepository().SetAcceptsPayments(ctx, address, accepts); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *accountService) History(ctx context.Context, address common.Address, limit int) ([]*models.BalanceHistory, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	history, err := uow.BalanceHistoryRepository().GetByAddress(ctx, address, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

func emptyAccount(address common.Address) *models.Account {
	return &models.Account{
		Address:         address,
		Balance:         new(big.Int),
		AcceptsPayments: true,
	}
}
