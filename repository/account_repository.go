package repository

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"lotto/database"
	"lotto/models"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `address, balance::text, accepts_payments, created_at, updated_at`

// Get retrieves an account by address
func (r *AccountRepository) Get(ctx context.Context, address common.Address) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, addressParam(address)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address.Hex(), err)
	}
	return account, nil
}

// GetForUpdate retrieves an account by address with a row lock
func (r *AccountRepository) GetForUpdate(ctx context.Context, address common.Address) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, addressParam(address)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s for update: %w", address.Hex(), err)
	}
	return account, nil
}

// Ensure creates the account if missing and returns it locked
func (r *AccountRepository) Ensure(ctx context.Context, address common.Address) (*models.Account, error) {
	query := `
		INSERT INTO accounts (address)
		VALUES ($1)
		ON CONFLICT (address) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, query, addressParam(address)); err != nil {
		return nil, fmt.Errorf("failed to ensure account %s: %w", address.Hex(), err)
	}

	account, err := r.GetForUpdate(ctx, address)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %s missing after insert", address.Hex())
	}
	return account, nil
}

// Credit adds amount to the account balance
func (r *AccountRepository) Credit(ctx context.Context, address common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1::numeric, updated_at = NOW()
		WHERE address = $2
	`

	result, err := r.q.Exec(ctx, query, weiParam(amount), addressParam(address))
	if err != nil {
		return fmt.Errorf("failed to credit account %s: %w", address.Hex(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", address.Hex())
	}
	return nil
}

// Debit removes amount from the account balance, failing if insufficient funds
func (r *AccountRepository) Debit(ctx context.Context, address common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1::numeric, updated_at = NOW()
		WHERE address = $2 AND balance >= $1::numeric
	`

	result, err := r.q.Exec(ctx, query, weiParam(amount), addressParam(address))
	if err != nil {
		return fmt.Errorf("failed to debit account %s: %w", address.Hex(), err)
	}

	if result.RowsAffected() == 0 {
		account, err := r.Get(ctx, address)
		if err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}
		if account == nil {
			return fmt.Errorf("account %s not found", address.Hex())
		}
		return fmt.Errorf("insufficient balance: have %s, need %s", account.Balance, amount)
	}
	return nil
}

// SetAcceptsPayments toggles whether the account accepts incoming value
func (r *AccountRepository) SetAcceptsPayments(ctx context.Context, address common.Address, accepts bool) error {
	query := `
		UPDATE accounts
		SET accepts_payments = $1, updated_at = NOW()
		WHERE address = $2
	`

	result, err := r.q.Exec(ctx, query, accepts, addressParam(address))
	if err != nil {
		return fmt.Errorf("failed to update accepts_payments for %s: %w", address.Hex(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", address.Hex())
	}
	return nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var (
		account models.Account
		address string
		balance string
	)
	if err := row.Scan(&address, &balance, &account.AcceptsPayments, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if account.Address, err = parseAddress(address); err != nil {
		return nil, err
	}
	if account.Balance, err = parseWei(balance); err != nil {
		return nil, err
	}
	return &account, nil
}
