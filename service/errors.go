package service

import "errors"

var (
	// ErrNotDeployed is returned when no lottery has been deployed yet
	ErrNotDeployed = errors.New("lottery not deployed")

	// ErrAlreadyDeployed is returned when deploying over an existing lottery
	ErrAlreadyDeployed = errors.New("lottery already deployed")

	// ErrInsufficientFunds is returned when an account cannot cover a stake
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrPaymentRejected is returned when the winner's account does not accept payments
	ErrPaymentRejected = errors.New("recipient does not accept payments")

	// ErrInvalidAmount is returned for nil, zero or negative amounts
	ErrInvalidAmount = errors.New("amount must be positive")
)
