package lottery

import "errors"

var (
	// ErrInsufficientStake is returned when an entry carries less than the minimum stake
	ErrInsufficientStake = errors.New("insufficient stake")

	// ErrUnauthorized is returned when a non-manager attempts a privileged operation
	ErrUnauthorized = errors.New("caller is not the manager")

	// ErrEmptyPool is returned when a winner is requested from a pool with no entrants
	ErrEmptyPool = errors.New("pool has no entrants")

	// ErrTransferFailure is returned when the payout could not be delivered to the winner
	ErrTransferFailure = errors.New("transfer to winner failed")
)
