package lottery

import "github.com/ethereum/go-ethereum/common"

// AccessControl holds the manager identity recorded at construction
type AccessControl struct {
	manager common.Address
}

// NewAccessControl records the creator as manager
func NewAccessControl(manager common.Address) AccessControl {
	return AccessControl{manager: manager}
}

// Manager returns the manager identity
func (a AccessControl) Manager() common.Address {
	return a.manager
}

// IsManager reports whether caller is the manager
func (a AccessControl) IsManager(caller common.Address) bool {
	return caller == a.manager
}

// Authorize returns ErrUnauthorized unless caller is the manager
func (a AccessControl) Authorize(caller common.Address) error {
	if !a.IsManager(caller) {
		return ErrUnauthorized
	}
	return nil
}
