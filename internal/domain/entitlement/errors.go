package entitlement

import (
	"errors"
	"fmt"
)

var (
	// ErrEntitlementNotFound is returned when an entitlement is not found
	ErrEntitlementNotFound = errors.New("entitlement not found")

	// ErrConcurrentModification is returned when a versioned update loses the race
	ErrConcurrentModification = errors.New("entitlement was modified concurrently")

	// ErrInvalidStatus is returned when an invalid entitlement status is provided
	ErrInvalidStatus = errors.New("invalid entitlement status")
)

func errInvalidStatus(s Status) error {
	return fmt.Errorf("%w: %s", ErrInvalidStatus, s)
}
