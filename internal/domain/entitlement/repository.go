package entitlement

import "context"

// Repository defines the interface for entitlement persistence operations
type Repository interface {
	// GetByID retrieves an entitlement by ID
	GetByID(ctx context.Context, id uint) (*Entitlement, error)

	// GetOrCreate returns the entitlement for the (user, plan) pair, creating
	// an inactive one when none exists.
	GetOrCreate(ctx context.Context, userID, planID uint) (*Entitlement, error)

	// Update persists the entitlement if its stored version still equals the
	// version it was loaded with. Returns ErrConcurrentModification otherwise.
	Update(ctx context.Context, e *Entitlement) error

	// ListWithPreapproval lists entitlements bound to a subscription whose
	// status is one of statuses, ordered by ID, starting after afterID.
	ListWithPreapproval(ctx context.Context, statuses []Status, afterID uint, limit int) ([]*Entitlement, error)
}
