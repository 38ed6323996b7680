package entitlement

import (
	"fmt"
	"time"

	"github.com/orris-inc/paysync/internal/shared/biztime"
)

// State is the mutable part of an entitlement. The reducer works on State
// values so it never touches the aggregate directly.
type State struct {
	Status              Status
	ExpiresAt           *time.Time
	RemotePreferenceID  string
	RemotePaymentID     string
	RemotePreapprovalID string
}

// Equal reports whether two states are identical, comparing expiry instants.
func (s State) Equal(o State) bool {
	if s.Status != o.Status ||
		s.RemotePreferenceID != o.RemotePreferenceID ||
		s.RemotePaymentID != o.RemotePaymentID ||
		s.RemotePreapprovalID != o.RemotePreapprovalID {
		return false
	}
	switch {
	case s.ExpiresAt == nil && o.ExpiresAt == nil:
		return true
	case s.ExpiresAt == nil || o.ExpiresAt == nil:
		return false
	default:
		return s.ExpiresAt.Equal(*o.ExpiresAt)
	}
}

// Entitlement represents a user's access to one plan.
// Exactly one entitlement exists per (user, plan) pair.
type Entitlement struct {
	id        uint
	userID    uint
	planID    uint
	state     State
	createdAt time.Time
	updatedAt time.Time
	version   int // optimistic locking
}

// NewEntitlement creates an inactive entitlement
func NewEntitlement(userID, planID uint) (*Entitlement, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}

	now := biztime.NowUTC()
	return &Entitlement{
		userID:    userID,
		planID:    planID,
		state:     State{Status: StatusInactive},
		createdAt: now,
		updatedAt: now,
		version:   1,
	}, nil
}

// ReconstructEntitlement reconstructs an entitlement from persistence
func ReconstructEntitlement(
	id, userID, planID uint,
	state State,
	createdAt, updatedAt time.Time,
	version int,
) (*Entitlement, error) {
	if id == 0 {
		return nil, fmt.Errorf("entitlement ID cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !state.Status.IsValid() {
		return nil, errInvalidStatus(state.Status)
	}

	return &Entitlement{
		id:        id,
		userID:    userID,
		planID:    planID,
		state:     state,
		createdAt: createdAt,
		updatedAt: updatedAt,
		version:   version,
	}, nil
}

func (e *Entitlement) ID() uint                    { return e.id }
func (e *Entitlement) UserID() uint                { return e.userID }
func (e *Entitlement) PlanID() uint                { return e.planID }
func (e *Entitlement) Status() Status              { return e.state.Status }
func (e *Entitlement) ExpiresAt() *time.Time       { return e.state.ExpiresAt }
func (e *Entitlement) RemotePreferenceID() string  { return e.state.RemotePreferenceID }
func (e *Entitlement) RemotePaymentID() string     { return e.state.RemotePaymentID }
func (e *Entitlement) RemotePreapprovalID() string { return e.state.RemotePreapprovalID }
func (e *Entitlement) CreatedAt() time.Time        { return e.createdAt }
func (e *Entitlement) UpdatedAt() time.Time        { return e.updatedAt }

// Version returns the aggregate version for optimistic locking
func (e *Entitlement) Version() int { return e.version }

// State returns a copy of the mutable state.
func (e *Entitlement) State() State {
	s := e.state
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		s.ExpiresAt = &t
	}
	return s
}

// SetID sets the entitlement ID (only for persistence layer use)
func (e *Entitlement) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("entitlement ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("entitlement ID cannot be zero")
	}
	e.id = id
	return nil
}

// Apply writes next onto the aggregate. It returns false and leaves the
// aggregate untouched when next equals the current state.
func (e *Entitlement) Apply(next State, now time.Time) (bool, error) {
	if !next.Status.IsValid() {
		return false, errInvalidStatus(next.Status)
	}
	if e.state.Equal(next) {
		return false, nil
	}
	e.state = next
	e.updatedAt = now
	e.version++
	return true, nil
}

// RecordPreference stores the latest checkout preference created for this
// entitlement and reports whether it changed.
func (e *Entitlement) RecordPreference(preferenceID string) bool {
	if preferenceID == "" || e.state.RemotePreferenceID == preferenceID {
		return false
	}
	e.state.RemotePreferenceID = preferenceID
	e.updatedAt = biztime.NowUTC()
	e.version++
	return true
}

// HasAccess reports whether the entitlement currently grants access.
// A canceled subscription keeps access until its paid period ends.
func (e *Entitlement) HasAccess(now time.Time) bool {
	expiry := e.state.ExpiresAt
	switch e.state.Status {
	case StatusActive:
		return expiry == nil || now.Before(*expiry)
	case StatusCanceled:
		return expiry != nil && now.Before(*expiry)
	default:
		return false
	}
}
