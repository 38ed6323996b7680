// Package entitlement provides the entitlement aggregate and the pure state
// reducer that applies resolved gateway objects to it.
package entitlement

// Status represents the access status of an entitlement
type Status string

const (
	// StatusInactive is the initial status and the result of unpaid or paused states
	StatusInactive Status = "inactive"
	// StatusActive grants access unless the expiry has passed
	StatusActive Status = "active"
	// StatusPastDue indicates a failed subscription charge
	StatusPastDue Status = "past_due"
	// StatusCanceled indicates the subscription was canceled
	StatusCanceled Status = "canceled"
)

// IsValid checks if the entitlement status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusPastDue, StatusCanceled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the entitlement status
func (s Status) String() string {
	return string(s)
}

// IsActive checks if the status indicates an active entitlement
func (s Status) IsActive() bool {
	return s == StatusActive
}
