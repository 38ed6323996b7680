package entitlement

import (
	"strings"
	"time"

	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/domain/plan"
)

// Transition is the result of reducing one resolution onto a state.
type Transition struct {
	Next State
	// Changed is false when Next equals the input state.
	Changed bool
	// Idempotent marks the explicit short-circuit for a payment that was
	// already applied.
	Idempotent bool
	// Activated is true when the resolution granted active status.
	Activated bool
}

// Reduce computes the next entitlement state from an authoritative remote
// object. It performs no I/O and never mutates its inputs; p may be nil when
// the plan could not be loaded.
func Reduce(current State, p *plan.Plan, res *notification.Resolution, now time.Time) Transition {
	if res == nil {
		return Transition{Next: current}
	}

	next := current
	if current.ExpiresAt != nil {
		t := *current.ExpiresAt
		next.ExpiresAt = &t
	}

	var activated bool
	switch res.Kind {
	case notification.KindPayment, notification.KindMerchantOrder:
		if res.Payment == nil {
			return Transition{Next: current}
		}
		if current.RemotePaymentID == res.Payment.ID && current.Status == StatusActive {
			return Transition{Next: current, Idempotent: true}
		}
		activated = reducePayment(&next, p, res.Payment, now)
	case notification.KindPreapproval:
		if res.Preapproval == nil {
			return Transition{Next: current}
		}
		activated = reducePreapproval(&next, res.Preapproval)
	case notification.KindAuthorizedPayment:
		if res.AuthorizedPayment == nil {
			return Transition{Next: current}
		}
		activated = reduceAuthorizedPayment(&next, res.AuthorizedPayment, res.Preapproval)
	default:
		return Transition{Next: current}
	}

	return Transition{
		Next:      next,
		Changed:   !next.Equal(current),
		Activated: activated,
	}
}

func reducePayment(s *State, p *plan.Plan, payment *notification.RemotePayment, now time.Time) bool {
	s.RemotePaymentID = payment.ID

	if normalizeStatus(payment.Status) != notification.StatusApproved {
		s.Status = StatusInactive
		return false
	}

	s.Status = StatusActive
	if p != nil {
		if d, ok := p.AccessDuration(); ok {
			expiry := now.UTC().Add(d)
			s.ExpiresAt = &expiry
		}
	}
	return true
}

func reducePreapproval(s *State, pre *notification.RemotePreapproval) bool {
	s.RemotePreapprovalID = pre.ID

	switch normalizeStatus(pre.Status) {
	case notification.StatusAuthorized, notification.StatusActive:
		s.Status = StatusActive
		setExpiry(s, pre.EndDate)
		return true
	case notification.StatusCancelled, notification.StatusCanceled:
		s.Status = StatusCanceled
		setExpiry(s, pre.EndDate)
	case notification.StatusPaused:
		s.Status = StatusInactive
		s.ExpiresAt = nil
	default:
		s.Status = StatusInactive
	}
	return false
}

func reduceAuthorizedPayment(s *State, ap *notification.RemoteAuthorizedPayment, pre *notification.RemotePreapproval) bool {
	if ap.PreapprovalID != "" {
		s.RemotePreapprovalID = ap.PreapprovalID
	}

	switch normalizeStatus(ap.Status) {
	case notification.StatusApproved:
		s.Status = StatusActive
		if pre != nil {
			setExpiry(s, pre.EndDate)
		}
		return true
	case notification.StatusRejected, notification.StatusCancelled, notification.StatusCanceled:
		s.Status = StatusPastDue
	case notification.StatusRefunded, notification.StatusChargedBack:
		s.Status = StatusInactive
	}
	// scheduled, processed, recycling and unknown statuses leave the status as is
	return false
}

func setExpiry(s *State, t *time.Time) {
	if t == nil {
		return
	}
	expiry := t.UTC()
	s.ExpiresAt = &expiry
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
