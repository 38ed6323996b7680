package notification

import "time"

// Gateway status values the reducer distinguishes.
const (
	StatusApproved    = "approved"
	StatusAuthorized  = "authorized"
	StatusActive      = "active"
	StatusCancelled   = "cancelled"
	StatusCanceled    = "canceled"
	StatusPaused      = "paused"
	StatusPending     = "pending"
	StatusRejected    = "rejected"
	StatusRefunded    = "refunded"
	StatusChargedBack = "charged_back"
)

// RemotePayment is the gateway's authoritative view of a payment.
type RemotePayment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	Metadata          map[string]any
}

// RemotePreapproval is the gateway's view of a subscription agreement.
type RemotePreapproval struct {
	ID                string
	Status            string
	ExternalReference string
	Metadata          map[string]any
	EndDate           *time.Time
	NextPaymentDate   *time.Time
}

// RemoteAuthorizedPayment is a single charge attempt under a preapproval.
type RemoteAuthorizedPayment struct {
	ID                string
	PreapprovalID     string
	Status            string
	PaymentID         string
	ExternalReference string
	Metadata          map[string]any
}

// OrderPayment is one payment entry listed on a merchant order.
type OrderPayment struct {
	ID     string
	Status string
}

// RemoteMerchantOrder wraps the payments of a single checkout session.
type RemoteMerchantOrder struct {
	ID       string
	Payments []OrderPayment
}

// LatestPaymentID returns the most recently listed payment id.
func (o *RemoteMerchantOrder) LatestPaymentID() (string, bool) {
	for i := len(o.Payments) - 1; i >= 0; i-- {
		if o.Payments[i].ID != "" {
			return o.Payments[i].ID, true
		}
	}
	return "", false
}

// Resolution is the outcome of resolving an event against the gateway.
// Kind is the kind of the originating event. A merchant order resolves to
// the payment it wraps, so Payment is set for both payment and merchant
// order kinds.
type Resolution struct {
	Kind              Kind
	RemoteID          string
	Payment           *RemotePayment
	Preapproval       *RemotePreapproval
	AuthorizedPayment *RemoteAuthorizedPayment
	MerchantOrder     *RemoteMerchantOrder
}

// RemoteStatus returns the status of the object the reducer acts on.
func (r *Resolution) RemoteStatus() string {
	switch r.Kind {
	case KindPayment, KindMerchantOrder:
		if r.Payment != nil {
			return r.Payment.Status
		}
	case KindPreapproval:
		if r.Preapproval != nil {
			return r.Preapproval.Status
		}
	case KindAuthorizedPayment:
		if r.AuthorizedPayment != nil {
			return r.AuthorizedPayment.Status
		}
	}
	return ""
}

// EntitlementID locates the entitlement the resolution refers to. The
// primary object is consulted first; an authorized payment falls back to
// its parent preapproval.
func (r *Resolution) EntitlementID() (uint, bool) {
	switch r.Kind {
	case KindPayment, KindMerchantOrder:
		if r.Payment != nil {
			return LocateEntitlementID(r.Payment.Metadata, r.Payment.ExternalReference)
		}
	case KindPreapproval:
		if r.Preapproval != nil {
			return LocateEntitlementID(r.Preapproval.Metadata, r.Preapproval.ExternalReference)
		}
	case KindAuthorizedPayment:
		if r.AuthorizedPayment != nil {
			if id, ok := LocateEntitlementID(r.AuthorizedPayment.Metadata, r.AuthorizedPayment.ExternalReference); ok {
				return id, true
			}
		}
		if r.Preapproval != nil {
			return LocateEntitlementID(r.Preapproval.Metadata, r.Preapproval.ExternalReference)
		}
	}
	return 0, false
}
