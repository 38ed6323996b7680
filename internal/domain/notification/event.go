// Package notification models gateway notifications: the closed set of event
// kinds, the remote objects they resolve to, and how an entitlement is located
// from them.
package notification

// Kind identifies one of the four notification shapes the gateway sends.
type Kind string

const (
	KindPayment           Kind = "payment"
	KindPreapproval       Kind = "preapproval"
	KindAuthorizedPayment Kind = "authorized_payment"
	KindMerchantOrder     Kind = "merchant_order"
)

func (k Kind) String() string {
	return string(k)
}

// Event is a classified inbound notification. The set of implementations is
// closed: only this package can satisfy the interface.
type Event interface {
	Kind() Kind
	RemoteID() string
	isEvent()
}

// PaymentEvent announces a one-time or ad-hoc payment.
type PaymentEvent struct {
	PaymentID string
}

func (e PaymentEvent) Kind() Kind       { return KindPayment }
func (e PaymentEvent) RemoteID() string { return e.PaymentID }
func (PaymentEvent) isEvent()           {}

// PreapprovalEvent announces a change of a recurring subscription agreement.
type PreapprovalEvent struct {
	PreapprovalID string
}

func (e PreapprovalEvent) Kind() Kind       { return KindPreapproval }
func (e PreapprovalEvent) RemoteID() string { return e.PreapprovalID }
func (PreapprovalEvent) isEvent()           {}

// AuthorizedPaymentEvent announces one billing cycle charge of a subscription.
type AuthorizedPaymentEvent struct {
	AuthorizedPaymentID string
}

func (e AuthorizedPaymentEvent) Kind() Kind       { return KindAuthorizedPayment }
func (e AuthorizedPaymentEvent) RemoteID() string { return e.AuthorizedPaymentID }
func (AuthorizedPaymentEvent) isEvent()           {}

// MerchantOrderEvent announces an order wrapper that must be resolved to a payment.
type MerchantOrderEvent struct {
	OrderID string
}

func (e MerchantOrderEvent) Kind() Kind       { return KindMerchantOrder }
func (e MerchantOrderEvent) RemoteID() string { return e.OrderID }
func (MerchantOrderEvent) isEvent()           {}
