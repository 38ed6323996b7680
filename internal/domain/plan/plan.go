// Package plan holds the read-only plan catalog model the reconciliation
// engine consults when computing entitlement expiry.
package plan

import (
	"fmt"
	"time"
)

// Kind distinguishes one-time purchases from recurring subscriptions.
type Kind string

const (
	KindOneTime   Kind = "one_time"
	KindRecurring Kind = "recurring"
)

// IsValid checks if the plan kind is valid
func (k Kind) IsValid() bool {
	switch k {
	case KindOneTime, KindRecurring:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}

// IntervalUnit is the billing frequency unit of a recurring plan.
type IntervalUnit string

const (
	IntervalDays   IntervalUnit = "days"
	IntervalMonths IntervalUnit = "months"
)

const DefaultCurrency = "MXN"

// Plan is immutable once reconstructed.
type Plan struct {
	id                 uint
	code               string
	name               string
	kind               Kind
	price              int64 // minor units
	currency           string
	accessDurationDays *int
	intervalCount      int
	intervalUnit       IntervalUnit
}

// ReconstructParams carries persisted plan fields.
type ReconstructParams struct {
	ID                 uint
	Code               string
	Name               string
	Kind               Kind
	Price              int64
	Currency           string
	AccessDurationDays *int
	IntervalCount      int
	IntervalUnit       IntervalUnit
}

// Reconstruct rebuilds a plan from persistence.
func Reconstruct(p ReconstructParams) (*Plan, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}
	if p.Code == "" {
		return nil, fmt.Errorf("plan code is required")
	}
	if !p.Kind.IsValid() {
		return nil, fmt.Errorf("invalid plan kind: %s", p.Kind)
	}
	if p.Price < 0 {
		return nil, fmt.Errorf("plan price cannot be negative")
	}
	if p.AccessDurationDays != nil && *p.AccessDurationDays < 0 {
		return nil, fmt.Errorf("access duration cannot be negative")
	}

	currency := p.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	return &Plan{
		id:                 p.ID,
		code:               p.Code,
		name:               p.Name,
		kind:               p.Kind,
		price:              p.Price,
		currency:           currency,
		accessDurationDays: p.AccessDurationDays,
		intervalCount:      p.IntervalCount,
		intervalUnit:       p.IntervalUnit,
	}, nil
}

func (p *Plan) ID() uint                   { return p.id }
func (p *Plan) Code() string               { return p.code }
func (p *Plan) Name() string               { return p.name }
func (p *Plan) Kind() Kind                 { return p.kind }
func (p *Plan) Price() int64               { return p.price }
func (p *Plan) Currency() string           { return p.currency }
func (p *Plan) AccessDurationDays() *int   { return p.accessDurationDays }
func (p *Plan) IntervalCount() int         { return p.intervalCount }
func (p *Plan) IntervalUnit() IntervalUnit { return p.intervalUnit }

// IsOneTime reports whether the plan is a single purchase.
func (p *Plan) IsOneTime() bool {
	return p.kind == KindOneTime
}

// AccessDuration returns the access window granted by one approved payment.
// Only one-time plans with a positive duration have one.
func (p *Plan) AccessDuration() (time.Duration, bool) {
	if !p.IsOneTime() || p.accessDurationDays == nil || *p.accessDurationDays <= 0 {
		return 0, false
	}
	return time.Duration(*p.accessDurationDays) * 24 * time.Hour, true
}
