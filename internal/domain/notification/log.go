package notification

import (
	"context"
	"time"
)

// Outcome records how a notification delivery was handled.
type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeIdempotent       Outcome = "idempotent"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeUnmapped         Outcome = "unmapped"
	OutcomeRejected         Outcome = "rejected"
	OutcomeUpstreamError    Outcome = "upstream_error"
	OutcomePersistenceError Outcome = "persistence_error"
)

func (o Outcome) String() string {
	return string(o)
}

// Log is an audit record of one notification delivery.
type Log struct {
	ID                uint
	Kind              Kind
	RemoteID          string
	RequestID         string
	SignatureVerified bool
	Outcome           Outcome
	EntitlementID     *uint
	EntitlementStatus string
	RemoteStatus      string
	Error             string
	Query             map[string][]string
	Body              []byte
	CreatedAt         time.Time
}

// LogRepository stores notification audit records.
type LogRepository interface {
	Create(ctx context.Context, log *Log) error
	ListByEntitlement(ctx context.Context, entitlementID uint, limit int) ([]*Log, error)
}
