// Package gateway defines the read side of the payment gateway API used to
// resolve notifications into authoritative remote objects.
package gateway

import (
	"context"
	"fmt"

	"github.com/orris-inc/paysync/internal/domain/notification"
)

// ReadAPI fetches canonical remote objects by id.
type ReadAPI interface {
	GetPayment(ctx context.Context, id string) (*notification.RemotePayment, error)
	GetPreapproval(ctx context.Context, id string) (*notification.RemotePreapproval, error)
	GetAuthorizedPayment(ctx context.Context, id string) (*notification.RemoteAuthorizedPayment, error)
	GetMerchantOrder(ctx context.Context, id string) (*notification.RemoteMerchantOrder, error)
}

// UpstreamError reports a failed read against the gateway. Status is 0 when
// no HTTP response was received (timeout, connection failure).
type UpstreamError struct {
	Status int
	Body   string
	Path   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("gateway request %s failed: %v", e.Path, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway request %s returned %d: %v", e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway request %s returned %d", e.Path, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
