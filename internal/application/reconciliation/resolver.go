package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/paysync/internal/application/reconciliation/gateway"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// ErrOrderWithoutPayment is returned when a merchant order still lists no
// payment after the poll budget is exhausted.
var ErrOrderWithoutPayment = errors.New("merchant order has no payment")

// Resolver fetches the authoritative remote object for an event.
type Resolver struct {
	api    gateway.ReadAPI
	policy RetryPolicy
	clock  Clock
	logger logger.Interface
}

func NewResolver(api gateway.ReadAPI, policy RetryPolicy, clock Clock, logger logger.Interface) *Resolver {
	if clock == nil {
		clock = SystemClock()
	}
	return &Resolver{
		api:    api,
		policy: policy,
		clock:  clock,
		logger: logger,
	}
}

// Resolve returns the remote objects the reducer needs for event. Gateway
// failures surface as *gateway.UpstreamError.
func (r *Resolver) Resolve(ctx context.Context, event notification.Event) (*notification.Resolution, error) {
	res := &notification.Resolution{Kind: event.Kind(), RemoteID: event.RemoteID()}

	switch ev := event.(type) {
	case notification.PaymentEvent:
		payment, err := r.api.GetPayment(ctx, ev.PaymentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get payment %s: %w", ev.PaymentID, err)
		}
		res.Payment = payment

	case notification.PreapprovalEvent:
		pre, err := r.api.GetPreapproval(ctx, ev.PreapprovalID)
		if err != nil {
			return nil, fmt.Errorf("failed to get preapproval %s: %w", ev.PreapprovalID, err)
		}
		res.Preapproval = pre

	case notification.AuthorizedPaymentEvent:
		ap, err := r.api.GetAuthorizedPayment(ctx, ev.AuthorizedPaymentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get authorized payment %s: %w", ev.AuthorizedPaymentID, err)
		}
		res.AuthorizedPayment = ap

		if ap.PreapprovalID != "" {
			pre, err := r.api.GetPreapproval(ctx, ap.PreapprovalID)
			if err != nil {
				return nil, fmt.Errorf("failed to get preapproval %s: %w", ap.PreapprovalID, err)
			}
			res.Preapproval = pre
		}

	case notification.MerchantOrderEvent:
		order, paymentID, err := r.pollMerchantOrder(ctx, ev.OrderID)
		if err != nil {
			return nil, err
		}
		res.MerchantOrder = order

		payment, err := r.api.GetPayment(ctx, paymentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get payment %s of order %s: %w", paymentID, ev.OrderID, err)
		}
		res.Payment = payment

	default:
		return nil, fmt.Errorf("unsupported event kind: %s", event.Kind())
	}

	return res, nil
}

// pollMerchantOrder re-reads the order until it lists a payment or the
// attempt budget runs out.
func (r *Resolver) pollMerchantOrder(ctx context.Context, orderID string) (*notification.RemoteMerchantOrder, string, error) {
	attempts := r.policy.attempts()

	var order *notification.RemoteMerchantOrder
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := r.policy.Delay(attempt)
			if err := r.clock.Sleep(ctx, delay); err != nil {
				return nil, "", &gateway.UpstreamError{
					Path: fmt.Sprintf("/merchant_orders/%s", orderID),
					Err:  fmt.Errorf("poll interrupted: %w", err),
				}
			}
		}

		var err error
		order, err = r.api.GetMerchantOrder(ctx, orderID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to get merchant order %s: %w", orderID, err)
		}

		if paymentID, ok := order.LatestPaymentID(); ok {
			r.logger.Debugw("merchant order resolved to payment",
				"order_id", orderID,
				"payment_id", paymentID,
				"attempt", attempt+1,
			)
			return order, paymentID, nil
		}
	}

	r.logger.Warnw("merchant order has no payment after polling",
		"order_id", orderID,
		"attempts", attempts,
	)
	return order, "", ErrOrderWithoutPayment
}
