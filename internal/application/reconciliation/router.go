// Package reconciliation turns gateway notifications into entitlement state
// changes: classification, signature verification, remote resolution and the
// versioned commit.
package reconciliation

import (
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/orris-inc/paysync/internal/domain/notification"
)

// ErrUnrecognized is returned when no event kind and remote id can be
// extracted from a notification.
var ErrUnrecognized = errors.New("unrecognized notification")

// Inbound is a raw notification as received by the webhook endpoint.
type Inbound struct {
	Query     url.Values
	Body      []byte
	Signature string
	RequestID string
}

// kindSignals lists the topic aliases in classification priority order.
var kindSignals = []struct {
	kind    notification.Kind
	aliases []string
	// resource path fragment identifying the kind in a resource URL
	resource string
}{
	{notification.KindPreapproval, []string{"preapproval", "subscription_preapproval"}, "/preapproval/"},
	{notification.KindAuthorizedPayment, []string{"subscription_authorized_payment", "authorized_payment"}, "/authorized_payments/"},
	{notification.KindPayment, []string{"payment"}, "/payments/"},
	{notification.KindMerchantOrder, []string{"merchant_order", "topic_merchant_order_wh"}, "/merchant_orders/"},
}

// Classify extracts a typed event from the overlapping query and body signals.
func Classify(in Inbound) (notification.Event, error) {
	var body gjson.Result
	if len(in.Body) > 0 && gjson.ValidBytes(in.Body) {
		body = gjson.ParseBytes(in.Body)
	}

	resource := firstNonEmpty(body.Get("resource").String(), in.Query.Get("resource"))
	topics := collectTopics(in.Query, body)

	kind, ok := classifyKind(topics, resource)
	if !ok {
		return nil, ErrUnrecognized
	}

	id := extractRemoteID(in.Query, body, resource)
	if id == "" {
		return nil, ErrUnrecognized
	}

	switch kind {
	case notification.KindPreapproval:
		return notification.PreapprovalEvent{PreapprovalID: id}, nil
	case notification.KindAuthorizedPayment:
		return notification.AuthorizedPaymentEvent{AuthorizedPaymentID: id}, nil
	case notification.KindPayment:
		return notification.PaymentEvent{PaymentID: id}, nil
	default:
		return notification.MerchantOrderEvent{OrderID: id}, nil
	}
}

func collectTopics(query url.Values, body gjson.Result) []string {
	candidates := []string{
		query.Get("topic"),
		query.Get("type"),
		body.Get("type").String(),
		body.Get("topic").String(),
	}
	// actions look like "payment.created" or "updated"
	if action := body.Get("action").String(); action != "" {
		if prefix, _, found := strings.Cut(action, "."); found {
			candidates = append(candidates, prefix)
		}
	}

	topics := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			topics = append(topics, c)
		}
	}
	return topics
}

func classifyKind(topics []string, resource string) (notification.Kind, bool) {
	resourcePath := resource
	if u, err := url.Parse(resource); err == nil && u.Path != "" {
		resourcePath = u.Path
	}
	resourcePath = "/" + strings.Trim(resourcePath, "/") + "/"

	for _, signal := range kindSignals {
		for _, topic := range topics {
			for _, alias := range signal.aliases {
				if topic == alias {
					return signal.kind, true
				}
			}
		}
		if resource != "" && strings.Contains(resourcePath, signal.resource) {
			return signal.kind, true
		}
	}
	return "", false
}

func extractRemoteID(query url.Values, body gjson.Result, resource string) string {
	if id := scalarString(body.Get("data.id")); id != "" {
		return id
	}
	if id := strings.TrimSpace(query.Get("data.id")); id != "" {
		return id
	}
	if id := strings.TrimSpace(query.Get("id")); id != "" {
		return id
	}
	// new-style feeds carry the notification id at the top level next to data
	if !body.Get("data").Exists() {
		if id := scalarString(body.Get("id")); id != "" {
			return id
		}
	}
	if resource != "" {
		resourcePath := resource
		if u, err := url.Parse(resource); err == nil && u.Path != "" {
			resourcePath = u.Path
		}
		last := path.Base(strings.TrimRight(resourcePath, "/"))
		if last != "." && last != "/" {
			return last
		}
	}
	return ""
}

func scalarString(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number:
		return strings.TrimSpace(r.String())
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
