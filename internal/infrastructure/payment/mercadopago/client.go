// Package mercadopago implements the gateway read API over HTTP.
package mercadopago

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/orris-inc/paysync/internal/application/reconciliation/gateway"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/shared/logger"
	"github.com/orris-inc/paysync/internal/shared/utils/logutil"
)

const (
	defaultBaseURL = "https://api.mercadopago.com"
	defaultTimeout = 15 * time.Second
	// Maximum response body size read from the gateway (1MB)
	maxResponseSize = 1 << 20
	// Upstream bodies echoed back in errors are truncated to this length
	maxErrorBodySize = 2048
	userAgent        = "paysync"
)

// Config configures the gateway client.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// Client fetches payments, preapprovals, authorized payments and merchant
// orders. Every state read is issued fresh; only merchant order polls share
// in-flight requests.
type Client struct {
	baseURL     string
	accessToken string
	timeout     time.Duration
	httpClient  *http.Client
	orderGroup  singleflight.Group
	logger      logger.Interface
}

// NewClient creates a new gateway client
func NewClient(cfg Config, logger logger.Interface) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		timeout:     timeout,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Ensure Client implements gateway.ReadAPI
var _ gateway.ReadAPI = (*Client)(nil)

func (c *Client) GetPayment(ctx context.Context, id string) (*notification.RemotePayment, error) {
	doc, err := c.get(ctx, "/v1/payments/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return &notification.RemotePayment{
		ID:                doc.Get("id").String(),
		Status:            doc.Get("status").String(),
		StatusDetail:      doc.Get("status_detail").String(),
		ExternalReference: doc.Get("external_reference").String(),
		Metadata:          metadataOf(doc),
	}, nil
}

func (c *Client) GetPreapproval(ctx context.Context, id string) (*notification.RemotePreapproval, error) {
	doc, err := c.get(ctx, "/preapproval/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return &notification.RemotePreapproval{
		ID:                doc.Get("id").String(),
		Status:            doc.Get("status").String(),
		ExternalReference: doc.Get("external_reference").String(),
		Metadata:          metadataOf(doc),
		EndDate:           timeOf(doc.Get("auto_recurring.end_date")),
		NextPaymentDate:   timeOf(doc.Get("next_payment_date")),
	}, nil
}

// GetAuthorizedPayment reads a subscription charge. The charge's own payment
// status is preferred over the authorized payment's processing status.
func (c *Client) GetAuthorizedPayment(ctx context.Context, id string) (*notification.RemoteAuthorizedPayment, error) {
	doc, err := c.get(ctx, "/authorized_payments/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	status := doc.Get("payment.status").String()
	if status == "" {
		status = doc.Get("status").String()
	}

	return &notification.RemoteAuthorizedPayment{
		ID:                doc.Get("id").String(),
		PreapprovalID:     doc.Get("preapproval_id").String(),
		Status:            status,
		PaymentID:         doc.Get("payment.id").String(),
		ExternalReference: doc.Get("external_reference").String(),
		Metadata:          metadataOf(doc),
	}, nil
}

func (c *Client) GetMerchantOrder(ctx context.Context, id string) (*notification.RemoteMerchantOrder, error) {
	doc, err := c.getShared(ctx, "/merchant_orders/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	order := &notification.RemoteMerchantOrder{ID: doc.Get("id").String()}
	doc.Get("payments").ForEach(func(_, p gjson.Result) bool {
		order.Payments = append(order.Payments, notification.OrderPayment{
			ID:     p.Get("id").String(),
			Status: p.Get("status").String(),
		})
		return true
	})
	return order, nil
}

// get performs a GET against path and returns the parsed JSON document.
// Every failure is reported as a *gateway.UpstreamError.
func (c *Client) get(ctx context.Context, path string) (gjson.Result, error) {
	body, err := c.fetch(ctx, path)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(body), nil
}

// getShared is get for merchant order polls. Callers polling the same order
// join one in-flight request; a stale empty payment list only costs another
// poll attempt. The shared request runs detached from the caller that started
// it, bounded by the client timeout, so a cancelled caller never fails the
// others.
func (c *Client) getShared(ctx context.Context, path string) (gjson.Result, error) {
	ch := c.orderGroup.DoChan(path, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetch(fetchCtx, path)
	})

	select {
	case <-ctx.Done():
		return gjson.Result{}, &gateway.UpstreamError{Path: path, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return gjson.Result{}, res.Err
		}
		if res.Shared {
			c.logger.Debugw("merchant order read shared with concurrent poll", "path", path)
		}
		return gjson.ParseBytes(res.Val.([]byte)), nil
	}
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &gateway.UpstreamError{Path: path, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnw("gateway request failed", "path", path, "error", err)
		return nil, &gateway.UpstreamError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &gateway.UpstreamError{Status: resp.StatusCode, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debugw("gateway response",
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &gateway.UpstreamError{Status: resp.StatusCode, Path: path, Body: logutil.TruncateForLog(string(body), maxErrorBodySize)}
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, &gateway.UpstreamError{
			Status: resp.StatusCode,
			Path:   path,
			Body:   logutil.TruncateForLog(string(body), maxErrorBodySize),
			Err:    fmt.Errorf("response is not a JSON object"),
		}
	}

	return body, nil
}

func metadataOf(doc gjson.Result) map[string]any {
	m, ok := doc.Get("metadata").Value().(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// timeOf parses the gateway's RFC 3339 timestamps, which carry milliseconds
// and a numeric offset.
func timeOf(r gjson.Result) *time.Time {
	if r.Type != gjson.String || r.Str == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, r.Str)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05.000-0700", r.Str)
		if err != nil {
			return nil
		}
	}
	t = t.UTC()
	return &t
}
