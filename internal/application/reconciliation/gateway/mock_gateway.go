package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/orris-inc/paysync/internal/domain/notification"
)

// MockReadAPI is an in-memory ReadAPI for tests and local development.
// Objects missing from the maps produce a 404 UpstreamError.
type MockReadAPI struct {
	mu                 sync.Mutex
	Payments           map[string]*notification.RemotePayment
	Preapprovals       map[string]*notification.RemotePreapproval
	AuthorizedPayments map[string]*notification.RemoteAuthorizedPayment
	// MerchantOrders holds one snapshot per poll; the last snapshot repeats.
	MerchantOrders map[string][]*notification.RemoteMerchantOrder
	Err            error

	calls map[string]int
}

func NewMockReadAPI() *MockReadAPI {
	return &MockReadAPI{
		Payments:           make(map[string]*notification.RemotePayment),
		Preapprovals:       make(map[string]*notification.RemotePreapproval),
		AuthorizedPayments: make(map[string]*notification.RemoteAuthorizedPayment),
		MerchantOrders:     make(map[string][]*notification.RemoteMerchantOrder),
		calls:              make(map[string]int),
	}
}

// Calls returns how many times path was requested.
func (m *MockReadAPI) Calls(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

func (m *MockReadAPI) record(path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[path]++
	if m.Err != nil {
		return m.calls[path], m.Err
	}
	return m.calls[path], nil
}

func notFound(path string) error {
	return &UpstreamError{Status: http.StatusNotFound, Body: `{"message":"not found"}`, Path: path}
}

func (m *MockReadAPI) GetPayment(ctx context.Context, id string) (*notification.RemotePayment, error) {
	path := fmt.Sprintf("/v1/payments/%s", id)
	if _, err := m.record(path); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[id]
	if !ok {
		return nil, notFound(path)
	}
	cp := *p
	return &cp, nil
}

func (m *MockReadAPI) GetPreapproval(ctx context.Context, id string) (*notification.RemotePreapproval, error) {
	path := fmt.Sprintf("/preapproval/%s", id)
	if _, err := m.record(path); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Preapprovals[id]
	if !ok {
		return nil, notFound(path)
	}
	cp := *p
	return &cp, nil
}

func (m *MockReadAPI) GetAuthorizedPayment(ctx context.Context, id string) (*notification.RemoteAuthorizedPayment, error) {
	path := fmt.Sprintf("/authorized_payments/%s", id)
	if _, err := m.record(path); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ap, ok := m.AuthorizedPayments[id]
	if !ok {
		return nil, notFound(path)
	}
	cp := *ap
	return &cp, nil
}

func (m *MockReadAPI) GetMerchantOrder(ctx context.Context, id string) (*notification.RemoteMerchantOrder, error) {
	path := fmt.Sprintf("/merchant_orders/%s", id)
	n, err := m.record(path)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshots, ok := m.MerchantOrders[id]
	if !ok || len(snapshots) == 0 {
		return nil, notFound(path)
	}
	idx := n - 1
	if idx >= len(snapshots) {
		idx = len(snapshots) - 1
	}
	cp := *snapshots[idx]
	cp.Payments = append([]notification.OrderPayment(nil), snapshots[idx].Payments...)
	return &cp, nil
}
