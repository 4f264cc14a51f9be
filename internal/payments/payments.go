package payments

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Gateway models the hold/capture/cancel flow for a ride fare. Settlement
// is a best-effort side effect of the ride lifecycle, never a gate on it.
type Gateway interface {
	Hold(ctx context.Context, amount int64, currency, customerID string) (string, error)
	Capture(ctx context.Context, holdID string) error
	Cancel(ctx context.Context, holdID string) error
}

// MockGateway simulates a provider with a fixed short delay and guaranteed
// success, the same behavior the client payment screen fakes.
type MockGateway struct {
	Delay time.Duration

	mu    sync.Mutex
	seq   int
	holds map[string]int64
}

func NewMockGateway() *MockGateway {
	return &MockGateway{Delay: 100 * time.Millisecond, holds: make(map[string]int64)}
}

func (m *MockGateway) wait(ctx context.Context) error {
	if m.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(m.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockGateway) Hold(ctx context.Context, amount int64, currency, customerID string) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("mock_hold_%d", m.seq)
	m.holds[id] = amount
	return id, nil
}

func (m *MockGateway) Capture(ctx context.Context, holdID string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holds[holdID]; !ok {
		return fmt.Errorf("unknown hold %s", holdID)
	}
	delete(m.holds, holdID)
	return nil
}

func (m *MockGateway) Cancel(ctx context.Context, holdID string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holds, holdID)
	return nil
}
