package testutils

import (
	"context"
	"sync"

	"github.com/flashbots/address-screener/database"
	"github.com/flashbots/address-screener/types"
)

// MockStore wraps a store, counts calls and can inject failures
type MockStore struct {
	database.Store

	mu          sync.Mutex
	LookupErr   error
	RecordErr   error
	LookupCalls int
	RecordCalls int
}

func NewMockStore(store database.Store) *MockStore {
	return &MockStore{Store: store}
}

func (m *MockStore) LookupBlacklisted(ctx context.Context, addresses []types.AddressInfo) ([]types.LookupResult, error) {
	m.mu.Lock()
	m.LookupCalls++
	err := m.LookupErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.Store.LookupBlacklisted(ctx, addresses)
}

func (m *MockStore) RecordBlacklisted(ctx context.Context, verdicts []types.Verdict) error {
	m.mu.Lock()
	m.RecordCalls++
	err := m.RecordErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.Store.RecordBlacklisted(ctx, verdicts)
}
