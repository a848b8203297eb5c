package database

import (
	"context"
	"sync"

	"github.com/flashbots/address-screener/types"
)

type memStore struct {
	Blacklisted map[string]BlacklistedEntry
	mutex       *sync.RWMutex
}

// NewMemStore returns a process-local store. Entries are lost on restart, so it is meant for
// development and tests only.
func NewMemStore() *memStore {
	return &memStore{
		Blacklisted: make(map[string]BlacklistedEntry),
		mutex:       &sync.RWMutex{},
	}
}

func (m *memStore) LookupBlacklisted(ctx context.Context, addresses []types.AddressInfo) ([]types.LookupResult, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return lookupResults(addresses, func(address string) bool {
		_, found := m.Blacklisted[address]
		return found
	}), nil
}

func (m *memStore) RecordBlacklisted(ctx context.Context, verdicts []types.Verdict) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, entry := range blacklistedEntries(verdicts) {
		if _, found := m.Blacklisted[entry.Address]; found {
			continue
		}
		m.Blacklisted[entry.Address] = entry
	}
	return nil
}

func (m *memStore) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.Blacklisted)
}

func (m *memStore) Close() error {
	return nil
}
