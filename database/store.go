package database

import (
	"context"

	"github.com/flashbots/address-screener/types"
)

// Store is the durable blacklist. It only ever holds addresses proven blacklisted: an address
// without an entry is unknown, never known clean.
type Store interface {
	// LookupBlacklisted returns one result per input address, in input order.
	LookupBlacklisted(ctx context.Context, addresses []types.AddressInfo) ([]types.LookupResult, error)
	// RecordBlacklisted persists the blacklisted verdicts of the batch in a single transaction.
	// Clean verdicts are dropped. Recording an address twice is a no-op.
	RecordBlacklisted(ctx context.Context, verdicts []types.Verdict) error
	Close() error
}

// blacklistedEntries picks the verdicts that belong in the durable store
func blacklistedEntries(verdicts []types.Verdict) []BlacklistedEntry {
	entries := make([]BlacklistedEntry, 0, len(verdicts))
	for _, v := range verdicts {
		if !v.IsBlacklisted {
			continue
		}
		entries = append(entries, BlacklistedEntry{
			Address: v.Address.Address,
			Chain:   v.Address.Chain,
		})
	}
	return entries
}

func lookupResults(addresses []types.AddressInfo, isKnown func(address string) bool) []types.LookupResult {
	results := make([]types.LookupResult, len(addresses))
	for i, addr := range addresses {
		results[i] = types.LookupResult{Address: addr, Status: types.LookupUnknown}
		if isKnown(addr.Address) {
			results[i].Status = types.LookupBlacklisted
		}
	}
	return results
}
