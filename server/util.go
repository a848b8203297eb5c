package server

import (
	"fmt"

	"github.com/flashbots/address-screener/types"
)

// DedupeAddresses drops repeated (chain, address) pairs, keeping the first occurrence
func DedupeAddresses(addresses []types.AddressInfo) []types.AddressInfo {
	seen := make(map[types.AddressInfo]bool, len(addresses))
	unique := make([]types.AddressInfo, 0, len(addresses))
	for _, addr := range addresses {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		unique = append(unique, addr)
	}
	return unique
}

func validateAddresses(addresses []types.AddressInfo, maxRequestSize int) error {
	if len(addresses) == 0 {
		return ErrEmptyRequest
	}
	if len(addresses) > maxRequestSize {
		return fmt.Errorf("%w: %d addresses, limit is %d", ErrRequestTooLarge, len(addresses), maxRequestSize)
	}
	for i, addr := range addresses {
		if addr.Chain == "" || addr.Address == "" {
			return fmt.Errorf("%w: item %d needs a chain and an address", ErrInvalidAddress, i)
		}
	}
	return nil
}
