package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Whitelist is the static set of addresses that are always reported clean. It is built once at
// startup and never modified afterwards.
type Whitelist struct {
	addresses map[string]bool
}

func NewWhitelist(addresses []string) *Whitelist {
	w := &Whitelist{addresses: make(map[string]bool, len(addresses))}
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		w.addresses[addr] = true

		// Ensure that hex addresses are also indexed lowercase and checksummed
		if common.IsHexAddress(addr) {
			w.addresses[strings.ToLower(addr)] = true
			w.addresses[common.HexToAddress(addr).Hex()] = true
		}
	}
	return w
}

func (w *Whitelist) Contains(address string) bool {
	if w == nil {
		return false
	}
	return w.addresses[address]
}

func (w *Whitelist) Len() int {
	if w == nil {
		return 0
	}
	return len(w.addresses)
}

// LoadWhitelist fetches every source and concatenates the address lists. A source is a yaml (or
// json) list of address strings.
func LoadWhitelist(ctx context.Context, fetchers ...Fetcher) ([]string, error) {
	var addresses []string
	for _, fetcher := range fetchers {
		bts, err := fetcher.Fetch(ctx)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("fetch whitelist %v", fetcher))
		}
		var list []string
		if err := yaml.Unmarshal(bts, &list); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("parse whitelist %v", fetcher))
		}
		addresses = append(addresses, list...)
	}
	return addresses, nil
}
