package application

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/flashbots/address-screener/database"
	"github.com/flashbots/address-screener/metrics"
	"github.com/flashbots/address-screener/types"
)

type Screener interface {
	IsBlacklisted(ctx context.Context, addresses []types.AddressInfo) ([]types.Verdict, error)
}

// AddressScreener answers screening requests from the durable store first. The store is only
// trusted for positives; every address it does not know is handed to the scorer, and new
// positives from the scorer are recorded.
type AddressScreener struct {
	store  database.Store
	scorer Screener
	logger log.Logger
}

func NewAddressScreener(logger log.Logger, store database.Store, scorer Screener) *AddressScreener {
	return &AddressScreener{
		store:  store,
		scorer: scorer,
		logger: logger.New("component", "AddressScreener"),
	}
}

// IsBlacklisted returns exactly one verdict per input address, in input order, or an error.
func (a *AddressScreener) IsBlacklisted(ctx context.Context, addresses []types.AddressInfo) ([]types.Verdict, error) {
	if len(addresses) == 0 {
		return []types.Verdict{}, nil
	}

	lookup, err := a.store.LookupBlacklisted(ctx, addresses)
	if err != nil {
		return nil, err
	}
	if len(lookup) != len(addresses) {
		return nil, fmt.Errorf("durable lookup returned %d results for %d addresses", len(lookup), len(addresses))
	}

	notFound := make([]int, 0, len(addresses))
	for i, res := range lookup {
		if res.NotFound() {
			notFound = append(notFound, i)
		}
	}
	metrics.AddDurableHits(len(addresses) - len(notFound))
	metrics.AddDurableMisses(len(notFound))

	// every address is a known blacklist entry
	if len(notFound) == 0 {
		verdicts := make([]types.Verdict, len(lookup))
		for i, res := range lookup {
			verdicts[i] = res.Verdict()
		}
		return verdicts, nil
	}

	// nothing known, score everything
	if len(notFound) == len(addresses) {
		return a.scoreAndRecord(ctx, addresses)
	}

	missing := make([]types.AddressInfo, len(notFound))
	for j, i := range notFound {
		missing[j] = addresses[i]
	}
	a.logger.Debug("[AddressScreener] partial durable hit", "total", len(addresses), "missing", len(missing))

	scored, err := a.scoreAndRecord(ctx, missing)
	if err != nil {
		return nil, err
	}

	verdicts := make([]types.Verdict, len(addresses))
	for i, res := range lookup {
		if !res.NotFound() {
			verdicts[i] = res.Verdict()
		}
	}
	for j, i := range notFound {
		verdicts[i] = scored[j]
	}
	return verdicts, nil
}

func (a *AddressScreener) scoreAndRecord(ctx context.Context, addresses []types.AddressInfo) ([]types.Verdict, error) {
	verdicts, err := a.scorer.IsBlacklisted(ctx, addresses)
	if err != nil {
		return nil, err
	}
	if len(verdicts) != len(addresses) {
		return nil, fmt.Errorf("scorer returned %d verdicts for %d addresses", len(verdicts), len(addresses))
	}
	if err := a.store.RecordBlacklisted(ctx, verdicts); err != nil {
		return nil, err
	}
	return verdicts, nil
}
