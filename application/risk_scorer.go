package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/flashbots/address-screener/adapters/trm"
	"github.com/flashbots/address-screener/metrics"
	"github.com/flashbots/address-screener/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RiskApi is the external scoring api. Responses are aligned with the submitted batch.
type RiskApi interface {
	ScreenAddresses(ctx context.Context, batch []types.AddressInfo) ([]trm.AddressScreeningResponse, error)
}

// RiskScorerConfig is built once at startup and shared by every request
type RiskScorerConfig struct {
	// BatchSize is the number of addresses sent per scoring api call
	BatchSize int
	// Concurrency bounds the api calls in flight for a single request
	Concurrency int
	// RiskScoreLimit: an address is blacklisted if any reported risk score is above it
	RiskScoreLimit int
	// ClearanceTTL is how long a clean api verdict is trusted
	ClearanceTTL time.Duration
	Whitelist    *Whitelist
}

func (c *RiskScorerConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("screening batch size must be positive, got %d", c.BatchSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("screening concurrency must be positive, got %d", c.Concurrency)
	}
	if c.RiskScoreLimit < 0 {
		return fmt.Errorf("risk score limit must not be negative, got %d", c.RiskScoreLimit)
	}
	if c.ClearanceTTL <= 0 {
		return fmt.Errorf("clearance ttl must be positive, got %s", c.ClearanceTTL)
	}
	return nil
}

// RiskScorer resolves addresses with unknown durable status: whitelisted and recently cleared
// addresses are clean without an api call, everything else is scored by the api.
type RiskScorer struct {
	cfg    *RiskScorerConfig
	api    RiskApi
	cache  ClearanceCache
	logger log.Logger
}

func NewRiskScorer(logger log.Logger, cfg *RiskScorerConfig, api RiskApi, cache ClearanceCache) *RiskScorer {
	return &RiskScorer{
		cfg:    cfg,
		api:    api,
		cache:  cache,
		logger: logger.New("component", "RiskScorer"),
	}
}

// IsBlacklisted returns one verdict per input address, in input order. If any api call fails the
// whole call fails and no verdicts are returned.
func (s *RiskScorer) IsBlacklisted(ctx context.Context, addresses []types.AddressInfo) ([]types.Verdict, error) {
	verdicts := make([]types.Verdict, len(addresses))
	toScore := make([]int, 0, len(addresses))
	for i, addr := range addresses {
		verdicts[i] = types.Verdict{Address: addr, IsBlacklisted: false}
		if s.cfg.Whitelist.Contains(addr.Address) {
			metrics.IncWhitelistBypass()
			s.logger.Debug("[RiskScorer] always whitelisted address", "address", addr.Address)
			continue
		}
		if s.isCleared(ctx, addr) {
			continue
		}
		toScore = append(toScore, i)
	}

	if len(toScore) == 0 {
		return verdicts, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for start := 0; start < len(toScore); start += s.cfg.BatchSize {
		batchIdx := toScore[start:min(start+s.cfg.BatchSize, len(toScore))]
		batchNum := start / s.cfg.BatchSize
		g.Go(func() error {
			return s.scoreBatch(gctx, batchNum, batchIdx, addresses, verdicts)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

func (s *RiskScorer) isCleared(ctx context.Context, addr types.AddressInfo) bool {
	cleared, err := s.cache.Get(ctx, addr.Id())
	if err != nil {
		s.logger.Warn("[RiskScorer] clearance cache lookup failed", "address", addr.Address, "error", err)
		cleared = false
	}
	if cleared {
		metrics.IncClearanceHit()
	} else {
		metrics.IncClearanceMiss()
	}
	return cleared
}

// scoreBatch writes the verdicts for the given indices. Each batch owns its indices, so batches
// can run concurrently on the same slice.
func (s *RiskScorer) scoreBatch(ctx context.Context, batchNum int, batchIdx []int, addresses []types.AddressInfo, verdicts []types.Verdict) error {
	batch := make([]types.AddressInfo, len(batchIdx))
	for j, i := range batchIdx {
		batch[j] = addresses[i]
	}

	s.logger.Info("[RiskScorer] sending batch to the screening api", "batch", batchNum, "size", len(batch))
	results, err := s.api.ScreenAddresses(ctx, batch)
	if err != nil {
		return errors.Wrapf(err, "screening batch %d", batchNum)
	}
	if len(results) != len(batch) {
		return fmt.Errorf("screening batch %d: got %d results for %d addresses", batchNum, len(results), len(batch))
	}

	for j, res := range results {
		addr := batch[j]
		blacklisted := res.ExceedsRiskLimit(s.cfg.RiskScoreLimit)
		verdicts[batchIdx[j]].IsBlacklisted = blacklisted
		if blacklisted {
			metrics.IncBlacklisted()
			s.logger.Info("[RiskScorer] address blacklisted", "address", addr.Address, "chain", addr.Chain)
			continue
		}
		if err := s.cache.Put(ctx, addr.Id(), s.cfg.ClearanceTTL); err != nil {
			s.logger.Warn("[RiskScorer] clearance cache write failed", "address", addr.Address, "error", err)
		}
	}
	return nil
}
