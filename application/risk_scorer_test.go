package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/flashbots/address-screener/adapters/trm"
	"github.com/flashbots/address-screener/types"
	"github.com/stretchr/testify/require"
)

type mockRiskApi struct {
	mu         sync.Mutex
	riskLevels map[string]int
	failBatch  int // 1-based number of the call that fails, 0 = never
	batches    [][]types.AddressInfo
}

func newMockRiskApi() *mockRiskApi {
	return &mockRiskApi{riskLevels: make(map[string]int)}
}

func (m *mockRiskApi) ScreenAddresses(ctx context.Context, batch []types.AddressInfo) ([]trm.AddressScreeningResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batch)
	if m.failBatch == len(m.batches) {
		return nil, errors.New("screening api unavailable")
	}

	results := make([]trm.AddressScreeningResponse, len(batch))
	for i, addr := range batch {
		results[i] = trm.AddressScreeningResponse{AddressSubmitted: addr.Address, Chain: addr.Chain}
		if level, found := m.riskLevels[addr.Id()]; found {
			results[i].AddressRiskIndicators = []trm.AddressRiskIndicator{{CategoryRiskScoreLevel: level}}
		}
	}
	return results, nil
}

func (m *mockRiskApi) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func newTestScorer(t *testing.T, api RiskApi, whitelist []string) (*RiskScorer, *MemoryClearanceCache) {
	cache, err := NewMemoryClearanceCache(100)
	require.Nil(t, err, err)
	cfg := &RiskScorerConfig{
		BatchSize:      2,
		Concurrency:    2,
		RiskScoreLimit: 10,
		ClearanceTTL:   time.Hour,
		Whitelist:      NewWhitelist(whitelist),
	}
	require.Nil(t, cfg.Validate())
	return NewRiskScorer(log.New(), cfg, api, cache), cache
}

func addressList(n int) []types.AddressInfo {
	addresses := make([]types.AddressInfo, n)
	for i := range addresses {
		addresses[i] = types.AddressInfo{Chain: "ethereum", Address: fmt.Sprintf("addr%d", i)}
	}
	return addresses
}

func TestRiskScorerBatchesAndPreservesOrder(t *testing.T) {
	api := newMockRiskApi()
	scorer, _ := newTestScorer(t, api, nil)
	addresses := addressList(5)
	api.riskLevels[addresses[3].Id()] = 15

	verdicts, err := scorer.IsBlacklisted(context.Background(), addresses)
	require.Nil(t, err, err)

	// 5 addresses with a batch size of 2
	require.Equal(t, 3, api.calls())
	require.Len(t, verdicts, 5)
	for i, v := range verdicts {
		require.Equal(t, addresses[i], v.Address)
		require.Equal(t, i == 3, v.IsBlacklisted)
	}
}

func TestRiskScorerCachesOnlyCleanVerdicts(t *testing.T) {
	ctx := context.Background()
	api := newMockRiskApi()
	scorer, cache := newTestScorer(t, api, nil)
	clean := types.AddressInfo{Chain: "ethereum", Address: "clean"}
	risky := types.AddressInfo{Chain: "ethereum", Address: "risky"}
	api.riskLevels[risky.Id()] = 11

	_, err := scorer.IsBlacklisted(ctx, []types.AddressInfo{clean, risky})
	require.Nil(t, err, err)

	found, _ := cache.Get(ctx, clean.Id())
	require.True(t, found)
	found, _ = cache.Get(ctx, risky.Id())
	require.False(t, found)

	// the clean address is served from the cache, the risky one is scored again
	verdicts, err := scorer.IsBlacklisted(ctx, []types.AddressInfo{clean, risky})
	require.Nil(t, err, err)
	require.Equal(t, 2, api.calls())
	require.Equal(t, []types.AddressInfo{risky}, api.batches[1])
	require.False(t, verdicts[0].IsBlacklisted)
	require.True(t, verdicts[1].IsBlacklisted)
}

func TestRiskScorerNoApiCallWhenEverythingIsKnownClean(t *testing.T) {
	ctx := context.Background()
	api := newMockRiskApi()
	scorer, cache := newTestScorer(t, api, []string{"whitelisted"})
	cached := types.AddressInfo{Chain: "bitcoin", Address: "cached"}
	require.Nil(t, cache.Put(ctx, cached.Id(), time.Hour))

	addresses := []types.AddressInfo{
		{Chain: "ethereum", Address: "whitelisted"},
		cached,
	}
	verdicts, err := scorer.IsBlacklisted(ctx, addresses)
	require.Nil(t, err, err)
	require.Equal(t, 0, api.calls())
	require.Equal(t, []types.Verdict{
		{Address: addresses[0], IsBlacklisted: false},
		{Address: cached, IsBlacklisted: false},
	}, verdicts)
}

func TestRiskScorerWhitelistBeatsApi(t *testing.T) {
	api := newMockRiskApi()
	scorer, cache := newTestScorer(t, api, []string{"sanctioned"})
	addr := types.AddressInfo{Chain: "ethereum", Address: "sanctioned"}
	api.riskLevels[addr.Id()] = 100

	verdicts, err := scorer.IsBlacklisted(context.Background(), []types.AddressInfo{addr})
	require.Nil(t, err, err)
	require.False(t, verdicts[0].IsBlacklisted)
	require.Equal(t, 0, api.calls())
	// bypassed addresses never populate the clearance cache
	require.Equal(t, 0, cache.Len())
}

func TestRiskScorerClearanceExpiry(t *testing.T) {
	defer setNowOffset(0)
	ctx := context.Background()
	api := newMockRiskApi()
	scorer, _ := newTestScorer(t, api, nil)
	addrC := types.AddressInfo{Chain: "ethereum", Address: "addrC"}

	_, err := scorer.IsBlacklisted(ctx, []types.AddressInfo{addrC})
	require.Nil(t, err, err)
	_, err = scorer.IsBlacklisted(ctx, []types.AddressInfo{addrC})
	require.Nil(t, err, err)
	require.Equal(t, 1, api.calls())

	setNowOffset(2 * time.Hour)
	_, err = scorer.IsBlacklisted(ctx, []types.AddressInfo{addrC})
	require.Nil(t, err, err)
	require.Equal(t, 2, api.calls())
}

func TestRiskScorerApiFailureAbortsCall(t *testing.T) {
	api := newMockRiskApi()
	api.failBatch = 2
	scorer, _ := newTestScorer(t, api, nil)

	verdicts, err := scorer.IsBlacklisted(context.Background(), addressList(6))
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "screening api unavailable")
	require.Nil(t, verdicts)
}

type shortApi struct{}

func (shortApi) ScreenAddresses(ctx context.Context, batch []types.AddressInfo) ([]trm.AddressScreeningResponse, error) {
	return []trm.AddressScreeningResponse{}, nil
}

func TestRiskScorerRejectsIncompleteApiResult(t *testing.T) {
	scorer, _ := newTestScorer(t, shortApi{}, nil)
	_, err := scorer.IsBlacklisted(context.Background(), addressList(1))
	require.NotNil(t, err)
}

func TestRiskScorerConfigValidate(t *testing.T) {
	valid := RiskScorerConfig{BatchSize: 5, Concurrency: 1, RiskScoreLimit: 10, ClearanceTTL: time.Hour}
	require.Nil(t, valid.Validate())

	tests := map[string]func(c *RiskScorerConfig){
		"zero batch size":     func(c *RiskScorerConfig) { c.BatchSize = 0 },
		"zero concurrency":    func(c *RiskScorerConfig) { c.Concurrency = 0 },
		"negative risk limit": func(c *RiskScorerConfig) { c.RiskScoreLimit = -1 },
		"zero ttl":            func(c *RiskScorerConfig) { c.ClearanceTTL = 0 },
	}
	for testName, mutate := range tests {
		t.Run(testName, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			require.NotNil(t, cfg.Validate())
		})
	}
}
