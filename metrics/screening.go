package metrics

import (
	"time"

	"github.com/VictoriaMetrics/metrics"
)

var (
	durableHits          = metrics.NewCounter("durable_store_hits_total")
	durableMisses        = metrics.NewCounter("durable_store_misses_total")
	clearanceHits        = metrics.NewCounter("clearance_cache_hits_total")
	clearanceMisses      = metrics.NewCounter("clearance_cache_misses_total")
	whitelistBypass      = metrics.NewCounter("whitelist_bypass_total")
	screeningApiRequests = metrics.NewCounter("screening_api_requests_total")
	screeningApiErrors   = metrics.NewCounter("screening_api_errors_total")
	screeningApiDuration = metrics.NewHistogram("screening_api_duration_seconds")
	blacklisted          = metrics.NewCounter("addresses_blacklisted_total")
)

func AddDurableHits(n int)   { durableHits.Add(n) }
func AddDurableMisses(n int) { durableMisses.Add(n) }

func IncClearanceHit()  { clearanceHits.Inc() }
func IncClearanceMiss() { clearanceMisses.Inc() }

func IncWhitelistBypass() { whitelistBypass.Inc() }

func IncBlacklisted() { blacklisted.Inc() }

// ObserveScreeningApiRequest records one outbound scoring api call
func ObserveScreeningApiRequest(start time.Time, err error) {
	screeningApiRequests.Inc()
	screeningApiDuration.UpdateDuration(start)
	if err != nil {
		screeningApiErrors.Inc()
	}
}
