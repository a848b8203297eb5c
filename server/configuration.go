package server

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/flashbots/address-screener/application"
	"github.com/flashbots/address-screener/database"
)

type Configuration struct {
	DB                database.Store
	ClearanceCache    application.ClearanceCache
	RiskApi           application.RiskApi
	ScorerConfig      *application.RiskScorerConfig
	ListenAddress     string
	Logger            log.Logger
	MaxRequestSize    int // maximum number of addresses in one screening request
	Version           string
	ShutdownDrainTime time.Duration
}

func (c *Configuration) Validate() error {
	switch {
	case c.DB == nil:
		return fmt.Errorf("no durable store configured")
	case c.ClearanceCache == nil:
		return fmt.Errorf("no clearance cache configured")
	case c.RiskApi == nil:
		return fmt.Errorf("no screening api configured")
	case c.ScorerConfig == nil:
		return fmt.Errorf("no scorer configuration")
	case c.Logger == nil:
		return fmt.Errorf("no logger configured")
	case c.MaxRequestSize <= 0:
		return fmt.Errorf("request batch size must be positive, got %d", c.MaxRequestSize)
	}
	return c.ScorerConfig.Validate()
}
