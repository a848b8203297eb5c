package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/flashbots/address-screener/application"
	"github.com/flashbots/address-screener/types"
	"github.com/pkg/errors"
)

var Now = time.Now // used to mock time in tests

type ScreeningServer struct {
	server            *http.Server
	logger            log.Logger
	version           string
	startTime         time.Time
	listenAddress     string
	maxRequestSize    int
	shutdownDrainTime time.Duration
	screener          application.Screener
}

func NewScreeningServer(cfg Configuration) (*ScreeningServer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	scorer := application.NewRiskScorer(cfg.Logger, cfg.ScorerConfig, cfg.RiskApi, cfg.ClearanceCache)
	screener := application.NewAddressScreener(cfg.Logger, cfg.DB, scorer)

	s := &ScreeningServer{
		logger:            cfg.Logger,
		version:           cfg.Version,
		startTime:         Now(),
		listenAddress:     cfg.ListenAddress,
		maxRequestSize:    cfg.MaxRequestSize,
		shutdownDrainTime: cfg.ShutdownDrainTime,
		screener:          screener,
	}
	s.server = &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

func (s *ScreeningServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndexRequest)
	mux.HandleFunc("GET /health", s.handleHealthRequest)
	mux.HandleFunc("POST /screening/addresses", s.HandleScreeningRequest)
	mux.HandleFunc("OPTIONS /screening/addresses", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return CorsMiddleware(MetricsMiddleware(mux))
}

// Start blocks until the server is shut down
func (s *ScreeningServer) Start() error {
	s.logger.Info("Starting address screener", "version", s.version, "listenAddress", s.listenAddress)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown waits for the drain time so load balancers can take the instance out of rotation,
// then stops accepting requests and waits for in-flight ones.
func (s *ScreeningServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down address screener", "drainTime", s.shutdownDrainTime)
	select {
	case <-time.After(s.shutdownDrainTime):
	case <-ctx.Done():
	}
	return s.server.Shutdown(ctx)
}

func (s *ScreeningServer) handleIndexRequest(respw http.ResponseWriter, req *http.Request) {
	respw.Header().Set("Content-Type", "text/plain")
	respw.WriteHeader(http.StatusOK)
	respw.Write([]byte("address screener " + s.version))
}

func (s *ScreeningServer) handleHealthRequest(respw http.ResponseWriter, req *http.Request) {
	res := types.HealthResponse{
		Now:       Now(),
		StartTime: s.startTime,
		Version:   s.version,
	}
	writeJson(s.logger, respw, http.StatusOK, res)
}

func writeJson(logger log.Logger, respw http.ResponseWriter, status int, v interface{}) {
	jsonResp, err := json.Marshal(v)
	if err != nil {
		logger.Error("[writeJson] json error", "error", err)
		respw.WriteHeader(http.StatusInternalServerError)
		return
	}

	respw.Header().Set("Content-Type", "application/json")
	respw.WriteHeader(status)
	respw.Write(jsonResp)
}
