package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alicebob/miniredis"
	"github.com/ethereum/go-ethereum/log"
	"github.com/flashbots/address-screener/adapters/trm"
	"github.com/flashbots/address-screener/adapters/webfile"
	"github.com/flashbots/address-screener/application"
	"github.com/flashbots/address-screener/database"
	"github.com/flashbots/address-screener/metrics"
	"github.com/flashbots/address-screener/server"
)

var (
	version = "dev" // is set during build process

	// defaults
	defaultDebug                = os.Getenv("DEBUG") == "1"
	defaultLogJSON              = os.Getenv("LOG_JSON") == "1"
	defaultListenAddress        = "127.0.0.1:3003"
	defaultMetricsAddress       = "127.0.0.1:9090"
	defaultScreeningBatchSize   = 5
	defaultScreeningConcurrency = 4
	defaultScreeningTimeoutSecs = 30
	defaultRiskScoreLimit       = 10
	defaultRequestBatchSize     = 100
	defaultClearanceTTL         = 2 * time.Hour
	defaultClearanceCacheSize   = 1000
	defaultShutdownDrainSeconds = 0
	defaultServiceName          = getEnvAsStrOrDefault("SERVICE_NAME", "address-screener")
	defaultPsqlDsn              = getEnvAsStrOrDefault("POSTGRES_DSN", os.Getenv("DATABASE_URL"))

	// cli flags
	versionPtr           = flag.Bool("version", false, "just print the program version")
	listenAddress        = flag.String("listen", getEnvAsStrOrDefault("LISTEN_ADDR", defaultListenAddress), "Listen address")
	metricsAddress       = flag.String("metrics", getEnvAsStrOrDefault("METRICS_ADDR", defaultMetricsAddress), "Listen address for /metrics (empty to disable)")
	psqlDsn              = flag.String("psql", defaultPsqlDsn, "Postgres DSN (empty to use an in-memory store)")
	redisUrl             = flag.String("redis", os.Getenv("REDIS_URL"), "Redis address for the clearance cache (empty for in-process cache, 'dev' for integrated in-memory redis)")
	screeningKey         = flag.String("screeningKey", os.Getenv("SCREENING_KEY"), "API key of the screening api")
	screeningUrl         = flag.String("screeningUrl", getEnvAsStrOrDefault("SCREENING_URL", trm.DefaultUrl), "URL of the screening api")
	screeningBatchSize   = flag.Int("screeningBatchSize", getEnvAsIntOrDefault("SCREENING_BATCH_SIZE", defaultScreeningBatchSize), "addresses per screening api call")
	screeningConcurrency = flag.Int("screeningConcurrency", getEnvAsIntOrDefault("SCREENING_CONCURRENCY", defaultScreeningConcurrency), "screening api calls in flight per request")
	screeningTimeoutSecs = flag.Int("screeningTimeoutSeconds", getEnvAsIntOrDefault("SCREENING_TIMEOUT_SECONDS", defaultScreeningTimeoutSecs), "screening api client timeout in seconds")
	riskScoreLimit       = flag.Int("riskScoreLimit", getEnvAsIntOrDefault("RISK_SCORE_LIMIT", -1), "risk score above which an address is blacklisted (default 10)")
	requestBatchSize     = flag.Int("requestBatchSize", getEnvAsIntOrDefault("REQUEST_BATCH_SIZE", 0), "maximum addresses per screening request (default 100)")
	clearanceTTL         = flag.Duration("clearanceTTL", getEnvAsDurationOrDefault("CLEARANCE_TTL", defaultClearanceTTL), "how long a clean verdict is cached")
	clearanceCacheSize   = flag.Int("clearanceCacheSize", getEnvAsIntOrDefault("CLEARANCE_CACHE_SIZE", defaultClearanceCacheSize), "entries of the in-process clearance cache")
	whitelistFile        = flag.String("whitelistFile", os.Getenv("WHITELIST_FILE"), "file with a list of always clean addresses")
	whitelistUrl         = flag.String("whitelistUrl", os.Getenv("WHITELIST_URL"), "URL of a list of always clean addresses")
	configFile           = flag.String("config", os.Getenv("CONFIG_FILE"), "yaml or json config file")
	shutdownDrainSeconds = flag.Int("shutdownDrainSeconds", getEnvAsIntOrDefault("SHUTDOWN_DRAIN_SECONDS", defaultShutdownDrainSeconds), "seconds to keep serving after a shutdown signal")
	debugPtr             = flag.Bool("debug", defaultDebug, "print debug output")
	logJSONPtr           = flag.Bool("log-json", defaultLogJSON, "log in JSON")
	serviceName          = flag.String("serviceName", defaultServiceName, "name of the service which will be used in the logs")
)

func main() {
	flag.Parse()

	logLevel := log.LevelInfo
	if *debugPtr {
		logLevel = log.LevelDebug
	}
	if *logJSONPtr {
		log.SetDefault(log.NewLogger(log.JSONHandlerWithLevel(os.Stderr, logLevel)))
	} else {
		log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, logLevel, true)))
	}
	logger := log.New("service", *serviceName)

	// Perhaps print only the version
	if *versionPtr {
		logger.Info("address-screener", "version", version)
		return
	}

	logger.Info("Init address-screener", "version", version)
	ctx := context.Background()

	fileConfig, err := server.ReadFileConfig(*configFile)
	if err != nil {
		logger.Crit("Cannot read config file", "file", *configFile, "error", err)
	}
	applyFileConfig(fileConfig)

	if *screeningKey == "" {
		logger.Crit("Cannot use the screening api without an api key.")
	}

	whitelist, err := loadWhitelist(ctx, fileConfig.WhitelistedAddresses)
	if err != nil {
		logger.Crit("Cannot load whitelist", "error", err)
	}
	logger.Info("Whitelist loaded", "entries", whitelist.Len())

	// Setup database
	var db database.Store
	if *psqlDsn == "" {
		logger.Warn("No postgres DSN, blacklisted addresses are kept in memory only")
		db = database.NewMemStore()
	} else {
		db, err = database.NewPostgresStore(ctx, *psqlDsn)
		if err != nil {
			logger.Crit("Cannot connect to postgres", "error", err)
		}
	}
	defer db.Close()

	clearanceCache, err := newClearanceCache(logger)
	if err != nil {
		logger.Crit("Cannot setup clearance cache", "error", err)
	}

	if *metricsAddress != "" {
		go func() {
			logger.Info("Starting metrics server", "listenAddress", *metricsAddress)
			if err := metrics.DefaultServer(*metricsAddress).ListenAndServe(); err != nil {
				logger.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	cfg := server.Configuration{
		DB:             db,
		ClearanceCache: clearanceCache,
		RiskApi:        trm.NewClient(logger, *screeningUrl, *screeningKey, time.Duration(*screeningTimeoutSecs)*time.Second),
		ScorerConfig: &application.RiskScorerConfig{
			BatchSize:      *screeningBatchSize,
			Concurrency:    *screeningConcurrency,
			RiskScoreLimit: *riskScoreLimit,
			ClearanceTTL:   *clearanceTTL,
			Whitelist:      whitelist,
		},
		ListenAddress:     *listenAddress,
		Logger:            logger,
		MaxRequestSize:    *requestBatchSize,
		Version:           version,
		ShutdownDrainTime: time.Duration(*shutdownDrainSeconds) * time.Second,
	}

	// Start the endpoint
	s, err := server.NewScreeningServer(cfg)
	if err != nil {
		logger.Crit("Server init error", "error", err)
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownDrainTime+30*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting address-screener...", "screeningUrl", *screeningUrl, "riskScoreLimit", *riskScoreLimit)
	if err := s.Start(); err != nil {
		logger.Crit("Server error", "error", err)
	}
}

// applyFileConfig fills in settings that were not given by flag or env
func applyFileConfig(fc *server.FileConfig) {
	if *psqlDsn == "" {
		*psqlDsn = fc.DbUrl
	}
	if *screeningKey == "" {
		*screeningKey = fc.ScreenerApiKey
	}
	if *riskScoreLimit < 0 {
		*riskScoreLimit = defaultRiskScoreLimit
		if fc.RiskScoreLimit != nil {
			*riskScoreLimit = *fc.RiskScoreLimit
		}
	}
	if *requestBatchSize <= 0 {
		*requestBatchSize = defaultRequestBatchSize
		if fc.RequestBatchSize > 0 {
			*requestBatchSize = fc.RequestBatchSize
		}
	}
}

func loadWhitelist(ctx context.Context, fromConfig []string) (*application.Whitelist, error) {
	var fetchers []application.Fetcher
	if *whitelistFile != "" {
		fetchers = append(fetchers, webfile.NewFileFetcher(*whitelistFile))
	}
	if *whitelistUrl != "" {
		fetchers = append(fetchers, webfile.NewFetcher(*whitelistUrl))
	}
	fetched, err := application.LoadWhitelist(ctx, fetchers...)
	if err != nil {
		return nil, err
	}
	return application.NewWhitelist(append(fromConfig, fetched...)), nil
}

func newClearanceCache(logger log.Logger) (application.ClearanceCache, error) {
	switch *redisUrl {
	case "":
		logger.Info("Using in-process clearance cache", "size", *clearanceCacheSize)
		return application.NewMemoryClearanceCache(*clearanceCacheSize)
	case "dev":
		logger.Info("Using integrated in-memory Redis instance")
		redisServer, err := miniredis.Run()
		if err != nil {
			return nil, err
		}
		return application.NewRedisClearanceCache(redisServer.Addr())
	default:
		logger.Info("Using redis clearance cache", "redisUrl", *redisUrl)
		return application.NewRedisClearanceCache(*redisUrl)
	}
}

func getEnvAsStrOrDefault(key string, defaultValue string) string {
	ret := os.Getenv(key)
	if ret == "" {
		ret = defaultValue
	}
	return ret
}

func getEnvAsIntOrDefault(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(name string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
		// plain seconds
		if value, err := strconv.Atoi(valueStr); err == nil {
			return time.Duration(value) * time.Second
		}
	}
	return defaultValue
}
