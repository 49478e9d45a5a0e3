// Package app wires configuration, clients, and services into a runnable
// application core shared by the server binary and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benmercer/commodex/internal/cache"
	"github.com/benmercer/commodex/internal/clients/alphavantage"
	"github.com/benmercer/commodex/internal/clients/commodityprice"
	"github.com/benmercer/commodex/internal/clients/fmp"
	"github.com/benmercer/commodex/internal/clients/gemini"
	"github.com/benmercer/commodex/internal/clients/marketaux"
	"github.com/benmercer/commodex/internal/clients/yahoo"
	"github.com/benmercer/commodex/internal/common"
	"github.com/benmercer/commodex/internal/interfaces"
	"github.com/benmercer/commodex/internal/services/market"
	"github.com/benmercer/commodex/internal/services/news"
	"github.com/benmercer/commodex/internal/symbols"
)

// App holds all initialized clients and services. It is the shared core
// used by cmd/commodex-server and by handler tests.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	Cache         *cache.Cache
	Mapper        *symbols.Mapper
	MarketService interfaces.MarketService
	NewsService   interfaces.NewsService
	Market        *market.Service
	StartupTime   time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, clients, and services. Clients whose
// vendor needs a key are only constructed when a usable key is present,
// so a keyless deployment degrades to Yahoo plus the synthetic tier
// instead of hammering vendors with doomed requests.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Resolve config path: flag, then COMMODEX_CONFIG, then binary dir.
	if configPath == "" {
		configPath = os.Getenv("COMMODEX_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "commodex.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/commodex.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	mapper := symbols.NewMapper()

	c := cache.New(
		cache.WithTTL(config.Cache.GetTTL()),
		cache.WithSweepInterval(config.Cache.GetSweepInterval()),
	)

	var (
		quoteSources  []interfaces.QuoteSource
		seriesSources []interfaces.SeriesSource
		bulkSources   []interfaces.BulkSource
		newsSources   []interfaces.NewsSource
	)

	if config.Clients.FMP.HasKey() {
		fmpClient := fmp.NewClient(config.Clients.FMP.APIKey, mapper,
			fmp.WithLogger(logger),
			fmp.WithRateLimit(config.Clients.FMP.GetRateLimit()),
			fmp.WithTimeout(config.Clients.FMP.GetTimeout()),
		)
		quoteSources = append(quoteSources, fmpClient)
		seriesSources = append(seriesSources, fmpClient)
		bulkSources = append(bulkSources, fmpClient)
		newsSources = append(newsSources, fmpClient)
	} else {
		logger.Warn().Msg("FMP API key not configured - primary source disabled")
	}

	// Yahoo needs no key and always participates.
	yahooClient := yahoo.NewClient(mapper,
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.GetRateLimit()),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)
	quoteSources = append(quoteSources, yahooClient)
	seriesSources = append(seriesSources, yahooClient)

	if config.Clients.AlphaVantage.HasKey() {
		avClient := alphavantage.NewClient(config.Clients.AlphaVantage.APIKey, mapper,
			alphavantage.WithLogger(logger),
			alphavantage.WithRateLimit(config.Clients.AlphaVantage.GetRateLimit()),
			alphavantage.WithTimeout(config.Clients.AlphaVantage.GetTimeout()),
		)
		quoteSources = append(quoteSources, avClient)
		seriesSources = append(seriesSources, avClient)
		newsSources = append(newsSources, avClient)
	} else {
		logger.Warn().Msg("AlphaVantage API key not configured - source disabled")
	}

	if config.Clients.CommodityPrice.HasKey() {
		cpClient := commodityprice.NewClient(config.Clients.CommodityPrice.APIKey, mapper,
			commodityprice.WithLogger(logger),
			commodityprice.WithRateLimit(config.Clients.CommodityPrice.GetRateLimit()),
			commodityprice.WithTimeout(config.Clients.CommodityPrice.GetTimeout()),
		)
		quoteSources = append(quoteSources, cpClient)
		bulkSources = append(bulkSources, cpClient)
	} else {
		logger.Warn().Msg("CommodityPriceAPI key not configured - source disabled")
	}

	if config.Clients.Marketaux.HasKey() {
		newsSources = append(newsSources, marketaux.NewClient(config.Clients.Marketaux.APIKey,
			marketaux.WithLogger(logger),
			marketaux.WithRateLimit(config.Clients.Marketaux.GetRateLimit()),
			marketaux.WithTimeout(config.Clients.Marketaux.GetTimeout()),
		))
	} else {
		logger.Warn().Msg("Marketaux API token not configured - news source disabled")
	}

	var intelClient interfaces.IntelClient
	if config.Clients.Gemini.HasKey() {
		geminiClient, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - news digests disabled")
		} else {
			intelClient = geminiClient
		}
	}

	marketService := market.NewService(c, mapper, logger,
		market.WithQuoteSources(quoteSources...),
		market.WithSeriesSources(seriesSources...),
		market.WithBulkSources(bulkSources...),
		market.WithSingleFlight(config.Market.SingleFlight),
		market.WithBatch(config.Market.GetBatchSize(), config.Market.GetBatchDelay()),
	)

	newsOpts := []news.ServiceOption{news.WithSources(newsSources...)}
	if intelClient != nil {
		newsOpts = append(newsOpts, news.WithIntel(intelClient))
	}
	newsService := news.NewService(c, logger, newsOpts...)

	a := &App{
		Config:        config,
		Logger:        logger,
		Cache:         c,
		Mapper:        mapper,
		MarketService: marketService,
		NewsService:   newsService,
		Market:        marketService,
		StartupTime:   startupStart,
	}

	logger.Info().
		Int("quote_sources", len(quoteSources)).
		Int("series_sources", len(seriesSources)).
		Int("news_sources", len(newsSources)).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases resources held by the App.
func (a *App) Close() {
	if a.Cache != nil {
		a.Cache.Close()
		a.Cache = nil
	}
}
