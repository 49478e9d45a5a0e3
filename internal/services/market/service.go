// Package market aggregates commodity quotes and historical series across
// multiple vendor sources with caching, retries, and synthetic fallback.
package market

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/benmercer/commodex/internal/cache"
	"github.com/benmercer/commodex/internal/common"
	"github.com/benmercer/commodex/internal/interfaces"
	"github.com/benmercer/commodex/internal/metrics"
	"github.com/benmercer/commodex/internal/models"
	"github.com/benmercer/commodex/internal/retry"
	"github.com/benmercer/commodex/internal/symbols"
)

// Service implements MarketService. Sources are tried in the order given;
// the first success wins and is cached. When every source fails the
// synthesizer answers, so the operations never fail for upstream reasons.
type Service struct {
	cache   *cache.Cache
	mapper  *symbols.Mapper
	logger  *common.Logger
	metrics *metrics.Metrics
	synth   *Synthesizer

	quoteSources  []interfaces.QuoteSource
	seriesSources []interfaces.SeriesSource
	bulkSources   []interfaces.BulkSource

	retryOpts    []retry.Option
	singleFlight bool
	quoteFlight  singleflight.Group
	seriesFlight singleflight.Group

	batchSize  int
	batchDelay time.Duration
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithQuoteSources sets the ordered quote fallthrough chain.
func WithQuoteSources(sources ...interfaces.QuoteSource) ServiceOption {
	return func(s *Service) {
		s.quoteSources = sources
	}
}

// WithSeriesSources sets the ordered series fallthrough chain.
func WithSeriesSources(sources ...interfaces.SeriesSource) ServiceOption {
	return func(s *Service) {
		s.seriesSources = sources
	}
}

// WithBulkSources sets the bulk listing sources, merged first-seen-wins.
func WithBulkSources(sources ...interfaces.BulkSource) ServiceOption {
	return func(s *Service) {
		s.bulkSources = sources
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRetryOptions sets the retry policy applied around each source call.
func WithRetryOptions(opts ...retry.Option) ServiceOption {
	return func(s *Service) {
		s.retryOpts = opts
	}
}

// WithSingleFlight enables coalescing of concurrent identical fetches.
// Off by default: two concurrent misses for one key then trigger two
// upstream fetches, which matches the documented cache contract.
func WithSingleFlight(enabled bool) ServiceOption {
	return func(s *Service) {
		s.singleFlight = enabled
	}
}

// WithBatch sets the bulk gap-fill batch size and inter-batch delay.
func WithBatch(size int, delay time.Duration) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
		if delay >= 0 {
			s.batchDelay = delay
		}
	}
}

// NewService creates a market aggregation service.
func NewService(c *cache.Cache, mapper *symbols.Mapper, logger *common.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		cache:      c,
		mapper:     mapper,
		logger:     logger,
		metrics:    metrics.New(),
		synth:      NewSynthesizer(mapper),
		batchSize:  10,
		batchDelay: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Metrics returns the service's metrics set, for registration on the
// HTTP exporter.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// GetQuote returns the current quote for a commodity. Cache first, then
// the source chain, then synthesis; the provenance field reports which
// tier answered.
func (s *Service) GetQuote(ctx context.Context, name string) (*models.CommodityQuote, error) {
	key := cache.QuoteKey(name)
	if v, ok := s.cache.Get(key); ok {
		if quote, ok := v.(models.CommodityQuote); ok {
			s.metrics.CacheHits.WithLabelValues("quote").Inc()
			return cachedQuote(quote), nil
		}
	}
	s.metrics.CacheMisses.WithLabelValues("quote").Inc()

	if s.singleFlight {
		v, _, _ := s.quoteFlight.Do(key, func() (interface{}, error) {
			return s.fetchQuote(ctx, name), nil
		})
		quote := v.(models.CommodityQuote)
		return &quote, nil
	}

	quote := s.fetchQuote(ctx, name)
	return &quote, nil
}

// cachedQuote marks a cache hit's provenance without mutating the stored
// value. Synthetic data stays marked synthetic so the UI keeps showing
// its fallback notice.
func cachedQuote(quote models.CommodityQuote) *models.CommodityQuote {
	if quote.Provenance != models.ProvenanceSynthetic {
		quote.Provenance = models.ProvenanceCache
	}
	return &quote
}

// fetchQuote walks the source chain and falls back to synthesis.
func (s *Service) fetchQuote(ctx context.Context, name string) models.CommodityQuote {
	for _, src := range s.quoteSources {
		quote, err := retry.DoValue(ctx, func() (*models.CommodityQuote, error) {
			return src.FetchQuote(ctx, name)
		}, s.retryOpts...)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("commodity", name).
				Str("source", src.Name()).
				Msg("Quote source failed")
			s.metrics.SourceFailures.WithLabelValues(src.Name(), "quote").Inc()
			continue
		}
		if quote == nil || quote.Price == 0 {
			s.logger.Debug().
				Str("commodity", name).
				Str("source", src.Name()).
				Msg("Quote source has no data")
			s.metrics.SourceFailures.WithLabelValues(src.Name(), "quote").Inc()
			continue
		}

		s.metrics.SourceSuccesses.WithLabelValues(src.Name(), "quote").Inc()
		s.cache.Set(cache.QuoteKey(name), *quote, 0)
		return *quote
	}

	s.logger.Warn().Str("commodity", name).Msg("All quote sources exhausted - synthesizing")
	s.metrics.FallbackServed.WithLabelValues("quote").Inc()

	quote := s.synth.Quote(name)
	s.cache.Set(cache.QuoteKey(name), *quote, 0)
	return *quote
}

// GetSeries returns a historical series. Fetched series pass through the
// anomaly smoother before caching; candlestick series drop points with
// incomplete OHLC tuples.
func (s *Service) GetSeries(ctx context.Context, name string, timeframe models.Timeframe, chartType models.ChartType) (*models.ChartSeries, error) {
	key := cache.SeriesKey(name, string(timeframe), string(chartType))
	if v, ok := s.cache.Get(key); ok {
		if series, ok := v.(models.ChartSeries); ok {
			s.metrics.CacheHits.WithLabelValues("series").Inc()
			return cachedSeries(series), nil
		}
	}
	s.metrics.CacheMisses.WithLabelValues("series").Inc()

	if s.singleFlight {
		v, _, _ := s.seriesFlight.Do(key, func() (interface{}, error) {
			return s.fetchSeries(ctx, name, timeframe, chartType), nil
		})
		series := v.(models.ChartSeries)
		return &series, nil
	}

	series := s.fetchSeries(ctx, name, timeframe, chartType)
	return &series, nil
}

func cachedSeries(series models.ChartSeries) *models.ChartSeries {
	if series.Provenance != models.ProvenanceSynthetic {
		series.Provenance = models.ProvenanceCache
	}
	return &series
}

// fetchSeries walks the series chain and falls back to synthesis.
func (s *Service) fetchSeries(ctx context.Context, name string, timeframe models.Timeframe, chartType models.ChartType) models.ChartSeries {
	key := cache.SeriesKey(name, string(timeframe), string(chartType))

	for _, src := range s.seriesSources {
		points, err := retry.DoValue(ctx, func() ([]models.ChartPoint, error) {
			return src.FetchSeries(ctx, name, timeframe, chartType)
		}, s.retryOpts...)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("commodity", name).
				Str("source", src.Name()).
				Msg("Series source failed")
			s.metrics.SourceFailures.WithLabelValues(src.Name(), "series").Inc()
			continue
		}

		points = prepareSeries(points, name, chartType)
		if len(points) == 0 {
			s.logger.Debug().
				Str("commodity", name).
				Str("source", src.Name()).
				Msg("Series source has no data")
			s.metrics.SourceFailures.WithLabelValues(src.Name(), "series").Inc()
			continue
		}

		s.metrics.SourceSuccesses.WithLabelValues(src.Name(), "series").Inc()
		series := models.ChartSeries{
			Name:       name,
			Timeframe:  timeframe,
			ChartType:  chartType,
			Points:     points,
			Source:     src.Name(),
			Provenance: models.ProvenanceLive,
		}
		s.cache.Set(key, series, 0)
		return series
	}

	s.logger.Warn().
		Str("commodity", name).
		Str("timeframe", string(timeframe)).
		Msg("All series sources exhausted - synthesizing")
	s.metrics.FallbackServed.WithLabelValues("series").Inc()

	series := models.ChartSeries{
		Name:       name,
		Timeframe:  timeframe,
		ChartType:  chartType,
		Points:     s.synth.Series(name, timeframe, chartType),
		Source:     SyntheticSource,
		Provenance: models.ProvenanceSynthetic,
	}
	s.cache.Set(key, series, 0)
	return series
}

// prepareSeries normalizes a fetched series: ascending date order, the
// anomaly smoother, and the candlestick completeness filter.
func prepareSeries(points []models.ChartPoint, name string, chartType models.ChartType) []models.ChartPoint {
	if len(points) == 0 {
		return nil
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	points = Smooth(points, name)
	if chartType == models.ChartCandlestick {
		points = models.FilterCandlestick(points)
	}
	return points
}

// GetAllQuotes returns quotes for every known commodity. Bulk-capable
// sources are merged first (first-seen name wins); any known commodity
// still missing is filled per-name in rate-limited batches. The delay
// transform is applied last and is never cached.
func (s *Service) GetAllQuotes(ctx context.Context, delayMode string) ([]models.CommodityQuote, error) {
	if v, ok := s.cache.Get(cache.BulkKey); ok {
		if quotes, ok := v.([]models.CommodityQuote); ok {
			s.metrics.CacheHits.WithLabelValues("bulk").Inc()
			return ApplyDelay(quotes, delayMode), nil
		}
	}
	s.metrics.CacheMisses.WithLabelValues("bulk").Inc()

	seen := make(map[string]bool)
	quotes := make([]models.CommodityQuote, 0, len(s.mapper.Names()))

	for _, src := range s.bulkSources {
		bulk, err := retry.DoValue(ctx, func() ([]models.CommodityQuote, error) {
			return src.FetchAllQuotes(ctx)
		}, s.retryOpts...)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("source", src.Name()).
				Msg("Bulk source failed")
			s.metrics.SourceFailures.WithLabelValues(src.Name(), "bulk").Inc()
			continue
		}
		s.metrics.SourceSuccesses.WithLabelValues(src.Name(), "bulk").Inc()
		for _, quote := range bulk {
			// First-seen source wins; later data for the name is discarded.
			if seen[quote.Name] {
				continue
			}
			seen[quote.Name] = true
			quotes = append(quotes, quote)
		}
	}

	quotes = append(quotes, s.fillMissing(ctx, seen)...)

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Name < quotes[j].Name })
	s.cache.Set(cache.BulkKey, quotes, 0)

	return ApplyDelay(quotes, delayMode), nil
}

// fillMissing fetches quotes for known commodities absent from the bulk
// merge, in fixed-size concurrent batches separated by a pause. The pause
// is backpressure for upstream rate limits, not concurrency control.
func (s *Service) fillMissing(ctx context.Context, seen map[string]bool) []models.CommodityQuote {
	var missing []string
	for _, name := range s.mapper.Names() {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	results := make([]models.CommodityQuote, len(missing))
	for start := 0; start < len(missing); start += s.batchSize {
		end := start + s.batchSize
		if end > len(missing) {
			end = len(missing)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				quote, _ := s.GetQuote(ctx, missing[i])
				results[i] = *quote
			}(i)
		}
		wg.Wait()

		if end < len(missing) && s.batchDelay > 0 {
			time.Sleep(s.batchDelay)
		}
	}
	return results
}

// Ensure Service implements MarketService
var _ interfaces.MarketService = (*Service)(nil)
