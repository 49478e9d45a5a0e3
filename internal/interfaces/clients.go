// Package interfaces defines service and client contracts for Commodex
package interfaces

import (
	"context"

	"github.com/benmercer/commodex/internal/models"
)

// QuoteSource fetches the current price for one commodity from one vendor.
// A (nil, nil) return means the vendor has no data for the commodity; a
// non-nil error means the vendor itself failed (network, HTTP, rate limit)
// and the caller's retry/fallthrough logic should engage.
type QuoteSource interface {
	Name() string
	FetchQuote(ctx context.Context, name string) (*models.CommodityQuote, error)
}

// SeriesSource fetches a historical price series from one vendor. An empty
// slice with nil error means no data for the commodity.
type SeriesSource interface {
	Name() string
	FetchSeries(ctx context.Context, name string, timeframe models.Timeframe, chartType models.ChartType) ([]models.ChartPoint, error)
}

// NewsSource fetches commodity news from one vendor.
type NewsSource interface {
	Name() string
	FetchNews(ctx context.Context, name string, limit int) ([]models.NewsItem, error)
}

// BulkSource fetches every commodity quote the vendor lists in one call.
type BulkSource interface {
	Name() string
	FetchAllQuotes(ctx context.Context) ([]models.CommodityQuote, error)
}

// IntelClient generates AI news digests. Optional; nil when no key is
// configured.
type IntelClient interface {
	SummarizeNews(ctx context.Context, commodity string, items []models.NewsItem) (*models.NewsIntelligence, error)
}
