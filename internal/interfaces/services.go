package interfaces

import (
	"context"

	"github.com/benmercer/commodex/internal/models"
)

// MarketService aggregates quotes and historical series across sources.
// Its operations never fail for upstream reasons: when every source is
// exhausted the fallback synthesizer produces a result, and the returned
// provenance tells the consumer which tier served it.
type MarketService interface {
	// GetQuote returns the current quote for a commodity.
	GetQuote(ctx context.Context, name string) (*models.CommodityQuote, error)

	// GetSeries returns a historical series for a commodity.
	GetSeries(ctx context.Context, name string, timeframe models.Timeframe, chartType models.ChartType) (*models.ChartSeries, error)

	// GetAllQuotes returns quotes for every known commodity, with the
	// data-delay transform applied per mode ("realtime" or "15min").
	GetAllQuotes(ctx context.Context, delayMode string) ([]models.CommodityQuote, error)
}

// NewsService aggregates, de-duplicates, and ranks commodity news.
type NewsService interface {
	// GetNews returns up to limit ranked news items for a commodity.
	GetNews(ctx context.Context, name string, limit int) (*models.NewsResult, error)
}
