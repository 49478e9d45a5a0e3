// Package models defines data structures for Commodex
package models

import (
	"strings"
	"time"
)

// Category classifies a commodity into one of six fixed groups.
type Category string

const (
	CategoryEnergy    Category = "energy"
	CategoryMetals    Category = "metals"
	CategoryGrains    Category = "grains"
	CategoryLivestock Category = "livestock"
	CategorySofts     Category = "softs"
	CategoryOther     Category = "other"
)

// Categories lists every valid commodity category.
func Categories() []Category {
	return []Category{
		CategoryEnergy,
		CategoryMetals,
		CategoryGrains,
		CategoryLivestock,
		CategorySofts,
		CategoryOther,
	}
}

// Provenance records which tier produced a result so consumers can tell
// live market data from cached or synthesized values.
type Provenance string

const (
	ProvenanceLive      Provenance = "live"
	ProvenanceCache     Provenance = "cache"
	ProvenanceSynthetic Provenance = "synthetic"
)

// Timeframe selects the span of a historical series.
type Timeframe string

const (
	Timeframe1D Timeframe = "1d"
	Timeframe7D Timeframe = "7d"
	Timeframe1M Timeframe = "1m"
	Timeframe3M Timeframe = "3m"
	Timeframe6M Timeframe = "6m"
	Timeframe1Y Timeframe = "1y"
)

// ParseTimeframe normalizes a timeframe string, accepting the "1w" alias
// for one week. Returns false for unrecognized values.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1d":
		return Timeframe1D, true
	case "7d", "1w":
		return Timeframe7D, true
	case "1m", "":
		return Timeframe1M, true
	case "3m":
		return Timeframe3M, true
	case "6m":
		return Timeframe6M, true
	case "1y":
		return Timeframe1Y, true
	}
	return "", false
}

// Points returns the number of series points for the timeframe.
func (t Timeframe) Points() int {
	switch t {
	case Timeframe1D:
		return 24 // hourly
	case Timeframe7D:
		return 7
	case Timeframe1M:
		return 30
	case Timeframe3M:
		return 90
	case Timeframe6M:
		return 180
	case Timeframe1Y:
		return 365
	}
	return 30
}

// Step returns the time distance between consecutive series points.
func (t Timeframe) Step() time.Duration {
	if t == Timeframe1D {
		return time.Hour
	}
	return 24 * time.Hour
}

// ChartType selects the shape of a historical series.
type ChartType string

const (
	ChartLine        ChartType = "line"
	ChartCandlestick ChartType = "candlestick"
)

// ParseChartType normalizes a chart type string. Empty defaults to line.
func ParseChartType(s string) (ChartType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "line", "":
		return ChartLine, true
	case "candlestick", "candle":
		return ChartCandlestick, true
	}
	return "", false
}

// CommodityQuote holds a normalized price snapshot for one commodity.
// Change and ChangePercent carry whatever definition the producing vendor
// uses; no reconciliation is performed across sources.
type CommodityQuote struct {
	Name          string     `json:"name"`   // canonical display name
	Symbol        string     `json:"symbol"` // vendor ticker that produced this quote
	Price         float64    `json:"price"`
	Change        float64    `json:"change"`
	ChangePercent float64    `json:"change_percent"`
	Volume        int64      `json:"volume,omitempty"`
	LastUpdate    time.Time  `json:"last_update"`
	Category      Category   `json:"category"`
	Source        string     `json:"source,omitempty"`
	Provenance    Provenance `json:"provenance,omitempty"`
}

// ChartPoint is one element of a historical price series. For line charts
// only Price is populated; candlestick points carry the full OHLC set.
type ChartPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
	Open  float64   `json:"open,omitempty"`
	High  float64   `json:"high,omitempty"`
	Low   float64   `json:"low,omitempty"`
	Close float64   `json:"close,omitempty"`
}

// HasOHLC reports whether the point carries a usable candlestick tuple.
func (p ChartPoint) HasOHLC() bool {
	return p.Open != 0 && p.High != 0 && p.Low != 0 && p.Close != 0
}

// ValidOHLC reports whether the candlestick invariant holds:
// low <= min(open, close) <= max(open, close) <= high.
func (p ChartPoint) ValidOHLC() bool {
	lo, hi := p.Open, p.Open
	if p.Close < lo {
		lo = p.Close
	}
	if p.Close > hi {
		hi = p.Close
	}
	return p.Low <= lo && hi <= p.High
}

// ChartSeries pairs a series with its provenance.
type ChartSeries struct {
	Name       string       `json:"name"`
	Timeframe  Timeframe    `json:"timeframe"`
	ChartType  ChartType    `json:"chart_type"`
	Points     []ChartPoint `json:"points"`
	Source     string       `json:"source,omitempty"`
	Provenance Provenance   `json:"provenance,omitempty"`
}

// FilterCandlestick drops points that lack a complete OHLC tuple. Vendors
// occasionally ship partial bars; candlestick rendering cannot use them.
func FilterCandlestick(points []ChartPoint) []ChartPoint {
	out := make([]ChartPoint, 0, len(points))
	for _, p := range points {
		if p.HasOHLC() {
			out = append(out, p)
		}
	}
	return out
}
