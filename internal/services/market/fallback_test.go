package market

import (
	"testing"
	"time"

	"github.com/benmercer/commodex/internal/models"
	"github.com/benmercer/commodex/internal/symbols"
)

func TestSynthesizer_QuoteWithinBounds(t *testing.T) {
	synth := NewSynthesizer(symbols.NewMapper())
	mapper := symbols.NewMapper()

	for i := 0; i < 50; i++ {
		quote := synth.Quote("Gold Futures")
		base := mapper.BasePrice("Gold Futures")

		if quote.Price < base*0.98 || quote.Price > base*1.02 {
			t.Fatalf("price %.2f outside ±2%% of base %.2f", quote.Price, base)
		}
		if quote.Provenance != models.ProvenanceSynthetic {
			t.Fatalf("expected synthetic provenance, got %s", quote.Provenance)
		}
		if quote.Source != SyntheticSource {
			t.Fatalf("expected source %s, got %s", SyntheticSource, quote.Source)
		}
		if quote.Category != models.CategoryMetals {
			t.Fatalf("expected metals category, got %s", quote.Category)
		}
		// Change fields derive from the same perturbation.
		if diff := quote.Price - mapper.BasePrice("Gold Futures"); abs(diff-quote.Change) > 1e-9 {
			t.Fatalf("change %.6f inconsistent with price delta %.6f", quote.Change, diff)
		}
	}
}

func TestSynthesizer_QuoteUnknownCommodityUsesDefault(t *testing.T) {
	synth := NewSynthesizer(symbols.NewMapper())

	quote := synth.Quote("Unobtainium")
	if quote.Price < symbols.DefaultBasePrice*0.98 || quote.Price > symbols.DefaultBasePrice*1.02 {
		t.Errorf("price %.2f outside ±2%% of default base", quote.Price)
	}
}

func TestSynthesizer_SeriesPointCounts(t *testing.T) {
	synth := NewSynthesizer(symbols.NewMapper())

	tests := []struct {
		timeframe models.Timeframe
		count     int
	}{
		{models.Timeframe1D, 24},
		{models.Timeframe7D, 7},
		{models.Timeframe1M, 30},
		{models.Timeframe3M, 90},
		{models.Timeframe6M, 180},
		{models.Timeframe1Y, 365},
	}
	for _, tt := range tests {
		points := synth.Series("Copper", tt.timeframe, models.ChartLine)
		if len(points) != tt.count {
			t.Errorf("%s: expected %d points, got %d", tt.timeframe, tt.count, len(points))
		}
	}
}

func TestSynthesizer_SeriesRespectsFloor(t *testing.T) {
	mapper := symbols.NewMapper()
	synth := NewSynthesizer(mapper)
	base := mapper.BasePrice("Natural Gas")

	for i := 0; i < 10; i++ {
		points := synth.Series("Natural Gas", models.Timeframe1Y, models.ChartLine)
		for _, p := range points {
			if p.Price < base*0.5 {
				t.Fatalf("point %.4f below floor %.4f", p.Price, base*0.5)
			}
		}
	}
}

func TestSynthesizer_SeriesAscendingEndsNow(t *testing.T) {
	synth := NewSynthesizer(symbols.NewMapper())
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	synth.now = func() time.Time { return fixed }

	points := synth.Series("Wheat", models.Timeframe7D, models.ChartLine)

	for i := 1; i < len(points); i++ {
		if !points[i].Date.After(points[i-1].Date) {
			t.Fatalf("dates not ascending at index %d", i)
		}
	}
	if !points[len(points)-1].Date.Equal(fixed) {
		t.Errorf("expected last point at generation time, got %v", points[len(points)-1].Date)
	}
	if got := points[1].Date.Sub(points[0].Date); got != 24*time.Hour {
		t.Errorf("expected daily step, got %v", got)
	}
}

func TestSynthesizer_CandlestickInvariant(t *testing.T) {
	synth := NewSynthesizer(symbols.NewMapper())

	for i := 0; i < 5; i++ {
		points := synth.Series("Gold Futures", models.Timeframe3M, models.ChartCandlestick)
		var prevClose float64
		for j, p := range points {
			if !p.HasOHLC() {
				t.Fatalf("point %d missing OHLC", j)
			}
			if !p.ValidOHLC() {
				t.Fatalf("point %d violates low <= min(open,close) <= max(open,close) <= high: %+v", j, p)
			}
			if p.Price != p.Close {
				t.Fatalf("point %d: price %.4f must equal close %.4f", j, p.Price, p.Close)
			}
			if j > 0 && p.Open != prevClose {
				t.Fatalf("point %d: open %.4f must continue from previous close %.4f", j, p.Open, prevClose)
			}
			prevClose = p.Close
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
