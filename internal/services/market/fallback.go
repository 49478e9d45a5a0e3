package market

import (
	"math/rand"
	"sync"
	"time"

	"github.com/benmercer/commodex/internal/models"
	"github.com/benmercer/commodex/internal/symbols"
)

// SyntheticSource names the terminal tier in quote/series provenance.
const SyntheticSource = "synthetic"

// stepVolatility is the per-step random walk magnitude as a fraction of
// the base price.
const stepVolatility = 0.02

// floorFraction clamps the walk: a synthesized price never falls below
// this fraction of the base price.
const floorFraction = 0.5

// Synthesizer produces statistically plausible quotes and series when
// every real source has failed. It is not a market simulation; it exists
// so the UI never renders a blank chart.
type Synthesizer struct {
	mapper *symbols.Mapper
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer creates a synthesizer seeded from the current time.
func NewSynthesizer(mapper *symbols.Mapper) *Synthesizer {
	return &Synthesizer{
		mapper: mapper,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// unit returns a uniform value in [-1, 1).
func (s *Synthesizer) unit() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()*2 - 1
}

// Quote synthesizes a single quote: the base price perturbed by up to
// ±2%, with change fields derived from the perturbation.
func (s *Synthesizer) Quote(name string) *models.CommodityQuote {
	base := s.mapper.BasePrice(name)
	pct := s.unit() * stepVolatility // ±2%
	price := base * (1 + pct)

	return &models.CommodityQuote{
		Name:          name,
		Symbol:        name,
		Price:         price,
		Change:        price - base,
		ChangePercent: pct * 100,
		LastUpdate:    s.now(),
		Category:      s.mapper.Category(name),
		Source:        SyntheticSource,
		Provenance:    models.ProvenanceSynthetic,
	}
}

// Series synthesizes a historical series by random-walking from the base
// price, oldest to newest, never dropping below half the base price. The
// last point lands at generation time.
func (s *Synthesizer) Series(name string, timeframe models.Timeframe, chartType models.ChartType) []models.ChartPoint {
	base := s.mapper.BasePrice(name)
	count := timeframe.Points()
	step := timeframe.Step()
	floor := base * floorFraction

	end := s.now()
	start := end.Add(-time.Duration(count-1) * step)

	points := make([]models.ChartPoint, 0, count)
	price := base
	prevClose := base

	for i := 0; i < count; i++ {
		price += s.unit() * stepVolatility * base
		if price < floor {
			price = floor
		}

		point := models.ChartPoint{
			Date:  start.Add(time.Duration(i) * step),
			Price: price,
		}

		if chartType == models.ChartCandlestick {
			point = s.candle(point, prevClose, base)
			prevClose = point.Close
			point.Price = point.Close
		}

		points = append(points, point)
	}
	return points
}

// candle builds an OHLC envelope around the walked price such that
// low <= min(open, close) <= max(open, close) <= high always holds.
// Open continues from the previous close.
func (s *Synthesizer) candle(point models.ChartPoint, prevClose, base float64) models.ChartPoint {
	spread := stepVolatility * base * 0.5

	open := prevClose
	close := point.Price

	high := open
	if close > high {
		high = close
	}
	low := open
	if close < low {
		low = close
	}

	// Extend the wicks beyond the body by a fraction of the step
	// volatility; unit() is in [-1, 1), so take the magnitude.
	hw := s.unit()
	if hw < 0 {
		hw = -hw
	}
	lw := s.unit()
	if lw < 0 {
		lw = -lw
	}
	high += hw * spread
	low -= lw * spread
	if low < 0 {
		low = 0
	}

	point.Open = open
	point.High = high
	point.Low = low
	point.Close = close
	return point
}
