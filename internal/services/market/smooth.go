package market

import (
	"math"
	"strings"

	"github.com/benmercer/commodex/internal/models"
)

// Grain vendors ship two recurring glitches: single-point price spikes
// that immediately flatten out, and long runs of a repeated stale price.
// Both passes below only run for the affected commodity family.

// spikeThreshold is the relative deviation from the prior point that
// marks a candidate spike.
const spikeThreshold = 0.30

// flatTolerance is the absolute difference under which a spike candidate
// counts as flat against its successor.
const flatTolerance = 1.0

// maxFlatRun is the longest run of exactly equal prices kept; later
// points in the run are dropped.
const maxFlatRun = 5

// glitchProne reports whether the commodity belongs to the family with
// known vendor data glitches.
func glitchProne(name string) bool {
	lower := strings.ToLower(name)
	for _, sub := range []string{"wheat", "corn", "soybean"} {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// Smooth post-processes a fetched series before charting. Non-affected
// commodities pass through untouched. The spike pass must run before the
// flat-run pass: interpolation can change values that affect run length.
func Smooth(points []models.ChartPoint, name string) []models.ChartPoint {
	if !glitchProne(name) || len(points) == 0 {
		return points
	}
	return truncateFlatRuns(interpolateSpikes(points))
}

// interpolateSpikes replaces interior points that jump more than 30% from
// their predecessor while sitting nearly flat against their successor.
// The spike value is replaced by the midpoint of its neighbors.
func interpolateSpikes(points []models.ChartPoint) []models.ChartPoint {
	out := make([]models.ChartPoint, len(points))
	copy(out, points)

	for i := 1; i < len(out)-1; i++ {
		prev := out[i-1].Price
		cur := out[i].Price
		next := out[i+1].Price
		if prev == 0 {
			continue
		}

		deviation := math.Abs(cur-prev) / prev
		if deviation <= spikeThreshold {
			continue
		}
		if math.Abs(cur-next) >= flatTolerance {
			continue
		}

		mid := (prev + next) / 2
		out[i] = repriced(out[i], mid)
	}
	return out
}

// repriced rewrites a point's price, keeping any OHLC tuple valid.
func repriced(p models.ChartPoint, price float64) models.ChartPoint {
	p.Price = price
	if !p.HasOHLC() {
		return p
	}
	p.Close = price
	if p.High < math.Max(p.Open, p.Close) {
		p.High = math.Max(p.Open, p.Close)
	}
	if p.Low > math.Min(p.Open, p.Close) {
		p.Low = math.Min(p.Open, p.Close)
	}
	return p
}

// truncateFlatRuns drops the sixth and subsequent points of any run of
// exactly equal prices. The output may be shorter than the input.
func truncateFlatRuns(points []models.ChartPoint) []models.ChartPoint {
	out := make([]models.ChartPoint, 0, len(points))
	run := 0

	for i, p := range points {
		if i > 0 && p.Price == points[i-1].Price {
			run++
		} else {
			run = 1
		}
		if run > maxFlatRun {
			continue
		}
		out = append(out, p)
	}
	return out
}
