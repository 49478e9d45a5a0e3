package market

import (
	"hash/fnv"

	"github.com/benmercer/commodex/internal/models"
)

// Data delay modes. The 15-minute view is a simulated-delay illusion for
// non-premium consumers: prices are perturbed by a factor derived from
// the commodity name, not looked up from actual historical data.
const (
	DelayRealtime = "realtime"
	Delay15Min    = "15min"
)

// delaySpread is the maximum relative perturbation applied in delayed
// mode (±0.5%).
const delaySpread = 0.005

// delayFactor derives the stable perturbation factor for a commodity
// name. The same name always yields the same factor, so repeated
// applications are idempotent on identical input.
func delayFactor(name string) float64 {
	h := fnv.New32a()
	h.Write([]byte(name))
	// Map the hash onto [-1, 1), then scale into the spread.
	unit := float64(h.Sum32()%2048)/1024 - 1
	return 1 + unit*delaySpread
}

// ApplyDelay returns quotes adjusted for the requested delay mode.
// Realtime is the identity transform; the input slice is never mutated.
func ApplyDelay(quotes []models.CommodityQuote, mode string) []models.CommodityQuote {
	if mode != Delay15Min {
		return quotes
	}

	out := make([]models.CommodityQuote, len(quotes))
	for i, q := range quotes {
		factor := delayFactor(q.Name)
		q.Price *= factor
		q.Change *= factor
		q.ChangePercent *= factor
		out[i] = q
	}
	return out
}
