// Package symbols maps canonical commodity names to vendor ticker
// vocabularies and carries the static category and base-price tables.
package symbols

import (
	"sort"
	"strings"

	"github.com/benmercer/commodex/internal/models"
)

// Source identifiers used as the vendor axis of the mapping tables.
const (
	SourceFMP            = "fmp"
	SourceYahoo          = "yahoo"
	SourceAlphaVantage   = "alphavantage"
	SourceCommodityPrice = "commodityprice"
)

// DefaultBasePrice is used for commodities absent from the base-price
// table so fallback synthesis always has a starting point.
const DefaultBasePrice = 100.0

type entry struct {
	category  models.Category
	basePrice float64
	tickers   map[string]string // source -> vendor symbol
}

// The static commodity table. Canonical names are the application's stable
// display names; vendor symbols follow each vendor's own vocabulary.
var table = map[string]entry{
	"Crude Oil WTI": {models.CategoryEnergy, 78.50, map[string]string{
		SourceFMP: "CLUSD", SourceYahoo: "CL=F", SourceAlphaVantage: "WTI", SourceCommodityPrice: "WTIOIL",
	}},
	"Crude Oil Brent": {models.CategoryEnergy, 82.30, map[string]string{
		SourceFMP: "BZUSD", SourceYahoo: "BZ=F", SourceAlphaVantage: "BRENT", SourceCommodityPrice: "BRENTOIL",
	}},
	"Natural Gas": {models.CategoryEnergy, 2.85, map[string]string{
		SourceFMP: "NGUSD", SourceYahoo: "NG=F", SourceAlphaVantage: "NATURAL_GAS", SourceCommodityPrice: "NG",
	}},
	"Heating Oil": {models.CategoryEnergy, 2.60, map[string]string{
		SourceFMP: "HOUSD", SourceYahoo: "HO=F",
	}},
	"Gasoline RBOB": {models.CategoryEnergy, 2.45, map[string]string{
		SourceFMP: "RBUSD", SourceYahoo: "RB=F",
	}},
	"Gold Futures": {models.CategoryMetals, 2045.00, map[string]string{
		SourceFMP: "GCUSD", SourceYahoo: "GC=F", SourceAlphaVantage: "GOLD", SourceCommodityPrice: "XAU",
	}},
	"Silver Futures": {models.CategoryMetals, 24.80, map[string]string{
		SourceFMP: "SIUSD", SourceYahoo: "SI=F", SourceAlphaVantage: "SILVER", SourceCommodityPrice: "XAG",
	}},
	"Copper": {models.CategoryMetals, 3.85, map[string]string{
		SourceFMP: "HGUSD", SourceYahoo: "HG=F", SourceAlphaVantage: "COPPER", SourceCommodityPrice: "COPPER",
	}},
	"Platinum": {models.CategoryMetals, 920.00, map[string]string{
		SourceFMP: "PLUSD", SourceYahoo: "PL=F", SourceCommodityPrice: "XPT",
	}},
	"Palladium": {models.CategoryMetals, 1010.00, map[string]string{
		SourceFMP: "PAUSD", SourceYahoo: "PA=F", SourceCommodityPrice: "XPD",
	}},
	"Aluminum": {models.CategoryMetals, 2250.00, map[string]string{
		SourceFMP: "ALIUSD", SourceYahoo: "ALI=F", SourceAlphaVantage: "ALUMINUM",
	}},
	"Wheat": {models.CategoryGrains, 590.00, map[string]string{
		SourceFMP: "ZWUSD", SourceYahoo: "ZW=F", SourceAlphaVantage: "WHEAT", SourceCommodityPrice: "WHEAT",
	}},
	"Corn": {models.CategoryGrains, 475.00, map[string]string{
		SourceFMP: "ZCUSD", SourceYahoo: "ZC=F", SourceAlphaVantage: "CORN", SourceCommodityPrice: "CORN",
	}},
	"Soybeans": {models.CategoryGrains, 1180.00, map[string]string{
		SourceFMP: "ZSUSD", SourceYahoo: "ZS=F", SourceCommodityPrice: "SOYBEAN",
	}},
	"Soybean Oil": {models.CategoryGrains, 48.50, map[string]string{
		SourceFMP: "ZLUSD", SourceYahoo: "ZL=F",
	}},
	"Soybean Meal": {models.CategoryGrains, 345.00, map[string]string{
		SourceFMP: "ZMUSD", SourceYahoo: "ZM=F",
	}},
	"Oats": {models.CategoryGrains, 365.00, map[string]string{
		SourceFMP: "ZOUSD", SourceYahoo: "ZO=F",
	}},
	"Rough Rice": {models.CategoryGrains, 17.20, map[string]string{
		SourceFMP: "ZRUSD", SourceYahoo: "ZR=F",
	}},
	"Live Cattle": {models.CategoryLivestock, 185.00, map[string]string{
		SourceFMP: "LEUSX", SourceYahoo: "LE=F",
	}},
	"Feeder Cattle": {models.CategoryLivestock, 245.00, map[string]string{
		SourceFMP: "GFUSX", SourceYahoo: "GF=F",
	}},
	"Lean Hogs": {models.CategoryLivestock, 72.50, map[string]string{
		SourceFMP: "HEUSX", SourceYahoo: "HE=F",
	}},
	"Sugar": {models.CategorySofts, 22.40, map[string]string{
		SourceFMP: "SBUSX", SourceYahoo: "SB=F", SourceAlphaVantage: "SUGAR", SourceCommodityPrice: "SUGAR",
	}},
	"Coffee": {models.CategorySofts, 178.00, map[string]string{
		SourceFMP: "KCUSX", SourceYahoo: "KC=F", SourceAlphaVantage: "COFFEE", SourceCommodityPrice: "COFFEE",
	}},
	"Cocoa": {models.CategorySofts, 4200.00, map[string]string{
		SourceFMP: "CCUSD", SourceYahoo: "CC=F", SourceCommodityPrice: "COCOA",
	}},
	"Cotton": {models.CategorySofts, 84.00, map[string]string{
		SourceFMP: "CTUSX", SourceYahoo: "CT=F", SourceAlphaVantage: "COTTON", SourceCommodityPrice: "COTTON",
	}},
	"Orange Juice": {models.CategorySofts, 360.00, map[string]string{
		SourceFMP: "OJUSX", SourceYahoo: "OJ=F",
	}},
	"Lumber": {models.CategoryOther, 540.00, map[string]string{
		SourceFMP: "LBUSD", SourceYahoo: "LBS=F",
	}},
}

// Mapper resolves canonical commodity names against vendor symbol
// vocabularies. Tables are static; lookups are O(1) and never error.
// Callers treat a missing mapping as "unknown", not as a failure.
type Mapper struct {
	reverse map[string]string // "{source}:{symbol}" -> canonical name
	names   []string
}

// NewMapper builds a mapper with the reverse index populated.
func NewMapper() *Mapper {
	m := &Mapper{
		reverse: make(map[string]string),
		names:   make([]string, 0, len(table)),
	}
	for name, e := range table {
		m.names = append(m.names, name)
		for source, symbol := range e.tickers {
			m.reverse[reverseKey(source, symbol)] = name
		}
	}
	sort.Strings(m.names)
	return m
}

func reverseKey(source, symbol string) string {
	return source + ":" + strings.ToUpper(symbol)
}

// Names returns all canonical commodity names, sorted.
func (m *Mapper) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Known reports whether the canonical name is in the static table.
func (m *Mapper) Known(name string) bool {
	_, ok := table[name]
	return ok
}

// Symbol resolves the vendor symbol for a canonical name. The second
// return is false when the vendor has no vocabulary for this commodity.
func (m *Mapper) Symbol(name, source string) (string, bool) {
	e, ok := table[name]
	if !ok {
		return "", false
	}
	symbol, ok := e.tickers[source]
	return symbol, ok
}

// Commodity resolves a vendor symbol back to its canonical name.
func (m *Mapper) Commodity(source, symbol string) (string, bool) {
	name, ok := m.reverse[reverseKey(source, symbol)]
	return name, ok
}

// Category returns the category for a canonical name. Unmapped names are
// classified heuristically from name substrings, defaulting to "other".
func (m *Mapper) Category(name string) models.Category {
	if e, ok := table[name]; ok {
		return e.category
	}
	return inferCategory(name)
}

// BasePrice returns the synthesis base price for a canonical name, or
// DefaultBasePrice when unmapped.
func (m *Mapper) BasePrice(name string) float64 {
	if e, ok := table[name]; ok {
		return e.basePrice
	}
	return DefaultBasePrice
}

// inferCategory guesses a category from substrings of the name.
func inferCategory(name string) models.Category {
	lower := strings.ToLower(name)
	contains := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("oil", "gas", "fuel", "energy", "propane", "ethanol"):
		return models.CategoryEnergy
	case contains("gold", "silver", "copper", "platinum", "palladium", "aluminum", "zinc", "nickel", "metal"):
		return models.CategoryMetals
	case contains("wheat", "corn", "soy", "oat", "rice", "grain", "barley"):
		return models.CategoryGrains
	case contains("cattle", "hog", "pork", "livestock", "beef"):
		return models.CategoryLivestock
	case contains("sugar", "coffee", "cocoa", "cotton", "juice", "butter", "milk"):
		return models.CategorySofts
	}
	return models.CategoryOther
}
