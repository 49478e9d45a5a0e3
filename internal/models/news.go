package models

import "time"

// NewsCategory classifies a news item by subject matter.
type NewsCategory string

const (
	NewsMarketAnalysis NewsCategory = "market_analysis"
	NewsRegulatory     NewsCategory = "regulatory"
	NewsSupplyDemand   NewsCategory = "supply_demand"
	NewsEconomic       NewsCategory = "economic"
	NewsGeneral        NewsCategory = "general"
)

// NewsItem represents one news article from any source. IDs are qualified
// by the producing source and are not stable across requests.
type NewsItem struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	URL            string       `json:"url,omitempty"`
	Source         string       `json:"source"`
	PublishedAt    time.Time    `json:"published_at"`
	Sentiment      string       `json:"sentiment,omitempty"` // positive, negative, neutral
	Category       NewsCategory `json:"category,omitempty"`
	RelevanceScore float64      `json:"relevance_score,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
}

// NewsIntelligence is an optional AI-generated digest of a news set.
type NewsIntelligence struct {
	Summary          string    `json:"summary"`
	OverallSentiment string    `json:"overall_sentiment"` // bullish, bearish, neutral, mixed
	GeneratedAt      time.Time `json:"generated_at"`
}

// NewsResult bundles ranked news with its provenance.
type NewsResult struct {
	Name         string            `json:"name"`
	Items        []NewsItem        `json:"items"`
	Provenance   Provenance        `json:"provenance,omitempty"`
	Intelligence *NewsIntelligence `json:"intelligence,omitempty"`
}
