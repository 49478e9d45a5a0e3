// Package news aggregates, de-duplicates, and ranks commodity news from
// multiple vendors.
package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/benmercer/commodex/internal/cache"
	"github.com/benmercer/commodex/internal/common"
	"github.com/benmercer/commodex/internal/interfaces"
	"github.com/benmercer/commodex/internal/models"
)

// DefaultLimit is the item count returned when the caller passes none.
const DefaultLimit = 10

// dedupPrefixLen is how many characters of the lowercased title identify
// a duplicate across sources.
const dedupPrefixLen = 50

// Service implements NewsService. Sources are queried concurrently and a
// failure in one never discards the others' results.
type Service struct {
	cache   *cache.Cache
	logger  *common.Logger
	sources []interfaces.NewsSource
	intel   interfaces.IntelClient

	now func() time.Time
}

// ServiceOption configures the news service.
type ServiceOption func(*Service)

// WithSources sets the news sources queried on each request.
func WithSources(sources ...interfaces.NewsSource) ServiceOption {
	return func(s *Service) {
		s.sources = sources
	}
}

// WithIntel sets the optional digest generator.
func WithIntel(intel interfaces.IntelClient) ServiceOption {
	return func(s *Service) {
		s.intel = intel
	}
}

// NewService creates a news aggregation service.
func NewService(c *cache.Cache, logger *common.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		cache:  c,
		logger: logger,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetNews returns up to limit ranked news items for a commodity. All
// sources are queried concurrently; when every source fails or returns
// nothing, a curated placeholder set is served so the panel never sits
// empty.
func (s *Service) GetNews(ctx context.Context, name string, limit int) (*models.NewsResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	key := cache.NewsKey(name)
	if v, ok := s.cache.Get(key); ok {
		if result, ok := v.(models.NewsResult); ok {
			if result.Provenance != models.ProvenanceSynthetic {
				result.Provenance = models.ProvenanceCache
			}
			result.Items = capItems(result.Items, limit)
			return &result, nil
		}
	}

	items := s.fetchAll(ctx, name)

	result := models.NewsResult{Name: name}
	if len(items) == 0 {
		s.logger.Warn().Str("commodity", name).Msg("All news sources empty - serving curated items")
		result.Items = curatedItems(name, s.now())
		result.Provenance = models.ProvenanceSynthetic
	} else {
		items = dedupe(items)
		for i := range items {
			items[i].Category = categorize(items[i])
			items[i].RelevanceScore = relevance(items[i], name)
		}
		rank(items)
		result.Items = items
		result.Provenance = models.ProvenanceLive
	}

	if s.intel != nil && result.Provenance == models.ProvenanceLive {
		intel, err := s.intel.SummarizeNews(ctx, name, capItems(result.Items, limit))
		if err != nil {
			s.logger.Warn().Err(err).Str("commodity", name).Msg("News digest generation failed")
		} else {
			result.Intelligence = intel
		}
	}

	s.cache.Set(key, result, 0)

	result.Items = capItems(result.Items, limit)
	return &result, nil
}

// fetchAll queries every source concurrently. Each source's outcome is
// settled independently; failures are logged and dropped.
func (s *Service) fetchAll(ctx context.Context, name string) []models.NewsItem {
	results := make([][]models.NewsItem, len(s.sources))

	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src interfaces.NewsSource) {
			defer wg.Done()
			items, err := src.FetchNews(ctx, name, DefaultLimit*2)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("commodity", name).
					Str("source", src.Name()).
					Msg("News source failed")
				return
			}
			results[i] = items
		}(i, src)
	}
	wg.Wait()

	var merged []models.NewsItem
	for _, items := range results {
		merged = append(merged, items...)
	}
	return merged
}

// dedupe removes items whose lowercased title prefix matches an earlier
// item's. Source order decides which copy survives.
func dedupe(items []models.NewsItem) []models.NewsItem {
	seen := make(map[string]bool, len(items))
	out := make([]models.NewsItem, 0, len(items))

	for _, item := range items {
		prefix := strings.ToLower(item.Title)
		if len(prefix) > dedupPrefixLen {
			prefix = prefix[:dedupPrefixLen]
		}
		if seen[prefix] {
			continue
		}
		seen[prefix] = true
		out = append(out, item)
	}
	return out
}

var categoryKeywords = map[models.NewsCategory][]string{
	models.NewsRegulatory:   {"regulation", "policy", "tariff", "sanction", "government", "ban", "quota"},
	models.NewsSupplyDemand: {"supply", "demand", "production", "inventory", "harvest", "export", "import", "output", "stockpile"},
	models.NewsEconomic:     {"inflation", "economy", "fed", "interest rate", "gdp", "dollar", "recession"},
	models.NewsMarketAnalysis: {"price", "forecast", "analysis", "outlook", "rally", "futures", "bull", "bear"},
}

// categoryOrder fixes keyword evaluation order; more specific categories
// are checked before market_analysis, whose keywords are broad.
var categoryOrder = []models.NewsCategory{
	models.NewsRegulatory,
	models.NewsSupplyDemand,
	models.NewsEconomic,
	models.NewsMarketAnalysis,
}

// categorize classifies an item by keyword scan over title and
// description.
func categorize(item models.NewsItem) models.NewsCategory {
	text := strings.ToLower(item.Title + " " + item.Description)
	for _, cat := range categoryOrder {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(text, kw) {
				return cat
			}
		}
	}
	return models.NewsGeneral
}

// relevance scores an item against the requested commodity. The base
// word of the commodity name ("Gold" out of "Gold Futures") in the title
// scores highest, then the description, then topical keywords.
func relevance(item models.NewsItem, name string) float64 {
	base := strings.ToLower(baseWord(name))
	title := strings.ToLower(item.Title)
	desc := strings.ToLower(item.Description)

	score := 0.0
	if strings.Contains(title, base) {
		score += 10
	}
	if strings.Contains(desc, base) {
		score += 5
	}
	for _, kw := range []string{"commodity", "commodities", "futures"} {
		if strings.Contains(title, kw) {
			score += 3
		} else if strings.Contains(desc, kw) {
			score += 2
		}
	}
	return score
}

// baseWord returns the leading word of a commodity name.
func baseWord(name string) string {
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

// rank orders items by relevance descending, recency breaking ties.
func rank(items []models.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].RelevanceScore != items[j].RelevanceScore {
			return items[i].RelevanceScore > items[j].RelevanceScore
		}
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}

func capItems(items []models.NewsItem, limit int) []models.NewsItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

// curatedItems produces the placeholder set served when no vendor has
// news. The copy is generic on purpose; it is labeled synthetic in the
// result's provenance.
func curatedItems(name string, now time.Time) []models.NewsItem {
	entries := []struct {
		title    string
		desc     string
		category models.NewsCategory
		ageHours int
	}{
		{
			title:    fmt.Sprintf("%s markets steady as traders weigh supply outlook", name),
			desc:     fmt.Sprintf("Analysts see balanced positioning in %s contracts heading into the next session.", strings.ToLower(baseWord(name))),
			category: models.NewsMarketAnalysis,
			ageHours: 2,
		},
		{
			title:    fmt.Sprintf("Production data in focus for %s", name),
			desc:     "Upcoming inventory and output reports are expected to set near-term direction.",
			category: models.NewsSupplyDemand,
			ageHours: 6,
		},
		{
			title:    "Dollar moves ripple through commodity complex",
			desc:     "Currency swings continue to drive cross-asset flows in raw materials.",
			category: models.NewsEconomic,
			ageHours: 12,
		},
	}

	items := make([]models.NewsItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.NewsItem{
			ID:          uuid.NewString(),
			Title:       e.title,
			Description: e.desc,
			Source:      "curated",
			PublishedAt: now.Add(-time.Duration(e.ageHours) * time.Hour),
			Sentiment:   "neutral",
			Category:    e.category,
		})
	}
	return items
}

// Ensure Service implements NewsService
var _ interfaces.NewsService = (*Service)(nil)
