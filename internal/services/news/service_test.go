package news

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benmercer/commodex/internal/cache"
	"github.com/benmercer/commodex/internal/common"
	"github.com/benmercer/commodex/internal/models"
)

type stubNewsSource struct {
	name string
	fn   func(name string, limit int) ([]models.NewsItem, error)

	mu    sync.Mutex
	calls int
}

func (s *stubNewsSource) Name() string { return s.name }

func (s *stubNewsSource) FetchNews(ctx context.Context, name string, limit int) ([]models.NewsItem, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(name, limit)
}

type stubIntel struct {
	fn func(commodity string, items []models.NewsItem) (*models.NewsIntelligence, error)
}

func (s *stubIntel) SummarizeNews(ctx context.Context, commodity string, items []models.NewsItem) (*models.NewsIntelligence, error) {
	return s.fn(commodity, items)
}

func item(title string, age time.Duration) models.NewsItem {
	return models.NewsItem{
		ID:          title,
		Title:       title,
		Source:      "test",
		PublishedAt: time.Now().Add(-age),
	}
}

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	c := cache.New(cache.WithSweepInterval(time.Hour))
	t.Cleanup(c.Close)
	return NewService(c, common.NewSilentLogger(), opts...)
}

func TestGetNews_MergesSources(t *testing.T) {
	a := &stubNewsSource{name: "marketaux", fn: func(string, int) ([]models.NewsItem, error) {
		return []models.NewsItem{item("Gold rallies on weak dollar", time.Hour)}, nil
	}}
	b := &stubNewsSource{name: "alphavantage", fn: func(string, int) ([]models.NewsItem, error) {
		return []models.NewsItem{item("Central banks keep buying gold", 2 * time.Hour)}, nil
	}}
	svc := newTestService(t, WithSources(a, b))

	result, err := svc.GetNews(context.Background(), "Gold Futures", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if result.Provenance != models.ProvenanceLive {
		t.Errorf("expected live provenance, got %s", result.Provenance)
	}
}

func TestGetNews_FailingSourceIsIsolated(t *testing.T) {
	failing := &stubNewsSource{name: "marketaux", fn: func(string, int) ([]models.NewsItem, error) {
		return nil, errors.New("429")
	}}
	working := &stubNewsSource{name: "alphavantage", fn: func(string, int) ([]models.NewsItem, error) {
		return []models.NewsItem{item("Gold steady", time.Hour)}, nil
	}}
	svc := newTestService(t, WithSources(failing, working))

	result, err := svc.GetNews(context.Background(), "Gold Futures", 10)
	if err != nil {
		t.Fatalf("one failing source must not fail the request: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected surviving source's item, got %d items", len(result.Items))
	}
	if result.Items[0].Title != "Gold steady" {
		t.Errorf("unexpected item %q", result.Items[0].Title)
	}
}

func TestGetNews_DeduplicatesByTitlePrefix(t *testing.T) {
	long := "Gold prices surge to record highs as investors flee equities amid uncertainty"
	a := &stubNewsSource{name: "marketaux", fn: func(string, int) ([]models.NewsItem, error) {
		return []models.NewsItem{item(long, time.Hour)}, nil
	}}
	b := &stubNewsSource{name: "alphavantage", fn: func(string, int) ([]models.NewsItem, error) {
		// Same 50-char prefix, different tail and casing.
		return []models.NewsItem{item("GOLD PRICES SURGE TO RECORD HIGHS AS INVESTORS FLEE the market", 2 * time.Hour)}, nil
	}}
	svc := newTestService(t, WithSources(a, b))

	result, err := svc.GetNews(context.Background(), "Gold Futures", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected duplicates collapsed, got %d items", len(result.Items))
	}
}

func TestGetNews_RanksByRelevanceThenRecency(t *testing.T) {
	src := &stubNewsSource{name: "marketaux", fn: func(string, int) ([]models.NewsItem, error) {
		return []models.NewsItem{
			item("Weather outlook for shipping lanes", time.Hour),
			item("Gold climbs as yields fall", 3 * time.Hour),
			item("Fresh economic data due this week", 2 * time.Hour),
		}, nil
	}}
	svc := newTestService(t, WithSources(src))

	result, err := svc.GetNews(context.Background(), "Gold Futures", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Items[0].Title != "Gold climbs as yields fall" {
		t.Errorf("expected commodity-name match ranked first, got %q", result.Items[0].Title)
	}
	// The two zero-relevance items order by recency.
	if result.Items[1].Title != "Weather outlook for shipping lanes" {
		t.Errorf("expected newer item second, got %q", result.Items[1].Title)
	}
}

func TestGetNews_CategorizesItems(t *testing.T) {
	src := &stubNewsSource{name: "marketaux", fn: func(string, int) ([]models.NewsItem, error) {
		return []models.NewsItem{
			item("New tariff policy hits metal imports", time.Hour),
			item("Harvest output beats expectations", time.Hour),
			item("Inflation print moves the dollar", time.Hour),
			item("Price forecast revised upward", time.Hour),
			item("Quiet session in Chicago", time.Hour),
		}, nil
	}}
	svc := newTestService(t, WithSources(src))

	result, _ := svc.GetNews(context.Background(), "Wheat", 10)

	got := map[string]models.NewsCategory{}
	for _, it := range result.Items {
		got[it.Title] = it.Category
	}
	if got["New tariff policy hits metal imports"] != models.NewsRegulatory {
		t.Errorf("tariff item: %s", got["New tariff policy hits metal imports"])
	}
	if got["Harvest output beats expectations"] != models.NewsSupplyDemand {
		t.Errorf("harvest item: %s", got["Harvest output beats expectations"])
	}
	if got["Inflation print moves the dollar"] != models.NewsEconomic {
		t.Errorf("inflation item: %s", got["Inflation print moves the dollar"])
	}
	if got["Price forecast revised upward"] != models.NewsMarketAnalysis {
		t.Errorf("forecast item: %s", got["Price forecast revised upward"])
	}
	if got["Quiet session in Chicago"] != models.NewsGeneral {
		t.Errorf("general item: %s", got["Quiet session in Chicago"])
	}
}

func TestGetNews_CuratedFallbackWhenEmpty(t *testing.T) {
	failing := &stubNewsSource{name: "marketaux", fn: func(string, int) ([]models.NewsItem, error) {
		return nil, errors.New("down")
	}}
	svc := newTestService(t, WithSources(failing))

	result, err := svc.GetNews(context.Background(), "Gold Futures", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Provenance != models.ProvenanceSynthetic {
		t.Errorf("expected synthetic provenance, got %s", result.Provenance)
	}
	if len(result.Items) == 0 {
		t.Fatal("expected curated items")
	}
	seen := map[string]bool{}
	for _, it := range result.Items {
		if it.ID == "" {
			t.Error("curated item missing ID")
		}
		if seen[it.ID] {
			t.Errorf("duplicate curated ID %s", it.ID)
		}
		seen[it.ID] = true
	}
}

func TestGetNews_NoSourcesServesCurated(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.GetNews(context.Background(), "Copper", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Provenance != models.ProvenanceSynthetic {
		t.Errorf("expected synthetic provenance, got %s", result.Provenance)
	}
}

func TestGetNews_LimitApplied(t *testing.T) {
	src := &stubNewsSource{name: "marketaux", fn: func(string, int) ([]models.NewsItem, error) {
		items := make([]models.NewsItem, 8)
		for i := range items {
			items[i] = item(time.Now().Add(time.Duration(i)*time.Minute).Format(time.RFC3339Nano), time.Hour)
		}
		return items, nil
	}}
	svc := newTestService(t, WithSources(src))

	result, err := svc.GetNews(context.Background(), "Copper", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 3 {
		t.Errorf("expected 3 items, got %d", len(result.Items))
	}
}

func TestGetNews_CachedResultReused(t *testing.T) {
	src := &stubNewsSource{name: "marketaux", fn: func(string, int) ([]models.NewsItem, error) {
		return []models.NewsItem{item("Copper demand firm", time.Hour)}, nil
	}}
	svc := newTestService(t, WithSources(src))

	svc.GetNews(context.Background(), "Copper", 10)
	result, _ := svc.GetNews(context.Background(), "Copper", 10)

	if result.Provenance != models.ProvenanceCache {
		t.Errorf("expected cache provenance, got %s", result.Provenance)
	}
	src.mu.Lock()
	calls := src.calls
	src.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected single upstream fetch, got %d", calls)
	}
}

func TestGetNews_IntelAttachedAndFailureTolerated(t *testing.T) {
	src := &stubNewsSource{name: "marketaux", fn: func(string, int) ([]models.NewsItem, error) {
		return []models.NewsItem{item("Gold climbs", time.Hour)}, nil
	}}

	intel := &stubIntel{fn: func(string, []models.NewsItem) (*models.NewsIntelligence, error) {
		return &models.NewsIntelligence{Summary: "bid is firm", OverallSentiment: "bullish", GeneratedAt: time.Now()}, nil
	}}
	svc := newTestService(t, WithSources(src), WithIntel(intel))

	result, err := svc.GetNews(context.Background(), "Gold Futures", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intelligence == nil || result.Intelligence.OverallSentiment != "bullish" {
		t.Error("expected digest attached")
	}

	// A digest failure must not fail the request.
	broken := &stubIntel{fn: func(string, []models.NewsItem) (*models.NewsIntelligence, error) {
		return nil, errors.New("quota")
	}}
	svc2 := newTestService(t, WithSources(src), WithIntel(broken))
	result2, err := svc2.GetNews(context.Background(), "Gold Futures", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result2.Intelligence != nil {
		t.Error("expected no digest on failure")
	}
	if len(result2.Items) != 1 {
		t.Error("items must survive digest failure")
	}
}
