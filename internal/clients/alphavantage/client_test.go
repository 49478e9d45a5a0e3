package alphavantage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benmercer/commodex/internal/models"
	"github.com/benmercer/commodex/internal/symbols"
)

func newTestClient(srvURL string) *Client {
	return NewClient("test-key", symbols.NewMapper(), WithBaseURL(srvURL), WithRateLimit(1000))
}

func TestFetchQuote_ParsesStringFields(t *testing.T) {
	var capturedFn, capturedSymbol string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedFn = r.URL.Query().Get("function")
		capturedSymbol = r.URL.Query().Get("symbol")
		w.Write([]byte(`{"Global Quote":{
			"01. symbol":"GOLD",
			"05. price":"2052.3000",
			"06. volume":"185000",
			"09. change":"7.3000",
			"10. change percent":"0.3570%"
		}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	quote, err := client.FetchQuote(context.Background(), "Gold Futures")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}

	if capturedFn != "GLOBAL_QUOTE" {
		t.Errorf("expected function GLOBAL_QUOTE, got %s", capturedFn)
	}
	if capturedSymbol != "GOLD" {
		t.Errorf("expected symbol GOLD, got %s", capturedSymbol)
	}
	if quote.Price != 2052.3 {
		t.Errorf("expected price 2052.3, got %.4f", quote.Price)
	}
	if quote.Change != 7.3 {
		t.Errorf("expected change 7.3, got %.4f", quote.Change)
	}
	// Percent suffix is stripped by the tolerant parser.
	if quote.ChangePercent != 0.357 {
		t.Errorf("expected change percent 0.357, got %.4f", quote.ChangePercent)
	}
	if quote.Volume != 185000 {
		t.Errorf("expected volume 185000, got %d", quote.Volume)
	}
	if quote.Source != "alphavantage" {
		t.Errorf("expected source alphavantage, got %s", quote.Source)
	}
}

func TestFetchQuote_EmptyGlobalQuoteIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote":{}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	quote, err := client.FetchQuote(context.Background(), "Gold Futures")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote != nil {
		t.Error("expected nil quote for empty Global Quote")
	}
}

func TestFetchQuote_QuotaNoteIs429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Free-tier quota exhaustion is a 200 with a Note body.
		w.Write([]byte(`{"Note":"Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.FetchQuote(context.Background(), "Gold Futures")
	if err == nil {
		t.Fatal("expected error on quota note")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected synthesized 429, got %d", apiErr.StatusCode)
	}
}

func TestFetchSeries_FunctionIsSymbolAndCutoffApplies(t *testing.T) {
	var capturedFn string
	old := time.Now().AddDate(0, 0, -60).Format("2006-01-02")
	recentA := time.Now().AddDate(0, 0, -2).Format("2006-01-02")
	recentB := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedFn = r.URL.Query().Get("function")
		fmt.Fprintf(w, `{"data":[
			{"date":"%s","value":"2051.0"},
			{"date":"%s","value":"2050.0"},
			{"date":"%s","value":"1990.0"},
			{"date":"%s","value":"."}
		]}`, recentB, recentA, old, recentB)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	points, err := client.FetchSeries(context.Background(), "Gold Futures", models.Timeframe1M, models.ChartLine)
	if err != nil {
		t.Fatalf("FetchSeries failed: %v", err)
	}

	if capturedFn != "GOLD" {
		t.Errorf("expected function GOLD, got %s", capturedFn)
	}
	// The 60-day-old bar is outside the 1m window; the unparsable value
	// coerces to 0 and is dropped.
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points[1].Date.After(points[0].Date) {
		t.Error("points not ascending")
	}
	if points[0].Price != 2050.0 {
		t.Errorf("expected oldest kept bar 2050.0 first, got %.1f", points[0].Price)
	}
}

func TestFetchSeries_EmptyDataIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	points, err := client.FetchSeries(context.Background(), "Gold Futures", models.Timeframe1M, models.ChartLine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points != nil {
		t.Error("expected nil points for empty data")
	}
}

func TestFetchNews_ParsesFeedAndSentiment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "NEWS_SENTIMENT" {
			t.Errorf("expected NEWS_SENTIMENT, got %s", got)
		}
		w.Write([]byte(`{"feed":[
			{"title":"Gold climbs","url":"https://example.com/a","time_published":"20260203T093000","summary":"Bid firm.","source":"wire","overall_sentiment_label":"Somewhat-Bullish","topics":[{"topic":"Economy - Monetary"}]},
			{"title":"Gold slides","url":"https://example.com/b","time_published":"20260203T100000","summary":"Offers hit.","source":"wire","overall_sentiment_label":"Bearish","topics":[]},
			{"title":"Gold flat","url":"https://example.com/c","time_published":"20260203T110000","summary":"Quiet.","source":"wire","overall_sentiment_label":"Neutral","topics":[]}
		]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	items, err := client.FetchNews(context.Background(), "Gold Futures", 10)
	if err != nil {
		t.Fatalf("FetchNews failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Sentiment != "positive" {
		t.Errorf("Somewhat-Bullish should fold to positive, got %s", items[0].Sentiment)
	}
	if items[1].Sentiment != "negative" {
		t.Errorf("Bearish should fold to negative, got %s", items[1].Sentiment)
	}
	if items[2].Sentiment != "neutral" {
		t.Errorf("Neutral should stay neutral, got %s", items[2].Sentiment)
	}
	want := time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC)
	if !items[0].PublishedAt.Equal(want) {
		t.Errorf("expected published %v, got %v", want, items[0].PublishedAt)
	}
	if len(items[0].Tags) != 1 || items[0].Tags[0] != "Economy - Monetary" {
		t.Errorf("unexpected tags %v", items[0].Tags)
	}
}

func TestFetchQuote_UnmappedNameIsNoData(t *testing.T) {
	// Platinum has no Alpha Vantage vocabulary.
	client := NewClient("k", symbols.NewMapper(), WithRateLimit(1000))
	quote, err := client.FetchQuote(context.Background(), "Platinum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote != nil {
		t.Error("expected nil quote")
	}
}
