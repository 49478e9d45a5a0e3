// Package alphavantage provides a client for the Alpha Vantage API
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/benmercer/commodex/internal/clients/flex"
	"github.com/benmercer/commodex/internal/common"
	"github.com/benmercer/commodex/internal/interfaces"
	"github.com/benmercer/commodex/internal/models"
	"github.com/benmercer/commodex/internal/symbols"
)

const (
	SourceName       = "alphavantage"
	DefaultBaseURL   = "https://www.alphavantage.co"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5
)

// Client implements the QuoteSource, SeriesSource, and NewsSource
// capabilities against Alpha Vantage.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	mapper     *symbols.Mapper
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, mapper *symbols.Mapper, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		mapper:  mapper,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the source identifier.
func (c *Client) Name() string { return SourceName }

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Alpha Vantage API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// rateLimitNote is set on 200 responses when the free-tier quota is hit.
type rateLimitNote struct {
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

// get performs a rate-limited query request. Alpha Vantage keys everything
// off the "function" query parameter on a single endpoint.
func (c *Client) get(ctx context.Context, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("function", params.Get("function")).Msg("Alpha Vantage API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/query?function=" + params.Get("function"),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Quota exhaustion arrives as a 200 with a Note body.
	var note rateLimitNote
	if err := json.Unmarshal(body, &note); err == nil && note.Note != "" {
		return &APIError{
			StatusCode: http.StatusTooManyRequests,
			Message:    note.Note,
			Endpoint:   "/query?function=" + params.Get("function"),
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// FetchQuote retrieves the current quote via GLOBAL_QUOTE. Every numeric
// field arrives as a string and coerces to 0 on parse failure.
func (c *Client) FetchQuote(ctx context.Context, name string) (*models.CommodityQuote, error) {
	symbol, ok := c.mapper.Symbol(name, symbols.SourceAlphaVantage)
	if !ok {
		return nil, nil
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)

	var resp globalQuoteResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	price := flex.ParseOr(resp.GlobalQuote.Price, 0)
	if price == 0 {
		// An empty Global Quote object means no data for the symbol.
		return nil, nil
	}

	return &models.CommodityQuote{
		Name:          name,
		Symbol:        symbol,
		Price:         price,
		Change:        flex.ParseOr(resp.GlobalQuote.Change, 0),
		ChangePercent: flex.ParseOr(resp.GlobalQuote.ChangePercent, 0),
		Volume:        flex.ParseIntOr(resp.GlobalQuote.Volume, 0),
		LastUpdate:    time.Now(),
		Category:      c.mapper.Category(name),
		Source:        SourceName,
		Provenance:    models.ProvenanceLive,
	}, nil
}

type commoditySeriesResponse struct {
	Data []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"data"`
}

// FetchSeries retrieves a historical series via the COMMODITY function
// family (function=WTI, WHEAT, ...). Alpha Vantage ships value-only
// series, so candlestick requests return line points and the caller's
// OHLC filter applies downstream.
func (c *Client) FetchSeries(ctx context.Context, name string, timeframe models.Timeframe, chartType models.ChartType) ([]models.ChartPoint, error) {
	symbol, ok := c.mapper.Symbol(name, symbols.SourceAlphaVantage)
	if !ok {
		return nil, nil
	}

	params := url.Values{}
	params.Set("function", symbol)
	params.Set("interval", "daily")

	var resp commoditySeriesResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	cutoff := time.Now().AddDate(0, 0, -timeframe.Points())
	points := make([]models.ChartPoint, 0, len(resp.Data))
	for _, d := range resp.Data {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			continue
		}
		price := flex.ParseOr(d.Value, 0)
		if price == 0 {
			continue
		}
		points = append(points, models.ChartPoint{Date: date, Price: price})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

type newsSentimentResponse struct {
	Feed []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		TimePublished string `json:"time_published"`
		Summary       string `json:"summary"`
		Source        string `json:"source"`
		Sentiment     string `json:"overall_sentiment_label"`
		Topics        []struct {
			Topic string `json:"topic"`
		} `json:"topics"`
	} `json:"feed"`
}

// classifySentiment folds Alpha Vantage's five-way label into the
// three-way model.
func classifySentiment(label string) string {
	switch label {
	case "Bullish", "Somewhat-Bullish":
		return "positive"
	case "Bearish", "Somewhat-Bearish":
		return "negative"
	}
	return "neutral"
}

// FetchNews retrieves news via NEWS_SENTIMENT.
func (c *Client) FetchNews(ctx context.Context, name string, limit int) ([]models.NewsItem, error) {
	symbol, ok := c.mapper.Symbol(name, symbols.SourceAlphaVantage)
	if !ok {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("tickers", symbol)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var resp newsSentimentResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(resp.Feed))
	for i, a := range resp.Feed {
		publishedAt, _ := time.Parse("20060102T150405", a.TimePublished)
		tags := make([]string, 0, len(a.Topics))
		for _, t := range a.Topics {
			tags = append(tags, t.Topic)
		}
		items = append(items, models.NewsItem{
			ID:          fmt.Sprintf("alphavantage-%s-%d", symbol, i),
			Title:       a.Title,
			Description: a.Summary,
			URL:         a.URL,
			Source:      a.Source,
			PublishedAt: publishedAt,
			Sentiment:   classifySentiment(a.Sentiment),
			Tags:        tags,
		})
	}
	return items, nil
}

// Ensure Client implements the source capabilities
var (
	_ interfaces.QuoteSource  = (*Client)(nil)
	_ interfaces.SeriesSource = (*Client)(nil)
	_ interfaces.NewsSource   = (*Client)(nil)
)
