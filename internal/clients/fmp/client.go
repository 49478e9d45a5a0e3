// Package fmp provides a client for the Financial Modeling Prep API
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/benmercer/commodex/internal/clients/flex"
	"github.com/benmercer/commodex/internal/common"
	"github.com/benmercer/commodex/internal/interfaces"
	"github.com/benmercer/commodex/internal/models"
	"github.com/benmercer/commodex/internal/symbols"
)

const (
	SourceName       = "fmp"
	DefaultBaseURL   = "https://financialmodelingprep.com/api/v3"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the QuoteSource, SeriesSource, NewsSource, and
// BulkSource capabilities against Financial Modeling Prep.
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

// NewClient creates a new FMP client
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
	return fmt.Sprintf("FMP API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// errNoData distinguishes "vendor has nothing for this symbol" from vendor
// failure; callers translate it to a nil result.
var errNoData = fmt.Errorf("no data")

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("FMP API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNoData
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

type quoteResponse struct {
	Symbol            string       `json:"symbol"`
	Price             flex.Float64 `json:"price"`
	Change            flex.Float64 `json:"change"`
	ChangesPercentage flex.Float64 `json:"changesPercentage"`
	Volume            int64        `json:"volume"`
	Timestamp         int64        `json:"timestamp"`
}

func (c *Client) toQuote(name string, q quoteResponse) *models.CommodityQuote {
	lastUpdate := time.Now()
	if q.Timestamp > 0 {
		lastUpdate = time.Unix(q.Timestamp, 0)
	}
	return &models.CommodityQuote{
		Name:          name,
		Symbol:        q.Symbol,
		Price:         float64(q.Price),
		Change:        float64(q.Change),
		ChangePercent: float64(q.ChangesPercentage),
		Volume:        q.Volume,
		LastUpdate:    lastUpdate,
		Category:      c.mapper.Category(name),
		Source:        SourceName,
		Provenance:    models.ProvenanceLive,
	}
}

// FetchQuote retrieves the current quote for a commodity. Returns
// (nil, nil) when FMP has no vocabulary or no data for the name.
func (c *Client) FetchQuote(ctx context.Context, name string) (*models.CommodityQuote, error) {
	symbol, ok := c.mapper.Symbol(name, symbols.SourceFMP)
	if !ok {
		return nil, nil
	}

	var quotes []quoteResponse
	if err := c.get(ctx, "/quote/"+symbol, nil, &quotes); err != nil {
		if err == errNoData {
			return nil, nil
		}
		return nil, err
	}
	if len(quotes) == 0 || quotes[0].Price == 0 {
		return nil, nil
	}

	return c.toQuote(name, quotes[0]), nil
}

type historicalResponse struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date   string       `json:"date"`
		Open   flex.Float64 `json:"open"`
		High   flex.Float64 `json:"high"`
		Low    flex.Float64 `json:"low"`
		Close  flex.Float64 `json:"close"`
		Volume int64        `json:"volume"`
	} `json:"historical"`
}

type intradayBar struct {
	Date  string       `json:"date"`
	Open  flex.Float64 `json:"open"`
	High  flex.Float64 `json:"high"`
	Low   flex.Float64 `json:"low"`
	Close flex.Float64 `json:"close"`
}

// FetchSeries retrieves a historical series. The 1d timeframe uses the
// hourly intraday endpoint; everything else uses daily history.
func (c *Client) FetchSeries(ctx context.Context, name string, timeframe models.Timeframe, chartType models.ChartType) ([]models.ChartPoint, error) {
	symbol, ok := c.mapper.Symbol(name, symbols.SourceFMP)
	if !ok {
		return nil, nil
	}

	if timeframe == models.Timeframe1D {
		return c.fetchIntraday(ctx, symbol)
	}

	params := url.Values{}
	params.Set("from", time.Now().AddDate(0, 0, -timeframe.Points()).Format("2006-01-02"))
	params.Set("to", time.Now().Format("2006-01-02"))

	var resp historicalResponse
	if err := c.get(ctx, "/historical-price-full/"+symbol, params, &resp); err != nil {
		if err == errNoData {
			return nil, nil
		}
		return nil, err
	}

	// FMP returns most recent first; the series contract is ascending.
	points := make([]models.ChartPoint, 0, len(resp.Historical))
	for i := len(resp.Historical) - 1; i >= 0; i-- {
		bar := resp.Historical[i]
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		points = append(points, models.ChartPoint{
			Date:  date,
			Price: float64(bar.Close),
			Open:  float64(bar.Open),
			High:  float64(bar.High),
			Low:   float64(bar.Low),
			Close: float64(bar.Close),
		})
	}
	return points, nil
}

func (c *Client) fetchIntraday(ctx context.Context, symbol string) ([]models.ChartPoint, error) {
	var bars []intradayBar
	if err := c.get(ctx, "/historical-chart/1hour/"+symbol, nil, &bars); err != nil {
		if err == errNoData {
			return nil, nil
		}
		return nil, err
	}

	points := make([]models.ChartPoint, 0, len(bars))
	for i := len(bars) - 1; i >= 0; i-- {
		bar := bars[i]
		date, err := time.Parse("2006-01-02 15:04:05", bar.Date)
		if err != nil {
			continue
		}
		points = append(points, models.ChartPoint{
			Date:  date,
			Price: float64(bar.Close),
			Open:  float64(bar.Open),
			High:  float64(bar.High),
			Low:   float64(bar.Low),
			Close: float64(bar.Close),
		})
	}
	return points, nil
}

type newsResponse struct {
	Symbol        string `json:"symbol"`
	PublishedDate string `json:"publishedDate"`
	Title         string `json:"title"`
	Site          string `json:"site"`
	Text          string `json:"text"`
	URL           string `json:"url"`
}

// FetchNews retrieves news articles tagged with the commodity's symbol.
func (c *Client) FetchNews(ctx context.Context, name string, limit int) ([]models.NewsItem, error) {
	symbol, ok := c.mapper.Symbol(name, symbols.SourceFMP)
	if !ok {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("tickers", symbol)
	params.Set("limit", strconv.Itoa(limit))

	var articles []newsResponse
	if err := c.get(ctx, "/stock_news", params, &articles); err != nil {
		if err == errNoData {
			return nil, nil
		}
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(articles))
	for i, a := range articles {
		publishedAt, _ := time.Parse("2006-01-02 15:04:05", a.PublishedDate)
		items = append(items, models.NewsItem{
			ID:          fmt.Sprintf("fmp-%s-%d", a.Symbol, i),
			Title:       a.Title,
			Description: a.Text,
			URL:         a.URL,
			Source:      a.Site,
			PublishedAt: publishedAt,
		})
	}
	return items, nil
}

// FetchAllQuotes retrieves FMP's full commodity quote listing, keeping
// only symbols that map back to a canonical name.
func (c *Client) FetchAllQuotes(ctx context.Context) ([]models.CommodityQuote, error) {
	var quotes []quoteResponse
	if err := c.get(ctx, "/quotes/commodity", nil, &quotes); err != nil {
		if err == errNoData {
			return nil, nil
		}
		return nil, err
	}

	out := make([]models.CommodityQuote, 0, len(quotes))
	for _, q := range quotes {
		name, ok := c.mapper.Commodity(symbols.SourceFMP, q.Symbol)
		if !ok {
			continue
		}
		out = append(out, *c.toQuote(name, q))
	}
	return out, nil
}

// Ensure Client implements the source capabilities
var (
	_ interfaces.QuoteSource  = (*Client)(nil)
	_ interfaces.SeriesSource = (*Client)(nil)
	_ interfaces.NewsSource   = (*Client)(nil)
	_ interfaces.BulkSource   = (*Client)(nil)
)
