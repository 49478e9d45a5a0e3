// Package yahoo provides a client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/benmercer/commodex/internal/common"
	"github.com/benmercer/commodex/internal/interfaces"
	"github.com/benmercer/commodex/internal/models"
	"github.com/benmercer/commodex/internal/symbols"
)

const (
	SourceName       = "yahoo"
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5

	// Yahoo rejects requests without a browser-looking User-Agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:112.0) Gecko/20100101 Firefox/112.0"
)

// Client implements the QuoteSource and SeriesSource capabilities against
// the Yahoo Finance chart endpoint. Yahoo needs no API key.
type Client struct {
	baseURL    string
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

// NewClient creates a new Yahoo Finance client
func NewClient(mapper *symbols.Mapper, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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
	return fmt.Sprintf("Yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// fetchChart performs a rate-limited chart request for one symbol.
func (c *Client) fetchChart(ctx context.Context, symbol, rng, interval string) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("range", rng)
	params.Set("interval", interval)

	path := "/v8/finance/chart/" + symbol
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if chart.Chart.Error != nil {
		// Yahoo reports unknown symbols inside a 200 body.
		return nil, nil
	}
	return &chart, nil
}

// FetchQuote retrieves the current quote from the 1d chart metadata.
func (c *Client) FetchQuote(ctx context.Context, name string) (*models.CommodityQuote, error) {
	symbol, ok := c.mapper.Symbol(name, symbols.SourceYahoo)
	if !ok {
		return nil, nil
	}

	chart, err := c.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}
	if chart == nil || len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return nil, nil
	}

	change := 0.0
	changePct := 0.0
	if meta.ChartPreviousClose > 0 {
		change = meta.RegularMarketPrice - meta.ChartPreviousClose
		changePct = change / meta.ChartPreviousClose * 100
	}

	lastUpdate := time.Now()
	if meta.RegularMarketTime > 0 {
		lastUpdate = time.Unix(meta.RegularMarketTime, 0)
	}

	return &models.CommodityQuote{
		Name:          name,
		Symbol:        symbol,
		Price:         meta.RegularMarketPrice,
		Change:        change,
		ChangePercent: changePct,
		LastUpdate:    lastUpdate,
		Category:      c.mapper.Category(name),
		Source:        SourceName,
		Provenance:    models.ProvenanceLive,
	}, nil
}

// rangeFor translates a timeframe into Yahoo range/interval parameters.
func rangeFor(timeframe models.Timeframe) (string, string) {
	switch timeframe {
	case models.Timeframe1D:
		return "1d", "60m"
	case models.Timeframe7D:
		return "7d", "1d"
	case models.Timeframe1M:
		return "1mo", "1d"
	case models.Timeframe3M:
		return "3mo", "1d"
	case models.Timeframe6M:
		return "6mo", "1d"
	case models.Timeframe1Y:
		return "1y", "1d"
	}
	return "1mo", "1d"
}

// FetchSeries retrieves a historical series from the chart arrays. Yahoo
// ships nullable OHLC arrays; nil slots coerce to 0 and candlestick
// filtering later drops incomplete bars.
func (c *Client) FetchSeries(ctx context.Context, name string, timeframe models.Timeframe, chartType models.ChartType) ([]models.ChartPoint, error) {
	symbol, ok := c.mapper.Symbol(name, symbols.SourceYahoo)
	if !ok {
		return nil, nil
	}

	rng, interval := rangeFor(timeframe)
	chart, err := c.fetchChart(ctx, symbol, rng, interval)
	if err != nil {
		return nil, err
	}
	if chart == nil || len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	deref := func(arr []*float64, i int) float64 {
		if i < len(arr) && arr[i] != nil {
			return *arr[i]
		}
		return 0
	}

	points := make([]models.ChartPoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice := deref(quote.Close, i)
		if closePrice == 0 {
			continue
		}
		points = append(points, models.ChartPoint{
			Date:  time.Unix(ts, 0),
			Price: closePrice,
			Open:  deref(quote.Open, i),
			High:  deref(quote.High, i),
			Low:   deref(quote.Low, i),
			Close: closePrice,
		})
	}
	return points, nil
}

// Ensure Client implements the source capabilities
var (
	_ interfaces.QuoteSource  = (*Client)(nil)
	_ interfaces.SeriesSource = (*Client)(nil)
)
